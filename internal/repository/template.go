package repository

import (
	"context"
	"errors"
	"fmt"

	"templatestore-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TemplateRepository interface {
	FindByID(ctx context.Context, templateID string) (*model.Template, error)
	// FindByProcessorIDs matches a template on either the processor product
	// id or the variant id. Returns nil when nothing matches and errors when
	// more than one template claims the ids.
	FindByProcessorIDs(ctx context.Context, productID, variantID string) (*model.Template, error)
	IncrementPurchases(ctx context.Context, tx *gorm.DB, templateID string) error
	Seed(ctx context.Context, templates []model.Template) error
}

type templateRepoImpl struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepoImpl{
		db: db,
	}
}

func (r *templateRepoImpl) FindByID(ctx context.Context, templateID string) (*model.Template, error) {
	var template model.Template
	err := r.db.WithContext(ctx).
		Where("id = ?", templateID).
		First(&template).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &template, nil
}

func (r *templateRepoImpl) FindByProcessorIDs(ctx context.Context, productID, variantID string) (*model.Template, error) {
	query := r.db.WithContext(ctx).Model(&model.Template{})

	// Empty ids must never match templates with empty processor fields.
	switch {
	case productID != "" && variantID != "":
		query = query.Where("processor_product_id = ? OR processor_variant_id = ?", productID, variantID)
	case productID != "":
		query = query.Where("processor_product_id = ?", productID)
	case variantID != "":
		query = query.Where("processor_variant_id = ?", variantID)
	default:
		return nil, nil
	}

	var templates []model.Template
	if err := query.Limit(2).Find(&templates).Error; err != nil {
		return nil, err
	}

	switch len(templates) {
	case 0:
		return nil, nil
	case 1:
		return &templates[0], nil
	default:
		// A catalog misconfiguration, not something to fulfill against an
		// arbitrary template.
		return nil, fmt.Errorf("product %q / variant %q matches more than one template", productID, variantID)
	}
}

func (r *templateRepoImpl) IncrementPurchases(ctx context.Context, tx *gorm.DB, templateID string) error {
	return tx.WithContext(ctx).Model(&model.Template{}).
		Where("id = ?", templateID).
		UpdateColumn("purchases", gorm.Expr("purchases + ?", 1)).Error
}

func (r *templateRepoImpl) Seed(ctx context.Context, templates []model.Template) error {
	if len(templates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&templates).Error
}
