package repository

import (
	"context"
	"errors"
	"time"

	"templatestore-backend/internal/model"

	"gorm.io/gorm"
)

type LicenseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, license *model.License) error
	// FindByKey returns nil when no license exists for the key.
	FindByKey(ctx context.Context, key string) (*model.License, error)
	FindByID(ctx context.Context, id string) (*model.License, error)
	FindByExternalOrderID(ctx context.Context, externalOrderID string) ([]*model.License, error)
	// DeactivateByOrder flips every active license of the order to inactive
	// in one statement and reports how many rows changed.
	DeactivateByOrder(ctx context.Context, tx *gorm.DB, externalOrderID, reason string) (int64, error)
	// Revoke deactivates a single license. Revoking an already-revoked
	// license succeeds and keeps the original reason. Returns nil when the
	// license does not exist.
	Revoke(ctx context.Context, licenseID, reason string) (*model.License, error)
	// ConsumeUsage increments used_count if the license is active and under
	// its limit. Reports whether a usage was consumed.
	ConsumeUsage(ctx context.Context, licenseID string) (bool, error)
}

type licenseRepoImpl struct {
	db *gorm.DB
}

func NewLicenseRepository(db *gorm.DB) LicenseRepository {
	return &licenseRepoImpl{
		db: db,
	}
}

func (r *licenseRepoImpl) Create(ctx context.Context, tx *gorm.DB, license *model.License) error {
	return tx.WithContext(ctx).Create(license).Error
}

func (r *licenseRepoImpl) FindByKey(ctx context.Context, key string) (*model.License, error) {
	var license model.License
	// "key" is reserved in MySQL; a map condition lets the dialector quote it.
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"key": key}).
		First(&license).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &license, nil
}

func (r *licenseRepoImpl) FindByID(ctx context.Context, id string) (*model.License, error) {
	var license model.License
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&license).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &license, nil
}

func (r *licenseRepoImpl) FindByExternalOrderID(ctx context.Context, externalOrderID string) ([]*model.License, error) {
	var licenses []*model.License
	err := r.db.WithContext(ctx).
		Where("external_order_id = ?", externalOrderID).
		Find(&licenses).Error

	if err != nil {
		return nil, err
	}

	return licenses, nil
}

func (r *licenseRepoImpl) DeactivateByOrder(ctx context.Context, tx *gorm.DB, externalOrderID, reason string) (int64, error) {
	result := tx.WithContext(ctx).Model(&model.License{}).
		Where("external_order_id = ?", externalOrderID).
		Where("is_active = ?", true).
		Updates(map[string]interface{}{
			"is_active":     false,
			"revoke_reason": reason,
			"updated_at":    time.Now(),
		})

	return result.RowsAffected, result.Error
}

func (r *licenseRepoImpl) Revoke(ctx context.Context, licenseID, reason string) (*model.License, error) {
	var license model.License
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.License{}).
			Where("id = ?", licenseID).
			Where("is_active = ?", true).
			Updates(map[string]interface{}{
				"is_active":     false,
				"revoke_reason": reason,
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}

		return tx.Where("id = ?", licenseID).First(&license).Error
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &license, nil
}

func (r *licenseRepoImpl) ConsumeUsage(ctx context.Context, licenseID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.License{}).
		Where("id = ?", licenseID).
		Where("is_active = ?", true).
		Where("max_usage = 0 OR used_count < max_usage").
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
