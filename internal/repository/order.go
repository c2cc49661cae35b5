package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"templatestore-backend/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	// FindByExternalID returns nil when no order exists for the id.
	FindByExternalID(ctx context.Context, externalOrderID string) (*model.Order, error)
	// CreateOrGet inserts the order or, when the external order id already
	// exists, returns the stored row. The bool reports whether this call
	// created the row. Losing a concurrent uniqueness race degrades to the
	// already-exists path.
	CreateOrGet(ctx context.Context, order *model.Order) (*model.Order, bool, error)
	// UpdateStatus sets the order status and returns the row as stored. A
	// REFUNDED order never leaves REFUNDED. Returns gorm.ErrRecordNotFound
	// when no order exists for the id.
	UpdateStatus(ctx context.Context, tx *gorm.DB, externalOrderID string, status model.OrderStatus) (*model.Order, error)
	SetLicenseKeys(ctx context.Context, tx *gorm.DB, orderID uint, keys []string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) FindByExternalID(ctx context.Context, externalOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("external_order_id = ?", externalOrderID).
		First(&order).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) CreateOrGet(ctx context.Context, order *model.Order) (*model.Order, bool, error) {
	err := r.db.WithContext(ctx).Create(order).Error
	if err == nil {
		return order, true, nil
	}

	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	existing, ferr := r.FindByExternalID(ctx, order.ExternalOrderID)
	if ferr != nil {
		return nil, false, fmt.Errorf("load existing order after duplicate: %w", ferr)
	}
	if existing == nil {
		// Unique violation but no row to read back, nothing sane to do.
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	return existing, false, nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, externalOrderID string, status model.OrderStatus) (*model.Order, error) {
	var order model.Order
	err := tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&model.Order{}).
			Where("external_order_id = ?", externalOrderID)
		if status != model.OrderRefunded {
			// Refund is terminal for this pipeline.
			query = query.Where("status <> ?", model.OrderRefunded)
		}

		result := query.Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
		if result.Error != nil {
			return result.Error
		}

		// Zero rows can mean either "no such order" or "already refunded";
		// reading the row back distinguishes the two.
		return tx.Where("external_order_id = ?", externalOrderID).First(&order).Error
	})

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) SetLicenseKeys(ctx context.Context, tx *gorm.DB, orderID uint, keys []string) error {
	order := model.Order{}
	if err := order.SetLicenseKeys(keys); err != nil {
		return fmt.Errorf("encode license keys: %w", err)
	}

	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"license_keys": order.LicenseKeys,
			"updated_at":   time.Now(),
		}).Error
}
