package model

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

type LicenseType string

const (
	LicenseSingle   LicenseType = "SINGLE"
	LicenseExtended LicenseType = "EXTENDED"
)

type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

type Template struct {
	ID          string `gorm:"primaryKey;size:64;not null"`
	Name        string `gorm:"size:255;not null"`
	Description string
	// Identifiers the payment processor reports in line items. Either may
	// match an inbound event.
	ProcessorProductID string `gorm:"size:64;index"`
	ProcessorVariantID string `gorm:"size:64;index"`
	Price              int64  `gorm:"not null"` // minor units
	Currency           string `gorm:"size:8;not null"`
	Purchases          int64  `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type User struct {
	ID    string `gorm:"primaryKey;size:64;not null"`
	Email string `gorm:"size:255;uniqueIndex;not null"`
	Name  string `gorm:"size:255"`
	Role  UserRole
	// Empty for payment-originated accounts until the user registers.
	PasswordHash string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Order struct {
	ID uint `gorm:"primaryKey"`
	// Processor order id, the idempotency key for webhook processing.
	ExternalOrderID   string      `gorm:"size:64;uniqueIndex;not null"`
	ExternalInvoiceID string      `gorm:"size:64;index"`
	Status            OrderStatus `gorm:"size:32;index;not null"`
	Total             int64       `gorm:"not null"` // minor units
	Currency          string      `gorm:"size:8;not null"`
	LicenseType       LicenseType `gorm:"size:16;not null"`
	CustomerEmail     string      `gorm:"size:255;index;not null"`
	CustomerName      string      `gorm:"size:255"`
	BillingMetadata   string      `gorm:"type:text"` // raw JSON from the processor
	// Denormalized list of issued keys for display, stored as a JSON array.
	LicenseKeys string `gorm:"type:text"`
	ExpiresAt   *time.Time
	TemplateID  string `gorm:"size:64;index;not null"`
	UserID      string `gorm:"size:64;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (o *Order) SetLicenseKeys(keys []string) error {
	data, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	o.LicenseKeys = string(data)
	return nil
}

func (o *Order) GetLicenseKeys() ([]string, error) {
	if o.LicenseKeys == "" {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal([]byte(o.LicenseKeys), &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

type License struct {
	ID string `gorm:"primaryKey;size:64;not null"`
	// A license may outlive its order reference.
	OrderID         *uint       `gorm:"index"`
	ExternalOrderID string      `gorm:"size:64;index"`
	TemplateID      string      `gorm:"size:64;index;not null"`
	UserID          string      `gorm:"size:64;index"`
	Type            LicenseType `gorm:"size:16;not null"`
	Key             string      `gorm:"size:128;uniqueIndex;not null"`
	MaxUsage        int         `gorm:"not null"` // 0 = unbounded
	UsedCount       int         `gorm:"not null"`
	IsActive        bool        `gorm:"not null"`
	RevokeReason    string      `gorm:"size:255"`
	ExpiresAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
