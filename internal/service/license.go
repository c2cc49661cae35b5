package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"templatestore-backend/internal/config"
	"templatestore-backend/internal/dto"
	"templatestore-backend/internal/model"
	"templatestore-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IssueParams struct {
	TemplateID      string
	UserID          string
	OrderID         uint
	ExternalOrderID string
	Type            model.LicenseType
	ExpiresAt       *time.Time
	// Count is the number of licenses to issue. Zero or negative means one.
	Count int
}

type LicenseService interface {
	// Issue creates licenses inside the caller's transaction. Keys are
	// unique and non-guessable; every license starts active with zero
	// usage.
	Issue(ctx context.Context, tx *gorm.DB, params IssueParams) ([]*model.License, error)
	// Validate is read-only; it never consumes usage.
	Validate(ctx context.Context, key string) (*dto.ValidateLicenseResponse, error)
	// Revoke deactivates a license. Idempotent; returns nil when the
	// license id is unknown.
	Revoke(ctx context.Context, licenseID, reason string) (*model.License, error)
	OrderLicenses(ctx context.Context, externalOrderID string) ([]*model.License, error)
}

type licenseServiceImpl struct {
	licenseRepo repository.LicenseRepository
	cfg         config.License
}

func NewLicenseService(licenseRepo repository.LicenseRepository, cfg config.License) LicenseService {
	return &licenseServiceImpl{
		licenseRepo: licenseRepo,
		cfg:         cfg,
	}
}

func (s *licenseServiceImpl) Issue(ctx context.Context, tx *gorm.DB, params IssueParams) ([]*model.License, error) {
	count := params.Count
	if count <= 0 {
		count = 1
	}

	orderID := params.OrderID
	licenses := make([]*model.License, 0, count)
	for i := 0; i < count; i++ {
		license := &model.License{
			ID:              uuid.NewString(),
			OrderID:         &orderID,
			ExternalOrderID: params.ExternalOrderID,
			TemplateID:      params.TemplateID,
			UserID:          params.UserID,
			Type:            params.Type,
			Key:             s.generateKey(),
			MaxUsage:        s.usageLimit(params.Type),
			UsedCount:       0,
			IsActive:        true,
			ExpiresAt:       params.ExpiresAt,
		}

		if err := s.licenseRepo.Create(ctx, tx, license); err != nil {
			return nil, fmt.Errorf("persist license: %w", err)
		}

		licenses = append(licenses, license)
	}

	return licenses, nil
}

func (s *licenseServiceImpl) Validate(ctx context.Context, key string) (*dto.ValidateLicenseResponse, error) {
	license, err := s.licenseRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("look up license: %w", err)
	}

	if license == nil {
		// Deliberately generic so callers cannot enumerate keys.
		return &dto.ValidateLicenseResponse{
			IsValid: false,
			Message: "license not found",
		}, nil
	}

	isRevoked := !license.IsActive
	isExpired := license.ExpiresAt != nil && license.ExpiresAt.Before(time.Now())

	var remaining *int
	if license.MaxUsage > 0 {
		left := license.MaxUsage - license.UsedCount
		if left < 0 {
			left = 0
		}
		remaining = &left
	}

	isValid := license.IsActive && !isExpired && (remaining == nil || *remaining > 0)

	message := "license is valid"
	switch {
	case isRevoked:
		message = "license has been revoked"
	case isExpired:
		message = "license has expired"
	case remaining != nil && *remaining == 0:
		message = "license usage limit reached"
	}

	return &dto.ValidateLicenseResponse{
		IsValid:        isValid,
		IsExpired:      isExpired,
		IsRevoked:      isRevoked,
		RemainingUsage: remaining,
		Message:        message,
		License:        ToLicenseInfo(license),
	}, nil
}

func (s *licenseServiceImpl) Revoke(ctx context.Context, licenseID, reason string) (*model.License, error) {
	if reason == "" {
		reason = "revoked by administrator"
	}

	license, err := s.licenseRepo.Revoke(ctx, licenseID, reason)
	if err != nil {
		return nil, fmt.Errorf("revoke license %s: %w", licenseID, err)
	}

	return license, nil
}

func (s *licenseServiceImpl) OrderLicenses(ctx context.Context, externalOrderID string) ([]*model.License, error) {
	return s.licenseRepo.FindByExternalOrderID(ctx, externalOrderID)
}

// generateKey combines the configured prefix, the current time in base36
// and a random UUID so keys are globally unique and not guessable in
// sequence.
func (s *licenseServiceImpl) generateKey() string {
	timePart := strings.ToUpper(strconv.FormatInt(time.Now().UnixNano(), 36))
	randomPart := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s-%s", s.cfg.KeyPrefix, timePart, randomPart)
}

func (s *licenseServiceImpl) usageLimit(licenseType model.LicenseType) int {
	if licenseType == model.LicenseExtended {
		return s.cfg.ExtendedLimit
	}
	return s.cfg.SingleLimit
}

func ToLicenseInfo(license *model.License) *dto.LicenseInfo {
	info := &dto.LicenseInfo{
		ID:         license.ID,
		Key:        license.Key,
		Type:       string(license.Type),
		TemplateID: license.TemplateID,
		MaxUsage:   license.MaxUsage,
		UsedCount:  license.UsedCount,
	}
	if license.ExpiresAt != nil {
		info.ExpiresAt = license.ExpiresAt.Format(time.RFC3339)
	}
	return info
}
