package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"templatestore-backend/internal/dto"
	"templatestore-backend/internal/mailer"
	"templatestore-backend/internal/model"
	"templatestore-backend/internal/repository"
	"templatestore-backend/internal/webhook"

	"gorm.io/gorm"
)

type WebhookService interface {
	// HandleWebhook verifies, decodes and applies one delivery. body must
	// be the raw request bytes used for signature computation.
	HandleWebhook(ctx context.Context, body []byte, signature string) (*dto.WebhookResponse, error)
}

type webhookServiceImpl struct {
	db             *gorm.DB
	verifier       *webhook.Verifier
	orderRepo      repository.OrderRepository
	templateRepo   repository.TemplateRepository
	userRepo       repository.UserRepository
	licenseRepo    repository.LicenseRepository
	licenseService LicenseService
	mailer         mailer.Mailer
	timeout        time.Duration
}

func NewWebhookService(
	db *gorm.DB,
	verifier *webhook.Verifier,
	orderRepo repository.OrderRepository,
	templateRepo repository.TemplateRepository,
	userRepo repository.UserRepository,
	licenseRepo repository.LicenseRepository,
	licenseService LicenseService,
	m mailer.Mailer,
	timeout time.Duration,
) WebhookService {
	return &webhookServiceImpl{
		db:             db,
		verifier:       verifier,
		orderRepo:      orderRepo,
		templateRepo:   templateRepo,
		userRepo:       userRepo,
		licenseRepo:    licenseRepo,
		licenseService: licenseService,
		mailer:         m,
		timeout:        timeout,
	}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, body []byte, signature string) (*dto.WebhookResponse, error) {
	// Nothing is decoded or acted on before the signature checks out.
	if !s.verifier.Verify(body, signature) {
		return nil, ErrSignatureInvalid
	}

	event, err := webhook.DecodeEvent(body)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	switch event.Name {
	case webhook.EventOrderCreated:
		return s.handleOrderCreated(ctx, event)
	case webhook.EventOrderUpdated:
		if event.Attributes.Refunded {
			return s.handleOrderRefunded(ctx, event)
		}
		return s.handleOrderUpdated(ctx, event)
	case webhook.EventOrderRefunded:
		return s.handleOrderRefunded(ctx, event)
	default:
		// Unknown event types are acknowledged without side effects.
		return &dto.WebhookResponse{
			Success: true,
			Message: "event acknowledged",
		}, nil
	}
}

func (s *webhookServiceImpl) handleOrderCreated(ctx context.Context, event *webhook.Event) (*dto.WebhookResponse, error) {
	existing, err := s.orderRepo.FindByExternalID(ctx, event.ExternalOrderID)
	if err != nil {
		return nil, fmt.Errorf("look up order %s: %w", event.ExternalOrderID, err)
	}
	if existing != nil {
		// Duplicate delivery, absorbed as success.
		return s.alreadyProcessed(ctx, existing)
	}

	attrs := event.Attributes

	licenseType, err := webhook.ParseLicenseType(attrs.LicenseType)
	if err != nil {
		return nil, &webhook.DecodeError{Reason: err.Error()}
	}

	item := attrs.FirstOrderItem
	template, err := s.templateRepo.FindByProcessorIDs(ctx, item.ProductID, item.VariantID)
	if err != nil {
		return nil, fmt.Errorf("resolve template: %w", err)
	}
	if template == nil {
		return nil, fmt.Errorf("%w (product %q, variant %q)", ErrTemplateNotFound, item.ProductID, item.VariantID)
	}

	user, err := s.userRepo.FindOrCreateByEmail(ctx, attrs.UserEmail, attrs.UserName)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	order := &model.Order{
		ExternalOrderID:   event.ExternalOrderID,
		ExternalInvoiceID: attrs.Identifier,
		Status:            webhook.MapStatus(attrs.Status, attrs.Refunded),
		Total:             attrs.Total,
		Currency:          attrs.Currency,
		LicenseType:       licenseType,
		CustomerEmail:     attrs.UserEmail,
		CustomerName:      attrs.UserName,
		BillingMetadata:   string(event.RawAttributes),
		TemplateID:        template.ID,
		UserID:            user.ID,
	}

	order, created, err := s.orderRepo.CreateOrGet(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("record order %s: %w", event.ExternalOrderID, err)
	}
	if !created {
		// Lost the uniqueness race to a concurrent delivery.
		return s.alreadyProcessed(ctx, order)
	}

	var licenses []*model.License
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		licenses, err = s.licenseService.Issue(ctx, tx, IssueParams{
			TemplateID:      template.ID,
			UserID:          user.ID,
			OrderID:         order.ID,
			ExternalOrderID: order.ExternalOrderID,
			Type:            licenseType,
			Count:           1,
		})
		if err != nil {
			return err
		}

		keys := make([]string, len(licenses))
		for i, license := range licenses {
			keys[i] = license.Key
		}
		if err := s.orderRepo.SetLicenseKeys(ctx, tx, order.ID, keys); err != nil {
			return fmt.Errorf("record license keys on order: %w", err)
		}

		return s.templateRepo.IncrementPurchases(ctx, tx, template.ID)
	})
	if err != nil {
		// The order row exists, entitlement does not. Reported distinctly
		// so an operator can reconcile.
		return nil, &PartialIssuanceError{ExternalOrderID: order.ExternalOrderID, Err: err}
	}

	s.sendReceipt(ctx, order, template, licenses)

	return &dto.WebhookResponse{
		Success:    true,
		Message:    "order processed",
		OrderID:    order.ExternalOrderID,
		LicenseIDs: licenseIDs(licenses),
	}, nil
}

func (s *webhookServiceImpl) handleOrderUpdated(ctx context.Context, event *webhook.Event) (*dto.WebhookResponse, error) {
	status := webhook.MapStatus(event.Attributes.Status, false)

	order, err := s.orderRepo.UpdateStatus(ctx, s.db, event.ExternalOrderID, status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, event.ExternalOrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", event.ExternalOrderID, err)
	}

	return &dto.WebhookResponse{
		Success: true,
		Message: fmt.Sprintf("order status is %s", order.Status),
		OrderID: order.ExternalOrderID,
	}, nil
}

func (s *webhookServiceImpl) handleOrderRefunded(ctx context.Context, event *webhook.Event) (*dto.WebhookResponse, error) {
	var deactivated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.orderRepo.UpdateStatus(ctx, tx, event.ExternalOrderID, model.OrderRefunded); err != nil {
			return err
		}

		var err error
		deactivated, err = s.licenseRepo.DeactivateByOrder(ctx, tx, event.ExternalOrderID, "order refunded")
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, event.ExternalOrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("refund order %s: %w", event.ExternalOrderID, err)
	}

	return &dto.WebhookResponse{
		Success: true,
		Message: fmt.Sprintf("order refunded, %d license(s) deactivated", deactivated),
		OrderID: event.ExternalOrderID,
	}, nil
}

// alreadyProcessed builds the idempotent success response for a duplicate
// order_created delivery, indistinguishable in shape from the first one.
// A delivery that loses the creation race can read here before the winner's
// issuance transaction commits, so LicenseIDs may still be empty for that
// one response; the processor retries against a committed state.
func (s *webhookServiceImpl) alreadyProcessed(ctx context.Context, order *model.Order) (*dto.WebhookResponse, error) {
	licenses, err := s.licenseRepo.FindByExternalOrderID(ctx, order.ExternalOrderID)
	if err != nil {
		return nil, fmt.Errorf("load licenses for order %s: %w", order.ExternalOrderID, err)
	}

	return &dto.WebhookResponse{
		Success:    true,
		Message:    "order processed",
		OrderID:    order.ExternalOrderID,
		LicenseIDs: licenseIDs(licenses),
	}, nil
}

func (s *webhookServiceImpl) sendReceipt(ctx context.Context, order *model.Order, template *model.Template, licenses []*model.License) {
	keys := make([]string, len(licenses))
	for i, license := range licenses {
		keys[i] = license.Key
	}

	subject, body := mailer.LicenseReceipt(order.CustomerName, template.Name, keys, order.Total, order.Currency)
	if err := s.mailer.Send(ctx, order.CustomerEmail, subject, body); err != nil {
		// Entitlement is already durable; mail failure is logged, not fatal.
		log.Printf("send receipt for order %s: %v", order.ExternalOrderID, err)
	}
}

func licenseIDs(licenses []*model.License) []string {
	ids := make([]string, len(licenses))
	for i, license := range licenses {
		ids[i] = license.ID
	}
	return ids
}
