package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"templatestore-backend/internal/dto"
	"templatestore-backend/internal/service"
	"templatestore-backend/internal/webhook"

	"github.com/labstack/echo/v4"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

func (h *WebhookHandler) PaymentWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	// The raw bytes are what the signature covers; keep them unparsed
	// until verification is done.
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, &dto.WebhookResponse{
			Success: false,
			Message: "could not read request body",
			Error:   "read_failed",
		})
	}

	signature := c.Request().Header.Get(webhook.SignatureHeader)

	resp, err := h.webhookService.HandleWebhook(ctx, body, signature)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *WebhookHandler) errorResponse(c echo.Context, err error) error {
	var decodeErr *webhook.DecodeError
	var partialErr *service.PartialIssuanceError

	switch {
	case errors.Is(err, service.ErrSignatureInvalid):
		// No payload details in the log, just the source.
		log.Printf("webhook rejected: bad signature from %s", c.RealIP())
		return c.JSON(http.StatusUnauthorized, &dto.WebhookResponse{
			Success: false,
			Message: "signature verification failed",
			Error:   "authentication_failed",
		})

	case errors.As(err, &decodeErr):
		return c.JSON(http.StatusBadRequest, &dto.WebhookResponse{
			Success: false,
			Message: decodeErr.Reason,
			Error:   "decode_failed",
		})

	case errors.Is(err, service.ErrTemplateNotFound):
		log.Printf("webhook resolution failure: %v", err)
		return c.JSON(http.StatusBadRequest, &dto.WebhookResponse{
			Success: false,
			Message: "no template is configured for the purchased product",
			Error:   "resolution_failed",
		})

	case errors.Is(err, service.ErrOrderNotFound):
		log.Printf("webhook ordering anomaly: %v", err)
		return c.JSON(http.StatusBadRequest, &dto.WebhookResponse{
			Success: false,
			Message: "order is not known to this service",
			Error:   "order_not_found",
		})

	case errors.As(err, &partialErr):
		log.Printf("webhook partial issuance, operator attention required: %v", partialErr)
		return c.JSON(http.StatusInternalServerError, &dto.WebhookResponse{
			Success: false,
			Message: "order recorded but license issuance failed; manual reconciliation required",
			OrderID: partialErr.ExternalOrderID,
			Error:   "partial_issuance",
		})

	default:
		log.Printf("webhook processing failed: %v", err)
		return c.JSON(http.StatusInternalServerError, &dto.WebhookResponse{
			Success: false,
			Message: "internal error, delivery can be retried",
			Error:   "internal_error",
		})
	}
}
