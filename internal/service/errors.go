package service

import (
	"errors"
	"fmt"
)

var (
	// ErrSignatureInvalid rejects a delivery before its body is decoded.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")
	// ErrTemplateNotFound means no catalog template matches the event's
	// product or variant id. Terminal for order_created.
	ErrTemplateNotFound = errors.New("no template matches the order line item")
	// ErrOrderNotFound means an update or refund arrived for an order this
	// service never created. Surfaced, not ignored, since it indicates an
	// ordering or data problem.
	ErrOrderNotFound = errors.New("order not found")
)

// PartialIssuanceError reports the one state that needs operator attention:
// the order row exists but license issuance failed, so money has moved and
// entitlement has not been granted.
type PartialIssuanceError struct {
	ExternalOrderID string
	Err             error
}

func (e *PartialIssuanceError) Error() string {
	return fmt.Sprintf("order %s created but license issuance failed: %v", e.ExternalOrderID, e.Err)
}

func (e *PartialIssuanceError) Unwrap() error {
	return e.Err
}
