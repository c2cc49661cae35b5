package webhook

import (
	"encoding/json"
	"fmt"
	"strings"

	"templatestore-backend/internal/model"
)

type EventName string

const (
	EventOrderCreated  EventName = "order_created"
	EventOrderUpdated  EventName = "order_updated"
	EventOrderRefunded EventName = "order_refunded"
	// EventOther covers processor event types this service does not act on.
	// They are acknowledged without side effects.
	EventOther EventName = "other"
)

// Event is the decoded, structurally validated notification. It is
// transient: nothing here is persisted directly.
type Event struct {
	Name            EventName
	ExternalOrderID string
	Attributes      OrderAttributes
	// RawAttributes keeps the processor's attribute JSON verbatim so the
	// order can store it as billing metadata.
	RawAttributes json.RawMessage
}

type OrderAttributes struct {
	Identifier     string    `json:"identifier"` // processor invoice id
	Status         string    `json:"status"`
	Total          int64     `json:"total"` // minor units
	Currency       string    `json:"currency"`
	UserEmail      string    `json:"user_email"`
	UserName       string    `json:"user_name"`
	Refunded       bool      `json:"refunded"`
	LicenseType    string    `json:"license_type"`
	FirstOrderItem OrderItem `json:"first_order_item"`
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

// DecodeError marks a structurally invalid event body. The coordinator
// treats it as terminal for the delivery (4xx-class).
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode webhook event: %s", e.Reason)
}

type envelope struct {
	Meta struct {
		EventName string `json:"event_name"`
	} `json:"meta"`
	Data struct {
		ID         string          `json:"id"`
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
}

// DecodeEvent parses a verified request body into a typed event. The body
// must already have passed signature verification.
func DecodeEvent(body []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Reason: "body is not valid JSON"}
	}

	if env.Meta.EventName == "" {
		return nil, &DecodeError{Reason: "meta.event_name is required"}
	}

	name := EventName(env.Meta.EventName)
	switch name {
	case EventOrderCreated, EventOrderUpdated, EventOrderRefunded:
	default:
		// Unknown event types are accepted for forward compatibility.
		return &Event{Name: EventOther}, nil
	}

	if env.Data.ID == "" {
		return nil, &DecodeError{Reason: "data.id (external order id) is required"}
	}

	event := &Event{
		Name:            name,
		ExternalOrderID: env.Data.ID,
		RawAttributes:   env.Data.Attributes,
	}

	if len(env.Data.Attributes) > 0 {
		if err := json.Unmarshal(env.Data.Attributes, &event.Attributes); err != nil {
			return nil, &DecodeError{Reason: "data.attributes is malformed"}
		}
	}

	if event.Attributes.Total < 0 {
		return nil, &DecodeError{Reason: "attributes.total must be non-negative"}
	}

	if _, err := ParseLicenseType(event.Attributes.LicenseType); err != nil {
		return nil, &DecodeError{Reason: err.Error()}
	}

	if name == EventOrderCreated && event.Attributes.UserEmail == "" {
		return nil, &DecodeError{Reason: "attributes.user_email is required for order_created"}
	}

	return event, nil
}

// ParseLicenseType maps the processor's license type string to the internal
// enum. Empty defaults to SINGLE; anything else unrecognized is a
// structural error.
func ParseLicenseType(s string) (model.LicenseType, error) {
	switch strings.ToUpper(s) {
	case "", "SINGLE":
		return model.LicenseSingle, nil
	case "EXTENDED":
		return model.LicenseExtended, nil
	default:
		return "", fmt.Errorf("attributes.license_type %q is not a known license type", s)
	}
}

// MapStatus translates the processor's status string into the internal
// order status. Unrecognized strings map to PENDING rather than erroring so
// new processor statuses do not break ingestion. A refunded flag always
// wins.
func MapStatus(status string, refunded bool) model.OrderStatus {
	if refunded {
		return model.OrderRefunded
	}

	switch strings.ToLower(status) {
	case "pending":
		return model.OrderPending
	case "processing":
		return model.OrderProcessing
	case "paid", "completed", "complete":
		return model.OrderCompleted
	case "cancelled", "canceled", "void":
		return model.OrderCancelled
	case "refunded", "partial_refund":
		return model.OrderRefunded
	default:
		return model.OrderPending
	}
}
