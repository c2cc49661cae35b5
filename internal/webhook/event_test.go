package webhook

import (
	"testing"

	"templatestore-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent_OrderCreated(t *testing.T) {
	body := []byte(`{
		"meta": {"event_name": "order_created"},
		"data": {
			"id": "ord_1",
			"attributes": {
				"identifier": "inv_9",
				"status": "paid",
				"total": 2900,
				"currency": "USD",
				"user_email": "a@x.com",
				"user_name": "Ada Lovelace",
				"license_type": "single",
				"first_order_item": {"product_id": "42", "variant_id": "4201"}
			}
		}
	}`)

	event, err := DecodeEvent(body)
	require.NoError(t, err)

	assert.Equal(t, EventOrderCreated, event.Name)
	assert.Equal(t, "ord_1", event.ExternalOrderID)
	assert.Equal(t, "inv_9", event.Attributes.Identifier)
	assert.Equal(t, "paid", event.Attributes.Status)
	assert.Equal(t, int64(2900), event.Attributes.Total)
	assert.Equal(t, "a@x.com", event.Attributes.UserEmail)
	assert.Equal(t, "42", event.Attributes.FirstOrderItem.ProductID)
	assert.Equal(t, "4201", event.Attributes.FirstOrderItem.VariantID)
	assert.NotEmpty(t, event.RawAttributes)
}

func TestDecodeEvent_UnknownEventName(t *testing.T) {
	body := []byte(`{"meta":{"event_name":"subscription_created"},"data":{"id":"sub_1"}}`)

	event, err := DecodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventOther, event.Name)
}

func TestDecodeEvent_StructuralFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing event name", `{"meta":{},"data":{"id":"ord_1"}}`},
		{"missing order id", `{"meta":{"event_name":"order_created"},"data":{"attributes":{"user_email":"a@x.com"}}}`},
		{"negative total", `{"meta":{"event_name":"order_created"},"data":{"id":"ord_1","attributes":{"total":-1,"user_email":"a@x.com"}}}`},
		{"unknown license type", `{"meta":{"event_name":"order_created"},"data":{"id":"ord_1","attributes":{"license_type":"site-wide","user_email":"a@x.com"}}}`},
		{"missing email on create", `{"meta":{"event_name":"order_created"},"data":{"id":"ord_1","attributes":{"total":100}}}`},
		{"malformed attributes", `{"meta":{"event_name":"order_updated"},"data":{"id":"ord_1","attributes":[1,2]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tt.body))
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestDecodeEvent_UpdateWithoutEmail(t *testing.T) {
	// user_email is only required for order_created.
	body := []byte(`{"meta":{"event_name":"order_updated"},"data":{"id":"ord_1","attributes":{"status":"refunded"}}}`)

	event, err := DecodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventOrderUpdated, event.Name)
	assert.Equal(t, "refunded", event.Attributes.Status)
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		status   string
		refunded bool
		want     model.OrderStatus
	}{
		{"pending", false, model.OrderPending},
		{"processing", false, model.OrderProcessing},
		{"paid", false, model.OrderCompleted},
		{"Paid", false, model.OrderCompleted},
		{"completed", false, model.OrderCompleted},
		{"cancelled", false, model.OrderCancelled},
		{"canceled", false, model.OrderCancelled},
		{"refunded", false, model.OrderRefunded},
		{"something_new", false, model.OrderPending},
		{"", false, model.OrderPending},
		{"paid", true, model.OrderRefunded},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapStatus(tt.status, tt.refunded), "status=%q refunded=%v", tt.status, tt.refunded)
	}
}

func TestParseLicenseType(t *testing.T) {
	for input, want := range map[string]model.LicenseType{
		"":         model.LicenseSingle,
		"single":   model.LicenseSingle,
		"SINGLE":   model.LicenseSingle,
		"extended": model.LicenseExtended,
		"Extended": model.LicenseExtended,
	} {
		got, err := ParseLicenseType(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLicenseType("enterprise")
	assert.Error(t, err)
}
