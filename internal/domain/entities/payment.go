package entities

import (
	"encoding/json"
	"time"
)

// PaymentStatus represents the gateway outcome of a request checkout.

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusDeclined PaymentStatus = "declined"
)

// PaymentStatusFromProvider normalizes a Mercado Pago status string.
func PaymentStatusFromProvider(providerStatus string) PaymentStatus {
	switch providerStatus {
	case "approved", "accredited":
		return PaymentStatusApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return PaymentStatusDeclined
	default:
		return PaymentStatusPending
	}
}

// Payment is the audit record of a gateway payment linked to a request.
//
// Storage model (DynamoDB):
//   - PK: id (provider payment id)
//   - GSI1 (request_id-index): request_id
//
// ProviderPayloadRaw keeps the original gateway response for traceability.
type Payment struct {
	ID        string        `json:"id"`
	RequestID string        `json:"request_id"`
	Date      time.Time     `json:"date"`
	Status    PaymentStatus `json:"status"`

	ProviderPayloadRaw json.RawMessage        `json:"provider_payload_raw,omitempty"`
	ProviderPayload    map[string]interface{} `json:"provider_payload,omitempty"`
}
