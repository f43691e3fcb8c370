package response

import (
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase"
)

type PaymentResponse struct {
	PaymentID   string    `json:"payment_id"`
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	PaymentDate time.Time `json:"payment_date"`
	Status      string    `json:"status"`

	ProviderPayloadRaw string                 `json:"provider_payload_raw,omitempty"`
	ProviderPayload    map[string]interface{} `json:"provider_payload,omitempty"`
}

func FromPayment(p entities.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:          p.ID,
		ID:                 p.ID,
		RequestID:          p.RequestID,
		PaymentDate:        p.Date,
		Status:             string(p.Status),
		ProviderPayloadRaw: string(p.ProviderPayloadRaw),
		ProviderPayload:    p.ProviderPayload,
	}
}

func FromPayments(list []entities.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, FromPayment(p))
	}
	return out
}

// CheckoutResponse reports the payment and where it left the request.
type CheckoutResponse struct {
	Payment PaymentResponse `json:"payment"`
	Request RequestResponse `json:"request"`
	Service ServiceResponse `json:"service"`
}

func FromCheckout(c usecase.Checkout) CheckoutResponse {
	return CheckoutResponse{
		Payment: FromPayment(c.Payment),
		Request: FromRequest(c.Request),
		Service: FromService(c.Service),
	}
}

// WebhookResponse acknowledges a verified delivery.
type WebhookResponse struct {
	Status        string `json:"status"`
	Event         string `json:"event"`
	RequestID     string `json:"request_id"`
	Applied       bool   `json:"applied"`
	RequestStatus string `json:"request_status,omitempty"`
	ServiceStatus string `json:"service_status,omitempty"`
}

func FromWebhookOutcome(o usecase.WebhookOutcome) WebhookResponse {
	status := "processed"
	switch {
	case o.Ignored:
		status = "ignored"
	case !o.Applied:
		status = "duplicate"
	}
	return WebhookResponse{
		Status:        status,
		Event:         o.Event.Type,
		RequestID:     o.Event.RequestID,
		Applied:       o.Applied,
		RequestStatus: string(o.RequestStatus),
		ServiceStatus: string(o.ServiceStatus),
	}
}
