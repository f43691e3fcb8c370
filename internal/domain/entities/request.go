package entities

import "time"

// RequestStatus is the fulfillment state of a request (solicitud).
//
// Stored as a short free-form code; only the values below take part in
// transitions. PAYMENT_DECLINED, FINALIZED and CANCELLED are terminal.

type RequestStatus string

const (
	RequestStatusPending           RequestStatus = "PENDING"
	RequestStatusPaymentInProgress RequestStatus = "PAYMENT_IN_PROGRESS"
	RequestStatusPaymentAccepted   RequestStatus = "PAYMENT_ACCEPTED"
	RequestStatusPaymentDeclined   RequestStatus = "PAYMENT_DECLINED"
	RequestStatusInProgress        RequestStatus = "IN_PROGRESS"
	RequestStatusFinalized         RequestStatus = "FINALIZED"
	RequestStatusCancelled         RequestStatus = "CANCELLED"
)

func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestStatusPaymentDeclined, RequestStatusFinalized, RequestStatusCancelled:
		return true
	}
	return false
}

// Request is a client's claim against a service.
//
// The request references its service by id only; the reverse lookup
// (requests of a service) is an index maintained by the catalog store.
// PaymentID is write-once.
type Request struct {
	ID              string        `json:"id"`
	ServiceID       string        `json:"service_id"`
	ClientID        string        `json:"client_id"`
	Date            time.Time     `json:"date"`
	Status          RequestStatus `json:"status"`
	Details         string        `json:"details,omitempty"`
	DeliveryAddress string        `json:"delivery_address,omitempty"`
	EstimatedDate   *time.Time    `json:"estimated_date,omitempty"`
	PaymentID       string        `json:"payment_id,omitempty"`
	Version         int64         `json:"version"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
