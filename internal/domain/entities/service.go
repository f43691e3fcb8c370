package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceStatus represents the availability lifecycle of a listed service.
//
// Domain notes:
//   - PENDING is the default for new listings.
//   - BUSY is only reachable through a request claim (payment accepted).
//   - CANCELLED, REJECTED and COMPLETED are terminal.
//   - ACCEPTED is kept for stored data compatibility and has no inbound transition.

type ServiceStatus string

const (
	ServiceStatusPending   ServiceStatus = "PENDING"
	ServiceStatusAvailable ServiceStatus = "AVAILABLE"
	ServiceStatusBusy      ServiceStatus = "BUSY"
	ServiceStatusAccepted  ServiceStatus = "ACCEPTED"
	ServiceStatusRejected  ServiceStatus = "REJECTED"
	ServiceStatusCancelled ServiceStatus = "CANCELLED"
	ServiceStatusCompleted ServiceStatus = "COMPLETED"
)

var serviceStatuses = []ServiceStatus{
	ServiceStatusPending,
	ServiceStatusAvailable,
	ServiceStatusBusy,
	ServiceStatusAccepted,
	ServiceStatusRejected,
	ServiceStatusCancelled,
	ServiceStatusCompleted,
}

// ServiceStatuses lists every known status in declaration order.
func ServiceStatuses() []ServiceStatus {
	out := make([]ServiceStatus, len(serviceStatuses))
	copy(out, serviceStatuses)
	return out
}

func (s ServiceStatus) Valid() bool {
	for _, known := range serviceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s ServiceStatus) Terminal() bool {
	switch s {
	case ServiceStatusCancelled, ServiceStatusRejected, ServiceStatusCompleted:
		return true
	}
	return false
}

// Service is an offering listed by a provider.
//
// Storage model (DynamoDB):
//   - PK: id
//   - name_lower is persisted alongside name for case-insensitive search.
//
// ClaimedBy holds the id of the request that moved the service to BUSY.
// Version is bumped on every write and used for optimistic concurrency.
type Service struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Status      ServiceStatus   `json:"status"`
	ProviderID  string          `json:"provider_id,omitempty"`
	ClientID    string          `json:"client_id,omitempty"`
	ClaimedBy   string          `json:"claimed_by,omitempty"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
