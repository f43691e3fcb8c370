package response

import (
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase"
)

type ServiceResponse struct {
	ServiceID   string    `json:"service_id"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Status      string    `json:"status"`
	ProviderID  string    `json:"provider_id,omitempty"`
	ClientID    string    `json:"client_id,omitempty"`
	ClaimedBy   string    `json:"claimed_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromService(s entities.Service) ServiceResponse {
	return ServiceResponse{
		ServiceID:   s.ID,
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price.StringFixed(2),
		Status:      string(s.Status),
		ProviderID:  s.ProviderID,
		ClientID:    s.ClientID,
		ClaimedBy:   s.ClaimedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

type RequestResponse struct {
	RequestID       string     `json:"request_id"`
	ID              string     `json:"id"`
	ServiceID       string     `json:"service_id"`
	ClientID        string     `json:"client_id"`
	Date            time.Time  `json:"date"`
	Status          string     `json:"status"`
	Details         string     `json:"details,omitempty"`
	DeliveryAddress string     `json:"delivery_address,omitempty"`
	EstimatedDate   *time.Time `json:"estimated_date,omitempty"`
	PaymentID       string     `json:"payment_id,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func FromRequest(r entities.Request) RequestResponse {
	return RequestResponse{
		RequestID:       r.ID,
		ID:              r.ID,
		ServiceID:       r.ServiceID,
		ClientID:        r.ClientID,
		Date:            r.Date,
		Status:          string(r.Status),
		Details:         r.Details,
		DeliveryAddress: r.DeliveryAddress,
		EstimatedDate:   r.EstimatedDate,
		PaymentID:       r.PaymentID,
		UpdatedAt:       r.UpdatedAt,
	}
}

// TransitionResponse carries both sides of a coupled transition.
type TransitionResponse struct {
	Request RequestResponse `json:"request"`
	Service ServiceResponse `json:"service"`
	Applied bool            `json:"applied"`
}

func FromTransition(res usecase.TransitionResult) TransitionResponse {
	return TransitionResponse{
		Request: FromRequest(res.Request),
		Service: FromService(res.Service),
		Applied: res.Applied,
	}
}

type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func FromPage[E any, T any](p entities.Page[E], convert func(E) T) PageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, convert(it))
	}
	totalPages := 0
	if p.Size > 0 {
		totalPages = (p.Total + p.Size - 1) / p.Size
	}
	return PageResponse[T]{Items: items, Page: p.Page, Size: p.Size, Total: p.Total, TotalPages: totalPages}
}
