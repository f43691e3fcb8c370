package request

import (
	"strings"
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase"
)

// RequestCreateRequest opens a request (solicitud) on a service.
type RequestCreateRequest struct {
	ServiceID       string     `json:"service_id" binding:"required"`
	Details         *string    `json:"details" binding:"omitempty,max=500"`
	DeliveryAddress *string    `json:"delivery_address" binding:"omitempty,max=180"`
	EstimatedDate   *time.Time `json:"estimated_date"`
}

func (r RequestCreateRequest) ToInput() usecase.RequestInput {
	return usecase.RequestInput{
		ServiceID:       strings.TrimSpace(r.ServiceID),
		Details:         r.Details,
		DeliveryAddress: r.DeliveryAddress,
		EstimatedDate:   r.EstimatedDate,
	}
}

// RequestUpdateRequest is a partial edit of a request.
type RequestUpdateRequest struct {
	Details         *string    `json:"details" binding:"omitempty,max=500"`
	DeliveryAddress *string    `json:"delivery_address" binding:"omitempty,max=180"`
	EstimatedDate   *time.Time `json:"estimated_date"`
}

func (r RequestUpdateRequest) ToInput() usecase.RequestInput {
	return usecase.RequestInput{
		Details:         r.Details,
		DeliveryAddress: r.DeliveryAddress,
		EstimatedDate:   r.EstimatedDate,
	}
}

// TransitionRequest asks for a request status change.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (r TransitionRequest) Target() entities.RequestStatus {
	return entities.RequestStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
}

// PageQuery binds the listing query string.
type PageQuery struct {
	Name string `form:"name"`
	Page int    `form:"page" binding:"gte=0"`
	Size int    `form:"size" binding:"gte=0,lte=100"`
}

func (q PageQuery) PageRequest() entities.PageRequest {
	return entities.NewPageRequest(q.Page, q.Size)
}
