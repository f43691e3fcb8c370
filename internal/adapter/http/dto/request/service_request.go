package request

import (
	"strings"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase"

	"github.com/shopspring/decimal"
)

// ServiceCreateRequest is the payload to list a new service. Providers may
// omit provider_id; admins must send it.
type ServiceCreateRequest struct {
	Name        string           `json:"name" binding:"required,max=200"`
	Description string           `json:"description" binding:"required,max=200"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Status      string           `json:"status" binding:"omitempty,oneof=PENDING AVAILABLE"`
	ProviderID  string           `json:"provider_id"`
	ClientID    string           `json:"client_id"`
}

func (r ServiceCreateRequest) ToInput() usecase.ServiceInput {
	in := usecase.ServiceInput{
		Name:        &r.Name,
		Description: &r.Description,
		Price:       r.Price,
	}
	if s := strings.ToUpper(strings.TrimSpace(r.Status)); s != "" {
		status := entities.ServiceStatus(s)
		in.Status = &status
	}
	if v := strings.TrimSpace(r.ProviderID); v != "" {
		in.ProviderID = &v
	}
	if v := strings.TrimSpace(r.ClientID); v != "" {
		in.ClientID = &v
	}
	return in
}

// ServiceUpdateRequest is a partial edit: absent fields are left untouched.
type ServiceUpdateRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=200"`
	Price       *decimal.Decimal `json:"price"`
	Status      *string          `json:"status" binding:"omitempty,oneof=PENDING AVAILABLE BUSY ACCEPTED REJECTED CANCELLED COMPLETED"`
	ProviderID  *string          `json:"provider_id"`
	ClientID    *string          `json:"client_id"`
}

func (r ServiceUpdateRequest) ToInput() usecase.ServiceInput {
	in := usecase.ServiceInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ProviderID:  r.ProviderID,
		ClientID:    r.ClientID,
	}
	if r.Status != nil {
		status := entities.ServiceStatus(strings.ToUpper(strings.TrimSpace(*r.Status)))
		in.Status = &status
	}
	return in
}
