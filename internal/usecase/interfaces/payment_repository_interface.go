package interfaces

import (
	"context"
	"serviexpress/internal/domain/entities"
)

// IPaymentRepository abstracts persistence of gateway payment audit records.

type IPaymentRepository interface {
	Create(ctx context.Context, p entities.Payment) (entities.Payment, error)
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	UpdateStatus(ctx context.Context, id string, status entities.PaymentStatus) (entities.Payment, error)
	ListByRequestID(ctx context.Context, requestID string) ([]entities.Payment, error)
}
