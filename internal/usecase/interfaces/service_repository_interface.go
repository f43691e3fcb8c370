package interfaces

import (
	"context"
	"serviexpress/internal/domain/entities"
)

// IServiceRepository abstracts persistence for Service.
//
// Conventions:
//   - GetByID returns the zero Service and a nil error when the id is unknown.
//   - Update writes only when the stored version equals s.Version and returns
//     the entity with the bumped version; otherwise ErrStaleWrite.
//   - Delete returns ErrInUse while requests reference the service.

type IServiceRepository interface {
	Create(ctx context.Context, s entities.Service) (entities.Service, error)
	GetByID(ctx context.Context, id string) (entities.Service, error)
	List(ctx context.Context, filter entities.ServiceFilter, page entities.PageRequest) (entities.Page[entities.Service], error)
	Update(ctx context.Context, s entities.Service) (entities.Service, error)
	Delete(ctx context.Context, id string) error
}
