package interfaces

import (
	"context"
	"serviexpress/internal/domain/entities"
)

// IRequestRepository abstracts persistence for Request.
//
// Same conventions as IServiceRepository. CountByServiceID is served by the
// service_id reverse index. Delete is conditional on expectedVersion and
// returns ErrStaleWrite when the stored request has moved on.

type IRequestRepository interface {
	Create(ctx context.Context, r entities.Request) (entities.Request, error)
	GetByID(ctx context.Context, id string) (entities.Request, error)
	List(ctx context.Context, filter entities.RequestFilter, page entities.PageRequest) (entities.Page[entities.Request], error)
	Update(ctx context.Context, r entities.Request) (entities.Request, error)
	Delete(ctx context.Context, id string, expectedVersion int64) error
	CountByServiceID(ctx context.Context, serviceID string) (int, error)
}

// ITransitionStore persists a coupled request/service transition atomically.
//
// Both writes are conditional on the versions carried by the arguments.
// svc may be nil when the transition does not touch the service. On success
// the stored versions are bumped by one; on any version mismatch nothing is
// written and ErrStaleWrite is returned.
type ITransitionStore interface {
	CommitTransition(ctx context.Context, r entities.Request, svc *entities.Service) error
}
