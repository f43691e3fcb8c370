package interfaces

import (
	"context"
	"serviexpress/internal/domain/entities"
)

// IExternalServiceFetcher is the inbound adapter that builds a Service from
// an external catalog. The returned value has no id and no owner.
type IExternalServiceFetcher interface {
	FetchService(ctx context.Context, kind string) (entities.Service, error)
}
