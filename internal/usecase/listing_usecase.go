package usecase

import (
	"context"
	"log"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"
)

// IListingUseCase is the read side of the catalog: every listing goes
// through the visibility rules before it reaches the store.
type IListingUseCase interface {
	ListServices(ctx context.Context, actor entities.Actor, name string, page entities.PageRequest) (entities.Page[entities.Service], error)
	ListRequests(ctx context.Context, actor entities.Actor, page entities.PageRequest) (entities.Page[entities.Request], error)
}

type ListingUseCase struct {
	services interfaces.IServiceRepository
	requests interfaces.IRequestRepository
}

var _ IListingUseCase = (*ListingUseCase)(nil)

func NewListingUseCase(services interfaces.IServiceRepository, requests interfaces.IRequestRepository) *ListingUseCase {
	return &ListingUseCase{services: services, requests: requests}
}

func (u *ListingUseCase) ListServices(ctx context.Context, actor entities.Actor, name string, page entities.PageRequest) (entities.Page[entities.Service], error) {
	filter, err := ServiceScope(actor, name)
	if err != nil {
		return entities.Page[entities.Service]{}, err
	}
	page = page.Normalize()
	out, err := u.services.List(ctx, filter, page)
	if err != nil {
		log.Printf("[listing][usecase] list services failed actor_id=%s err=%v", actor.ID, err)
		return entities.Page[entities.Service]{}, err
	}
	return out, nil
}

func (u *ListingUseCase) ListRequests(ctx context.Context, actor entities.Actor, page entities.PageRequest) (entities.Page[entities.Request], error) {
	filter, ownedServices, err := RequestScope(actor)
	if err != nil {
		return entities.Page[entities.Request]{}, err
	}
	page = page.Normalize()
	if ownedServices {
		ids, err := u.providerServiceIDs(ctx, actor.ID)
		if err != nil {
			return entities.Page[entities.Request]{}, err
		}
		if len(ids) == 0 {
			return entities.Paginate([]entities.Request{}, page), nil
		}
		filter.ServiceIDs = ids
	}
	out, err := u.requests.List(ctx, filter, page)
	if err != nil {
		log.Printf("[listing][usecase] list requests failed actor_id=%s err=%v", actor.ID, err)
		return entities.Page[entities.Request]{}, err
	}
	return out, nil
}

// providerServiceIDs pages through every service the provider owns.
func (u *ListingUseCase) providerServiceIDs(ctx context.Context, providerID string) ([]string, error) {
	var ids []string
	req := entities.NewPageRequest(0, entities.MaxPageSize)
	for {
		page, err := u.services.List(ctx, entities.ServiceFilter{ProviderID: providerID}, req)
		if err != nil {
			return nil, err
		}
		for _, s := range page.Items {
			ids = append(ids, s.ID)
		}
		if len(page.Items) < req.Size || (req.Page+1)*req.Size >= page.Total {
			return ids, nil
		}
		req.Page++
	}
}
