package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
)

var ErrExternalFetcherNotConfigured = errors.New("external service fetcher not configured")

// ServiceInput is a partial service write: nil fields are left untouched.
type ServiceInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Status      *entities.ServiceStatus
	ProviderID  *string
	ClientID    *string
}

// IServiceUseCase exposes the service mutation API.
//
//   - providers and admins create services (providers always own what they create);
//   - providers edit and delete only their own services, admins any;
//   - status edits go through the lifecycle rules (activate, cancel, reject).
type IServiceUseCase interface {
	Create(ctx context.Context, actor entities.Actor, in ServiceInput) (entities.Service, error)
	Update(ctx context.Context, actor entities.Actor, id string, in ServiceInput) (entities.Service, error)
	Delete(ctx context.Context, actor entities.Actor, id string) error
	GetByID(ctx context.Context, actor entities.Actor, id string) (entities.Service, error)
	ImportExternal(ctx context.Context, actor entities.Actor, kind string) (entities.Service, error)
}

type ServiceUseCase struct {
	repo     interfaces.IServiceRepository
	users    interfaces.IUserDirectory
	external interfaces.IExternalServiceFetcher
	now      func() time.Time
}

var _ IServiceUseCase = (*ServiceUseCase)(nil)

func NewServiceUseCase(repo interfaces.IServiceRepository, users interfaces.IUserDirectory, external interfaces.IExternalServiceFetcher) *ServiceUseCase {
	return &ServiceUseCase{
		repo:     repo,
		users:    users,
		external: external,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *ServiceUseCase) Create(ctx context.Context, actor entities.Actor, in ServiceInput) (entities.Service, error) {
	if err := AuthorizeServiceCreate(actor); err != nil {
		return entities.Service{}, err
	}
	log.Printf("[service][usecase] create start actor_id=%s role=%s", actor.ID, actor.Role)

	v := newValidationError()
	svc := entities.Service{Status: entities.ServiceStatusPending}
	applyServiceFields(&svc, in)
	if in.Name == nil {
		v.add("name", "is required")
	}
	if in.Description == nil {
		v.add("description", "is required")
	}
	if in.Price == nil {
		v.add("price", "is required")
	}
	if in.Status != nil {
		switch *in.Status {
		case entities.ServiceStatusPending, entities.ServiceStatusAvailable:
			svc.Status = *in.Status
		default:
			v.add("status", "new services start as PENDING or AVAILABLE")
		}
	}
	if err := u.assignParties(ctx, actor, &svc, in, v); err != nil {
		return entities.Service{}, err
	}
	if err := mergeValidation(v, ValidateService(svc)); err != nil {
		return entities.Service{}, err
	}
	if err := v.orNil(); err != nil {
		log.Printf("[service][usecase] create rejected actor_id=%s err=%v", actor.ID, err)
		return entities.Service{}, err
	}

	now := u.now()
	svc.CreatedAt = now
	svc.UpdatedAt = now
	created, err := u.repo.Create(ctx, svc)
	if err != nil {
		log.Printf("[service][usecase] repository create failed err=%v", err)
		return entities.Service{}, err
	}
	log.Printf("[service][usecase] create success service_id=%s status=%s provider_id=%s", created.ID, created.Status, created.ProviderID)
	return created, nil
}

func (u *ServiceUseCase) Update(ctx context.Context, actor entities.Actor, id string, in ServiceInput) (entities.Service, error) {
	current, err := u.load(ctx, id)
	if err != nil {
		return entities.Service{}, err
	}
	if err := AuthorizeServiceWrite(actor, current); err != nil {
		return entities.Service{}, err
	}

	v := newValidationError()
	next := current
	applyServiceFields(&next, in)
	if in.Status != nil {
		if !in.Status.Valid() {
			v.add("status", "unknown status")
		} else if err := checkManualServiceTransition(actor, current.Status, *in.Status); err != nil {
			return entities.Service{}, err
		} else {
			next.Status = *in.Status
		}
	}
	if err := u.assignParties(ctx, actor, &next, in, v); err != nil {
		return entities.Service{}, err
	}
	if err := mergeValidation(v, ValidateService(next)); err != nil {
		return entities.Service{}, err
	}
	if err := v.orNil(); err != nil {
		log.Printf("[service][usecase] update rejected service_id=%s err=%v", current.ID, err)
		return entities.Service{}, err
	}

	next.UpdatedAt = u.now()
	updated, err := u.repo.Update(ctx, next)
	if errors.Is(err, interfaces.ErrStaleWrite) {
		log.Printf("[service][usecase] update lost race service_id=%s", current.ID)
		return entities.Service{}, ErrConcurrentUpdate
	}
	if err != nil {
		return entities.Service{}, err
	}
	log.Printf("[service][usecase] update success service_id=%s status=%s version=%d", updated.ID, updated.Status, updated.Version)
	return updated, nil
}

func (u *ServiceUseCase) Delete(ctx context.Context, actor entities.Actor, id string) error {
	current, err := u.load(ctx, id)
	if err != nil {
		return err
	}
	if err := AuthorizeServiceWrite(actor, current); err != nil {
		return err
	}

	err = u.repo.Delete(ctx, current.ID)
	if errors.Is(err, interfaces.ErrInUse) {
		log.Printf("[service][usecase] delete refused service_id=%s reason=in-use", current.ID)
		return ErrServiceInUse
	}
	if err != nil {
		return err
	}
	log.Printf("[service][usecase] delete success service_id=%s", current.ID)
	return nil
}

// GetByID hides services outside the actor's read scope behind NotFound.
func (u *ServiceUseCase) GetByID(ctx context.Context, actor entities.Actor, id string) (entities.Service, error) {
	if !actor.Authenticated() {
		return entities.Service{}, ErrUnauthenticated
	}
	svc, err := u.load(ctx, id)
	if err != nil {
		return entities.Service{}, err
	}
	if !CanReadService(actor, svc) {
		return entities.Service{}, ErrServiceNotFound
	}
	return svc, nil
}

// ImportExternal builds a service from the external catalog and saves it.
// Imported services start PENDING unless the catalog says AVAILABLE and the
// importer is a provider (who becomes the owner).
func (u *ServiceUseCase) ImportExternal(ctx context.Context, actor entities.Actor, kind string) (entities.Service, error) {
	if err := AuthorizeServiceCreate(actor); err != nil {
		return entities.Service{}, err
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return entities.Service{}, &ValidationError{Fields: map[string]string{"kind": "must not be blank"}}
	}
	if u.external == nil {
		return entities.Service{}, ErrExternalFetcherNotConfigured
	}

	log.Printf("[service][usecase] import start kind=%s actor_id=%s", kind, actor.ID)
	fetched, err := u.external.FetchService(ctx, kind)
	if err != nil {
		log.Printf("[service][usecase] import fetch failed kind=%s err=%v", kind, err)
		return entities.Service{}, err
	}

	svc := entities.Service{
		Name:        fetched.Name,
		Description: fetched.Description,
		Price:       fetched.Price,
		Status:      fetched.Status,
	}
	if actor.Role == entities.RoleProvider {
		svc.ProviderID = actor.ID
	}
	if svc.Status != entities.ServiceStatusAvailable || svc.ProviderID == "" {
		svc.Status = entities.ServiceStatusPending
	}
	if err := ValidateService(svc); err != nil {
		log.Printf("[service][usecase] import rejected kind=%s err=%v", kind, err)
		return entities.Service{}, err
	}

	now := u.now()
	svc.CreatedAt = now
	svc.UpdatedAt = now
	created, err := u.repo.Create(ctx, svc)
	if err != nil {
		return entities.Service{}, err
	}
	log.Printf("[service][usecase] import success kind=%s service_id=%s status=%s", kind, created.ID, created.Status)
	return created, nil
}

func (u *ServiceUseCase) load(ctx context.Context, id string) (entities.Service, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Service{}, ErrInvalidServiceID
	}
	svc, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Service{}, err
	}
	if svc.ID == "" {
		return entities.Service{}, ErrServiceNotFound
	}
	return svc, nil
}

// assignParties applies the ownership rule: providers always own what they
// write, admins may point provider_id and client_id at existing users of the
// matching role.
func (u *ServiceUseCase) assignParties(ctx context.Context, actor entities.Actor, svc *entities.Service, in ServiceInput, v *ValidationError) error {
	switch actor.Role {
	case entities.RoleProvider:
		svc.ProviderID = actor.ID
		return nil
	case entities.RoleAdmin:
		if in.ProviderID != nil {
			id, err := u.resolveUser(ctx, *in.ProviderID, entities.RoleProvider)
			if err != nil {
				return err
			}
			if id == "" && strings.TrimSpace(*in.ProviderID) != "" {
				v.add("provider_id", "must reference an existing provider")
			} else {
				svc.ProviderID = id
			}
		}
		if in.ClientID != nil {
			id, err := u.resolveUser(ctx, *in.ClientID, entities.RoleClient)
			if err != nil {
				return err
			}
			if id == "" && strings.TrimSpace(*in.ClientID) != "" {
				v.add("client_id", "must reference an existing client")
			} else {
				svc.ClientID = id
			}
		}
		return nil
	}
	return ErrForbidden
}

// resolveUser returns the trimmed id when it names a user with the given
// role, "" otherwise (also for a blank id, which clears the association).
func (u *ServiceUseCase) resolveUser(ctx context.Context, rawID string, role entities.Role) (string, error) {
	id := strings.TrimSpace(rawID)
	if id == "" {
		return "", nil
	}
	if u.users == nil {
		return "", errors.New("user directory not configured")
	}
	user, err := u.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if user.ID == "" || user.Role != role {
		return "", nil
	}
	return user.ID, nil
}

func applyServiceFields(svc *entities.Service, in ServiceInput) {
	if in.Name != nil {
		svc.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		svc.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		svc.Price = *in.Price
	}
}
