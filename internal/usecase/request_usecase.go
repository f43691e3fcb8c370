package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"
)

// RequestInput carries the client supplied fields of a request. On update,
// nil fields are left untouched; ServiceID is only read on create.
type RequestInput struct {
	ServiceID       string
	Details         *string
	DeliveryAddress *string
	EstimatedDate   *time.Time
}

// IRequestUseCase exposes the request (solicitud) API.
//
//   - clients open requests against AVAILABLE services and edit or cancel their own;
//   - providers see requests for their services, set the estimated date and drive work;
//   - payment statuses are reached only through checkout and the webhook.
type IRequestUseCase interface {
	Create(ctx context.Context, actor entities.Actor, in RequestInput) (entities.Request, error)
	Update(ctx context.Context, actor entities.Actor, id string, in RequestInput) (entities.Request, error)
	GetByID(ctx context.Context, actor entities.Actor, id string) (entities.Request, error)
	Transition(ctx context.Context, actor entities.Actor, id string, target entities.RequestStatus) (TransitionResult, error)
	Delete(ctx context.Context, actor entities.Actor, id string) error
}

type RequestUseCase struct {
	requests interfaces.IRequestRepository
	services interfaces.IServiceRepository
	engine   *LifecycleEngine
	now      func() time.Time
}

var _ IRequestUseCase = (*RequestUseCase)(nil)

func NewRequestUseCase(requests interfaces.IRequestRepository, services interfaces.IServiceRepository, engine *LifecycleEngine) *RequestUseCase {
	return &RequestUseCase{
		requests: requests,
		services: services,
		engine:   engine,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *RequestUseCase) Create(ctx context.Context, actor entities.Actor, in RequestInput) (entities.Request, error) {
	if !actor.Authenticated() {
		return entities.Request{}, ErrUnauthenticated
	}
	serviceID := strings.TrimSpace(in.ServiceID)
	if serviceID == "" {
		return entities.Request{}, &ValidationError{Fields: map[string]string{"service_id": "is required"}}
	}
	log.Printf("[request][usecase] create start actor_id=%s service_id=%s", actor.ID, serviceID)

	svc, err := u.services.GetByID(ctx, serviceID)
	if err != nil {
		return entities.Request{}, err
	}
	if svc.ID == "" {
		return entities.Request{}, ErrServiceNotFound
	}
	if err := AuthorizeRequestCreate(actor, svc); err != nil {
		log.Printf("[request][usecase] create refused actor_id=%s service_id=%s err=%v", actor.ID, svc.ID, err)
		return entities.Request{}, err
	}

	now := u.now()
	req := entities.Request{
		ServiceID: svc.ID,
		ClientID:  actor.ID,
		Date:      now,
		Status:    entities.RequestStatusPending,
		UpdatedAt: now,
	}
	applyRequestFields(&req, in)
	if err := validateRequestFields(req); err != nil {
		return entities.Request{}, err
	}

	created, err := u.requests.Create(ctx, req)
	if errors.Is(err, interfaces.ErrStaleWrite) {
		// the service went away between the read and the write
		return entities.Request{}, ErrServiceNotFound
	}
	if err != nil {
		log.Printf("[request][usecase] repository create failed service_id=%s err=%v", svc.ID, err)
		return entities.Request{}, err
	}
	log.Printf("[request][usecase] create success request_id=%s service_id=%s client_id=%s", created.ID, created.ServiceID, created.ClientID)
	return created, nil
}

// Update edits the free-form fields. Clients (owners) and admins may edit
// details and address; providers may only set the estimated date of
// requests for their own services.
func (u *RequestUseCase) Update(ctx context.Context, actor entities.Actor, id string, in RequestInput) (entities.Request, error) {
	req, svc, err := u.load(ctx, actor, id)
	if err != nil {
		return entities.Request{}, err
	}
	if actor.Role == entities.RoleProvider {
		if in.Details != nil || in.DeliveryAddress != nil {
			return entities.Request{}, ErrForbidden
		}
	} else if err := AuthorizeRequestWrite(actor, req); err != nil {
		return entities.Request{}, err
	}
	if req.Status.Terminal() {
		return entities.Request{}, ErrRequestClosed
	}

	next := req
	applyRequestFields(&next, in)
	if err := validateRequestFields(next); err != nil {
		return entities.Request{}, err
	}
	next.UpdatedAt = u.now()

	updated, err := u.requests.Update(ctx, next)
	if errors.Is(err, interfaces.ErrStaleWrite) {
		log.Printf("[request][usecase] update lost race request_id=%s", req.ID)
		return entities.Request{}, ErrConcurrentUpdate
	}
	if err != nil {
		return entities.Request{}, err
	}
	log.Printf("[request][usecase] update success request_id=%s service_id=%s version=%d", updated.ID, svc.ID, updated.Version)
	return updated, nil
}

func (u *RequestUseCase) GetByID(ctx context.Context, actor entities.Actor, id string) (entities.Request, error) {
	req, _, err := u.load(ctx, actor, id)
	return req, err
}

// Transition applies a manual status change (start work, finalize, cancel).
func (u *RequestUseCase) Transition(ctx context.Context, actor entities.Actor, id string, target entities.RequestStatus) (TransitionResult, error) {
	req, svc, err := u.load(ctx, actor, id)
	if err != nil {
		return TransitionResult{}, err
	}
	if err := AuthorizeRequestTransition(actor, req, svc, target); err != nil {
		log.Printf("[request][usecase] transition refused request_id=%s actor_id=%s target=%s err=%v", req.ID, actor.ID, target, err)
		return TransitionResult{}, err
	}
	return u.engine.TransitionRequest(ctx, req.ID, target, nil)
}

// Delete removes a request that holds no claim and has no payment in
// flight: PENDING or terminal.
func (u *RequestUseCase) Delete(ctx context.Context, actor entities.Actor, id string) error {
	req, _, err := u.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := AuthorizeRequestWrite(actor, req); err != nil {
		return err
	}
	switch req.Status {
	case entities.RequestStatusPaymentInProgress:
		return ErrRequestPaymentPending
	case entities.RequestStatusPaymentAccepted, entities.RequestStatusInProgress:
		return ErrRequestActive
	}

	err = u.requests.Delete(ctx, req.ID, req.Version)
	if errors.Is(err, interfaces.ErrStaleWrite) {
		log.Printf("[request][usecase] delete lost a race request_id=%s version=%d", req.ID, req.Version)
		return ErrConcurrentUpdate
	}
	if err != nil {
		log.Printf("[request][usecase] delete failed request_id=%s err=%v", req.ID, err)
		return err
	}
	log.Printf("[request][usecase] delete success request_id=%s", req.ID)
	return nil
}

// load reads a request and its service and checks read access. Requests
// outside the actor's scope are reported as not found.
func (u *RequestUseCase) load(ctx context.Context, actor entities.Actor, id string) (entities.Request, entities.Service, error) {
	if !actor.Authenticated() {
		return entities.Request{}, entities.Service{}, ErrUnauthenticated
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Request{}, entities.Service{}, ErrInvalidRequestID
	}
	req, err := u.requests.GetByID(ctx, id)
	if err != nil {
		return entities.Request{}, entities.Service{}, err
	}
	if req.ID == "" {
		return entities.Request{}, entities.Service{}, ErrRequestNotFound
	}
	svc, err := u.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return entities.Request{}, entities.Service{}, err
	}
	if err := AuthorizeRequestRead(actor, req, svc); err != nil {
		if errors.Is(err, ErrForbidden) {
			return entities.Request{}, entities.Service{}, ErrRequestNotFound
		}
		return entities.Request{}, entities.Service{}, err
	}
	return req, svc, nil
}

func applyRequestFields(r *entities.Request, in RequestInput) {
	if in.Details != nil {
		r.Details = strings.TrimSpace(*in.Details)
	}
	if in.DeliveryAddress != nil {
		r.DeliveryAddress = strings.TrimSpace(*in.DeliveryAddress)
	}
	if in.EstimatedDate != nil {
		d := in.EstimatedDate.UTC()
		r.EstimatedDate = &d
	}
}
