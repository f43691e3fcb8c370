package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
)

const (
	maxNameLength            = 200
	maxDescriptionLength     = 200
	maxDetailsLength         = 500
	maxDeliveryAddressLength = 180
	maxPriceFractionDigits   = 2

	defaultTransitionAttempts = 3
)

// maxPriceExclusive is 10^12: prices have at most 12 integer digits.
var maxPriceExclusive = decimal.New(1, 12)

var serviceTransitions = map[entities.ServiceStatus][]entities.ServiceStatus{
	entities.ServiceStatusPending:   {entities.ServiceStatusAvailable, entities.ServiceStatusRejected, entities.ServiceStatusCancelled},
	entities.ServiceStatusAvailable: {entities.ServiceStatusBusy, entities.ServiceStatusCancelled},
	entities.ServiceStatusBusy:      {entities.ServiceStatusAvailable, entities.ServiceStatusCompleted, entities.ServiceStatusCancelled},
	entities.ServiceStatusAccepted:  {entities.ServiceStatusCancelled},
}

var requestTransitions = map[entities.RequestStatus][]entities.RequestStatus{
	entities.RequestStatusPending: {
		entities.RequestStatusPaymentInProgress,
		entities.RequestStatusPaymentAccepted,
		entities.RequestStatusPaymentDeclined,
		entities.RequestStatusCancelled,
	},
	entities.RequestStatusPaymentInProgress: {
		entities.RequestStatusPaymentAccepted,
		entities.RequestStatusPaymentDeclined,
		entities.RequestStatusCancelled,
	},
	entities.RequestStatusPaymentAccepted: {entities.RequestStatusInProgress, entities.RequestStatusCancelled},
	entities.RequestStatusInProgress:      {entities.RequestStatusFinalized, entities.RequestStatusCancelled},
}

func CanTransitionService(from, to entities.ServiceStatus) bool {
	for _, next := range serviceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanTransitionRequest(from, to entities.RequestStatus) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkManualServiceTransition guards status edits made through the
// mutation API. BUSY, COMPLETED and the BUSY->AVAILABLE release belong to
// request transitions and cannot be set by hand.
func checkManualServiceTransition(actor entities.Actor, from, to entities.ServiceStatus) error {
	if from == to {
		return nil
	}
	if !CanTransitionService(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidServiceTransition, from, to)
	}
	switch to {
	case entities.ServiceStatusAvailable:
		if from != entities.ServiceStatusPending {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidServiceTransition, from, to)
		}
	case entities.ServiceStatusRejected:
		if actor.Role != entities.RoleAdmin {
			return ErrForbidden
		}
	case entities.ServiceStatusCancelled:
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidServiceTransition, from, to)
	}
	return nil
}

// ValidateService checks the invariants every stored service must hold.
func ValidateService(s entities.Service) error {
	v := newValidationError()
	validateText(v, "name", s.Name, maxNameLength)
	validateText(v, "description", s.Description, maxDescriptionLength)
	validatePrice(v, s.Price)
	if !s.Status.Valid() {
		v.add("status", "unknown status")
	}
	if s.Status == entities.ServiceStatusAvailable && strings.TrimSpace(s.ProviderID) == "" {
		v.add("provider_id", "a provider is required before the service becomes AVAILABLE")
	}
	return v.orNil()
}

func validateText(v *ValidationError, field, value string, max int) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "must not be blank")
		return
	}
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

func validatePrice(v *ValidationError, price decimal.Decimal) {
	if price.IsNegative() {
		v.add("price", "must not be negative")
		return
	}
	if price.Cmp(maxPriceExclusive) >= 0 {
		v.add("price", "must have at most 12 integer digits")
		return
	}
	if !price.Round(maxPriceFractionDigits).Equal(price) {
		v.add("price", "must have at most 2 decimal places")
	}
}

func validateRequestFields(r entities.Request) error {
	v := newValidationError()
	if utf8.RuneCountInString(r.Details) > maxDetailsLength {
		v.add("details", fmt.Sprintf("must be at most %d characters", maxDetailsLength))
	}
	if utf8.RuneCountInString(r.DeliveryAddress) > maxDeliveryAddressLength {
		v.add("delivery_address", fmt.Sprintf("must be at most %d characters", maxDeliveryAddressLength))
	}
	return v.orNil()
}

// TransitionResult is the outcome of a request transition. Applied is false
// when the request already was in the target status (idempotent replay).
type TransitionResult struct {
	Request entities.Request
	Service entities.Service
	Applied bool
}

// LifecycleEngine applies request transitions together with the coupled
// service transition. It never holds a lock across I/O: it reads both
// entities, computes their next values and commits conditionally on the
// observed versions, re-reading on a stale write.
type LifecycleEngine struct {
	services    interfaces.IServiceRepository
	requests    interfaces.IRequestRepository
	store       interfaces.ITransitionStore
	now         func() time.Time
	maxAttempts int
}

func NewLifecycleEngine(services interfaces.IServiceRepository, requests interfaces.IRequestRepository, store interfaces.ITransitionStore) *LifecycleEngine {
	return &LifecycleEngine{
		services:    services,
		requests:    requests,
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		maxAttempts: defaultTransitionAttempts,
	}
}

// TransitionRequest moves a request to target. mutate, when given, edits
// the next request value inside the same conditional write.
func (e *LifecycleEngine) TransitionRequest(
	ctx context.Context,
	requestID string,
	target entities.RequestStatus,
	mutate func(next *entities.Request) error,
) (TransitionResult, error) {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return TransitionResult{}, err
		}
		req, err := e.requests.GetByID(ctx, requestID)
		if err != nil {
			return TransitionResult{}, err
		}
		if req.ID == "" {
			return TransitionResult{}, ErrRequestNotFound
		}
		svc, err := e.services.GetByID(ctx, req.ServiceID)
		if err != nil {
			return TransitionResult{}, err
		}
		if svc.ID == "" {
			log.Printf("[lifecycle][engine] dangling request request_id=%s service_id=%s", req.ID, req.ServiceID)
			return TransitionResult{}, ErrServiceNotFound
		}

		if req.Status == target {
			log.Printf("[lifecycle][engine] no-op request_id=%s status=%s", req.ID, req.Status)
			return TransitionResult{Request: req, Service: svc, Applied: false}, nil
		}
		if !CanTransitionRequest(req.Status, target) {
			return TransitionResult{}, fmt.Errorf("%w: %s -> %s", ErrInvalidRequestTransition, req.Status, target)
		}

		now := e.now()
		next := req
		next.Status = target
		next.UpdatedAt = now
		if mutate != nil {
			if err := mutate(&next); err != nil {
				return TransitionResult{}, err
			}
		}

		nextSvc, touched, err := coupledServiceTransition(svc, req.ID, target)
		if err != nil {
			log.Printf("[lifecycle][engine] coupled transition rejected request_id=%s service_id=%s service_status=%s err=%v", req.ID, svc.ID, svc.Status, err)
			return TransitionResult{}, err
		}
		var svcArg *entities.Service
		if touched {
			nextSvc.UpdatedAt = now
			if err := ValidateService(nextSvc); err != nil {
				return TransitionResult{}, err
			}
			svcArg = &nextSvc
		}

		if err := ctx.Err(); err != nil {
			log.Printf("[lifecycle][engine] context done before commit request_id=%s err=%v", req.ID, err)
			return TransitionResult{}, err
		}
		err = e.store.CommitTransition(ctx, next, svcArg)
		if errors.Is(err, interfaces.ErrStaleWrite) {
			log.Printf("[lifecycle][engine] stale write request_id=%s attempt=%d", req.ID, attempt)
			continue
		}
		if err != nil {
			log.Printf("[lifecycle][engine] commit failed request_id=%s err=%v", req.ID, err)
			return TransitionResult{}, err
		}

		next.Version++
		if touched {
			nextSvc.Version++
		} else {
			nextSvc = svc
		}
		log.Printf("[lifecycle][engine] transition applied request_id=%s %s->%s service_id=%s service_status=%s", req.ID, req.Status, target, nextSvc.ID, nextSvc.Status)
		return TransitionResult{Request: next, Service: nextSvc, Applied: true}, nil
	}
	return TransitionResult{}, ErrConcurrentUpdate
}

// coupledServiceTransition computes the service side effect of a request
// reaching target. touched is false when the service stays as it is.
func coupledServiceTransition(svc entities.Service, requestID string, target entities.RequestStatus) (entities.Service, bool, error) {
	claimedByThis := svc.Status == entities.ServiceStatusBusy && svc.ClaimedBy == requestID

	switch target {
	case entities.RequestStatusPaymentAccepted:
		if !CanTransitionService(svc.Status, entities.ServiceStatusBusy) {
			return svc, false, ErrServiceAlreadyClaimed
		}
		svc.Status = entities.ServiceStatusBusy
		svc.ClaimedBy = requestID
		return svc, true, nil
	case entities.RequestStatusFinalized:
		if claimedByThis {
			svc.Status = entities.ServiceStatusCompleted
			return svc, true, nil
		}
	case entities.RequestStatusCancelled, entities.RequestStatusPaymentDeclined:
		if claimedByThis {
			svc.Status = entities.ServiceStatusAvailable
			svc.ClaimedBy = ""
			return svc, true, nil
		}
	}
	return svc, false, nil
}
