package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"
)

func TestRequestUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("client opens a request on an available service", func(t *testing.T) {
		f := newFixture(t)
		uc := NewRequestUseCase(f.store.Requests(), f.store.Services(), f.engine)
		svc := f.service(t, "Cleaning", entities.ServiceStatusAvailable, providerActor.ID)

		req, err := uc.Create(ctx, clientActor, RequestInput{ServiceID: svc.ID, Details: ptr("  two rooms "), DeliveryAddress: ptr("Calle 1")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.ID == "" || req.ClientID != clientActor.ID || req.Status != entities.RequestStatusPending || req.Details != "two rooms" {
			t.Fatalf("unexpected request %+v", req)
		}
		n, _ := f.store.Requests().CountByServiceID(ctx, svc.ID)
		if n != 1 {
			t.Fatalf("expected reverse index to hold the request, got %d", n)
		}
	})

	t.Run("non available service", func(t *testing.T) {
		f := newFixture(t)
		uc := NewRequestUseCase(f.store.Requests(), f.store.Services(), f.engine)
		svc := f.service(t, "Cleaning", entities.ServiceStatusBusy, providerActor.ID)

		if _, err := uc.Create(ctx, clientActor, RequestInput{ServiceID: svc.ID}); !errors.Is(err, ErrServiceNotAvailable) {
			t.Fatalf("expected ErrServiceNotAvailable, got %v", err)
		}
	})

	t.Run("guards", func(t *testing.T) {
		f := newFixture(t)
		uc := NewRequestUseCase(f.store.Requests(), f.store.Services(), f.engine)
		svc := f.service(t, "Cleaning", entities.ServiceStatusAvailable, providerActor.ID)

		if _, err := uc.Create(ctx, providerActor, RequestInput{ServiceID: svc.ID}); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if _, err := uc.Create(ctx, clientActor, RequestInput{ServiceID: "missing"}); !errors.Is(err, ErrServiceNotFound) {
			t.Fatalf("expected ErrServiceNotFound, got %v", err)
		}
		if _, err := uc.Create(ctx, clientActor, RequestInput{}); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		long := strings.Repeat("a", maxDetailsLength+1)
		if _, err := uc.Create(ctx, clientActor, RequestInput{ServiceID: svc.ID, Details: &long}); FieldErrors(err)["details"] == "" {
			t.Fatalf("expected details field error, got %v", err)
		}
		if _, err := uc.Create(ctx, anonymousActor, RequestInput{ServiceID: svc.ID}); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestRequestUseCase_ReadAndUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := NewRequestUseCase(f.store.Requests(), f.store.Services(), f.engine)
	svc := f.service(t, "Cleaning", entities.ServiceStatusAvailable, providerActor.ID)
	req := f.request(t, svc.ID, clientActor.ID, entities.RequestStatusPending)

	t.Run("other clients and providers do not see it", func(t *testing.T) {
		if _, err := uc.GetByID(ctx, otherClient, req.ID); !errors.Is(err, ErrRequestNotFound) {
			t.Fatalf("expected ErrRequestNotFound, got %v", err)
		}
		if _, err := uc.GetByID(ctx, otherProvider, req.ID); !errors.Is(err, ErrRequestNotFound) {
			t.Fatalf("expected ErrRequestNotFound, got %v", err)
		}
		if _, err := uc.GetByID(ctx, providerActor, req.ID); err != nil {
			t.Fatalf("expected service provider access, got %v", err)
		}
	})

	t.Run("client edits details", func(t *testing.T) {
		updated, err := uc.Update(ctx, clientActor, req.ID, RequestInput{Details: ptr("ring twice")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Details != "ring twice" || updated.ServiceID != svc.ID {
			t.Fatalf("unexpected update %+v", updated)
		}
	})

	t.Run("provider may only set the estimated date", func(t *testing.T) {
		when := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
		updated, err := uc.Update(ctx, providerActor, req.ID, RequestInput{EstimatedDate: &when})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.EstimatedDate == nil || !updated.EstimatedDate.Equal(when) || updated.Details != "ring twice" {
			t.Fatalf("unexpected update %+v", updated)
		}
		if _, err := uc.Update(ctx, providerActor, req.ID, RequestInput{Details: ptr("x")}); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("closed requests are read only", func(t *testing.T) {
		closed := f.request(t, svc.ID, clientActor.ID, entities.RequestStatusCancelled)
		if _, err := uc.Update(ctx, clientActor, closed.ID, RequestInput{Details: ptr("x")}); !errors.Is(err, ErrRequestClosed) {
			t.Fatalf("expected ErrRequestClosed, got %v", err)
		}
	})
}

func TestRequestUseCase_Transition(t *testing.T) {
	ctx := context.Background()

	t.Run("provider drives work to completion", func(t *testing.T) {
		f := newFixture(t)
		uc := NewRequestUseCase(f.store.Requests(), f.store.Services(), f.engine)
		svc := f.service(t, "Cleaning", entities.ServiceStatusAvailable, providerActor.ID)
		req := f.request(t, svc.ID, clientActor.ID, entities.RequestStatusPaymentInProgress)
		if _, err := f.engine.TransitionRequest(ctx, req.ID, entities.RequestStatusPaymentAccepted, nil); err != nil {
			t.Fatalf("claim: %v", err)
		}

		if _, err := uc.Transition(ctx, providerActor, req.ID, entities.RequestStatusInProgress); err != nil {
			t.Fatalf("start: %v", err)
		}
		res, err := uc.Transition(ctx, providerActor, req.ID, entities.RequestStatusFinalized)
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if res.Service.Status != entities.ServiceStatusCompleted {
			t.Fatalf("expected COMPLETED, got %s", res.Service.Status)
		}
	})

	t.Run("client cancel releases the claim", func(t *testing.T) {
		f := newFixture(t)
		uc := NewRequestUseCase(f.store.Requests(), f.store.Services(), f.engine)
		svc := f.service(t, "Cleaning", entities.ServiceStatusAvailable, providerActor.ID)
		req := f.request(t, svc.ID, clientActor.ID, entities.RequestStatusPaymentInProgress)
		if _, err := f.engine.TransitionRequest(ctx, req.ID, entities.RequestStatusPaymentAccepted, nil); err != nil {
			t.Fatalf("claim: %v", err)
		}

		if _, err := uc.Transition(ctx, clientActor, req.ID, entities.RequestStatusInProgress); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		res, err := uc.Transition(ctx, clientActor, req.ID, entities.RequestStatusCancelled)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if res.Service.Status != entities.ServiceStatusAvailable || res.Service.ClaimedBy != "" {
			t.Fatalf("expected released service, got %+v", res.Service)
		}
	})

	t.Run("payment outcomes are not manual", func(t *testing.T) {
		f := newFixture(t)
		uc := NewRequestUseCase(f.store.Requests(), f.store.Services(), f.engine)
		svc := f.service(t, "Cleaning", entities.ServiceStatusAvailable, providerActor.ID)
		req := f.request(t, svc.ID, clientActor.ID, entities.RequestStatusPaymentInProgress)

		if _, err := uc.Transition(ctx, adminActor, req.ID, entities.RequestStatusPaymentAccepted); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestRequestUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := NewRequestUseCase(f.store.Requests(), f.store.Services(), f.engine)
	svc := f.service(t, "Cleaning", entities.ServiceStatusAvailable, providerActor.ID)

	inFlight := f.request(t, svc.ID, clientActor.ID, entities.RequestStatusPaymentInProgress)
	if err := uc.Delete(ctx, clientActor, inFlight.ID); !errors.Is(err, ErrRequestPaymentPending) {
		t.Fatalf("expected ErrRequestPaymentPending, got %v", err)
	}

	active := f.request(t, svc.ID, clientActor.ID, entities.RequestStatusInProgress)
	if err := uc.Delete(ctx, clientActor, active.ID); !errors.Is(err, ErrRequestActive) {
		t.Fatalf("expected ErrRequestActive, got %v", err)
	}

	pending := f.request(t, svc.ID, clientActor.ID, entities.RequestStatusPending)
	if err := uc.Delete(ctx, providerActor, pending.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := uc.Delete(ctx, clientActor, pending.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.getRequest(t, pending.ID); got.ID != "" {
		t.Fatalf("request still stored")
	}
	n, _ := f.store.Requests().CountByServiceID(ctx, svc.ID)
	if n != 2 {
		t.Fatalf("expected reverse index to drop the deleted request, got %d", n)
	}
}

// racingRequests lets a transition land between the use case's read and
// its delete.
type racingRequests struct {
	interfaces.IRequestRepository
	beforeDelete func()
}

func (r racingRequests) Delete(ctx context.Context, id string, expectedVersion int64) error {
	r.beforeDelete()
	return r.IRequestRepository.Delete(ctx, id, expectedVersion)
}

func TestRequestUseCase_DeleteLosesToConcurrentPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, "Cleaning", entities.ServiceStatusAvailable, providerActor.ID)
	pending := f.request(t, svc.ID, clientActor.ID, entities.RequestStatusPending)

	requests := racingRequests{
		IRequestRepository: f.store.Requests(),
		beforeDelete: func() {
			if _, err := f.engine.TransitionRequest(ctx, pending.ID, entities.RequestStatusPaymentAccepted, nil); err != nil {
				t.Fatalf("unexpected transition error: %v", err)
			}
		},
	}
	uc := NewRequestUseCase(requests, f.store.Services(), f.engine)

	if err := uc.Delete(ctx, clientActor, pending.ID); !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
	got := f.getRequest(t, pending.ID)
	if got.Status != entities.RequestStatusPaymentAccepted {
		t.Fatalf("expected the request to survive as PAYMENT_ACCEPTED, got %+v", got)
	}
	claimed := f.getService(t, svc.ID)
	if claimed.Status != entities.ServiceStatusBusy || claimed.ClaimedBy != pending.ID {
		t.Fatalf("expected the claim to point at a live request, got %+v", claimed)
	}
}
