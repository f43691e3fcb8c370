package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedService(t *testing.T, s *Store, name string, createdAt time.Time) entities.Service {
	t.Helper()
	svc, err := s.Services().Create(context.Background(), entities.Service{
		Name:        name,
		Description: "desc",
		Price:       decimal.RequireFromString("10.50"),
		Status:      entities.ServiceStatusAvailable,
		ProviderID:  "prov-1",
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
	return svc
}

func TestServiceRepository_CreateGetUpdate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	svc := seedService(t, s, "Plumbing", time.Now())
	require.NotEmpty(t, svc.ID)
	require.Equal(t, int64(1), svc.Version)

	got, err := s.Services().GetByID(ctx, svc.ID)
	require.NoError(t, err)
	require.Equal(t, svc.Name, got.Name)
	require.True(t, got.Price.Equal(decimal.RequireFromString("10.5")))

	missing, err := s.Services().GetByID(ctx, "nope")
	require.NoError(t, err)
	require.Empty(t, missing.ID)

	got.Name = "Plumbing 24h"
	updated, err := s.Services().Update(ctx, got)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)

	// got still carries version 1
	_, err = s.Services().Update(ctx, got)
	require.ErrorIs(t, err, interfaces.ErrStaleWrite)
}

func TestServiceRepository_ListFiltersSortsAndPaginates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"Garden care", "Gardening pro", "Painting", "garden lights"} {
		seedService(t, s, name, base.Add(time.Duration(i)*time.Hour))
	}

	page, err := s.Services().List(ctx, entities.ServiceFilter{NameContains: "GARDEN"}, entities.NewPageRequest(0, 2))
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	require.Equal(t, "Garden care", page.Items[0].Name)
	require.Equal(t, "Gardening pro", page.Items[1].Name)

	page, err = s.Services().List(ctx, entities.ServiceFilter{NameContains: "garden"}, entities.NewPageRequest(1, 2))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "garden lights", page.Items[0].Name)

	page, err = s.Services().List(ctx, entities.ServiceFilter{NameContains: "garden"}, entities.NewPageRequest(5, 2))
	require.NoError(t, err)
	require.NotNil(t, page.Items)
	require.Empty(t, page.Items)
}

func TestServiceRepository_DeleteRefusedWhileReferenced(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	svc := seedService(t, s, "Cleaning", time.Now())

	req, err := s.Requests().Create(ctx, entities.Request{ServiceID: svc.ID, ClientID: "cli-1", Status: entities.RequestStatusPending})
	require.NoError(t, err)

	n, err := s.Requests().CountByServiceID(ctx, svc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.ErrorIs(t, s.Services().Delete(ctx, svc.ID), interfaces.ErrInUse)
	got, err := s.Services().GetByID(ctx, svc.ID)
	require.NoError(t, err)
	require.Equal(t, svc.ID, got.ID)

	require.NoError(t, s.Requests().Delete(ctx, req.ID, req.Version))
	require.NoError(t, s.Services().Delete(ctx, svc.ID))
	got, err = s.Services().GetByID(ctx, svc.ID)
	require.NoError(t, err)
	require.Empty(t, got.ID)
}

func TestRequestRepository_CreateRequiresService(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Requests().Create(ctx, entities.Request{ServiceID: "no-such-service", ClientID: "cli-1"})
	require.ErrorIs(t, err, interfaces.ErrStaleWrite)

	n, err := s.Requests().CountByServiceID(ctx, "no-such-service")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRequestRepository_DeleteIsVersioned(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	svc := seedService(t, s, "Cleaning", time.Now())

	req, err := s.Requests().Create(ctx, entities.Request{ServiceID: svc.ID, ClientID: "cli-1", Status: entities.RequestStatusPending})
	require.NoError(t, err)

	moved := req
	moved.Status = entities.RequestStatusPaymentAccepted
	_, err = s.Requests().Update(ctx, moved)
	require.NoError(t, err)

	require.ErrorIs(t, s.Requests().Delete(ctx, req.ID, req.Version), interfaces.ErrStaleWrite)
	got, err := s.Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, entities.RequestStatusPaymentAccepted, got.Status)

	require.NoError(t, s.Requests().Delete(ctx, req.ID, got.Version))
	require.NoError(t, s.Requests().Delete(ctx, req.ID, got.Version))
}

func TestRequestRepository_UpdateKeepsServiceReference(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	svc := seedService(t, s, "Cleaning", time.Now())

	req, err := s.Requests().Create(ctx, entities.Request{ServiceID: svc.ID, ClientID: "cli-1", Status: entities.RequestStatusPending})
	require.NoError(t, err)

	req.ServiceID = "other"
	req.Details = "third floor"
	updated, err := s.Requests().Update(ctx, req)
	require.NoError(t, err)
	require.Equal(t, svc.ID, updated.ServiceID)
	require.Equal(t, int64(2), updated.Version)
}

func TestRequestRepository_ListScopedToServices(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedService(t, s, "A", time.Now())
	b := seedService(t, s, "B", time.Now())

	for _, sid := range []string{a.ID, a.ID, b.ID} {
		_, err := s.Requests().Create(ctx, entities.Request{ServiceID: sid, ClientID: "cli-1", Date: time.Now()})
		require.NoError(t, err)
	}

	page, err := s.Requests().List(ctx, entities.RequestFilter{ScopeToServices: true, ServiceIDs: []string{a.ID}}, entities.NewPageRequest(0, 10))
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)

	page, err = s.Requests().List(ctx, entities.RequestFilter{ScopeToServices: true}, entities.NewPageRequest(0, 10))
	require.NoError(t, err)
	require.Equal(t, 0, page.Total)
}

func TestStore_CommitTransition(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	svc := seedService(t, s, "Cleaning", time.Now())
	req, err := s.Requests().Create(ctx, entities.Request{ServiceID: svc.ID, ClientID: "cli-1", Status: entities.RequestStatusPending})
	require.NoError(t, err)

	t.Run("stale service version writes nothing", func(t *testing.T) {
		next := req
		next.Status = entities.RequestStatusPaymentAccepted
		nextSvc := svc
		nextSvc.Version = 99
		nextSvc.Status = entities.ServiceStatusBusy

		require.ErrorIs(t, s.CommitTransition(ctx, next, &nextSvc), interfaces.ErrStaleWrite)

		gotReq, _ := s.Requests().GetByID(ctx, req.ID)
		gotSvc, _ := s.Services().GetByID(ctx, svc.ID)
		require.Equal(t, entities.RequestStatusPending, gotReq.Status)
		require.Equal(t, entities.ServiceStatusAvailable, gotSvc.Status)
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		next := req
		next.Status = entities.RequestStatusCancelled

		require.ErrorIs(t, s.CommitTransition(cancelled, next, nil), context.Canceled)
		gotReq, _ := s.Requests().GetByID(ctx, req.ID)
		require.Equal(t, entities.RequestStatusPending, gotReq.Status)
	})

	t.Run("both written with bumped versions", func(t *testing.T) {
		next := req
		next.Status = entities.RequestStatusPaymentAccepted
		nextSvc := svc
		nextSvc.Status = entities.ServiceStatusBusy
		nextSvc.ClaimedBy = req.ID

		require.NoError(t, s.CommitTransition(ctx, next, &nextSvc))

		gotReq, _ := s.Requests().GetByID(ctx, req.ID)
		gotSvc, _ := s.Services().GetByID(ctx, svc.ID)
		require.Equal(t, entities.RequestStatusPaymentAccepted, gotReq.Status)
		require.Equal(t, req.Version+1, gotReq.Version)
		require.Equal(t, entities.ServiceStatusBusy, gotSvc.Status)
		require.Equal(t, svc.Version+1, gotSvc.Version)
	})
}

func TestUserDirectory_LoadJSON(t *testing.T) {
	s := NewStore()
	n, err := s.Users().LoadJSON(strings.NewReader(`[
		{"id":"u1","name":"Ana","email":"ana@example.com","role":"CLIENTE"},
		{"id":"u2","name":"Bo","email":"bo@example.com","role":"ROLE_PROVIDER"}
	]`))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	u, err := s.Users().GetByID(context.Background(), "u2")
	require.NoError(t, err)
	require.Equal(t, entities.RoleProvider, u.Role)

	_, err = s.Users().LoadJSON(strings.NewReader(`[{"id":"u3","role":"ROOT"}]`))
	require.Error(t, err)
}

func TestPaymentRepository(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now()

	_, err := s.Payments().Create(ctx, entities.Payment{ID: "p2", RequestID: "r1", Date: now.Add(time.Minute), Status: entities.PaymentStatusPending})
	require.NoError(t, err)
	_, err = s.Payments().Create(ctx, entities.Payment{ID: "p1", RequestID: "r1", Date: now, Status: entities.PaymentStatusPending})
	require.NoError(t, err)
	_, err = s.Payments().Create(ctx, entities.Payment{ID: "p1", RequestID: "r1"})
	require.Error(t, err)

	updated, err := s.Payments().UpdateStatus(ctx, "p1", entities.PaymentStatusApproved)
	require.NoError(t, err)
	require.Equal(t, entities.PaymentStatusApproved, updated.Status)

	missing, err := s.Payments().UpdateStatus(ctx, "nope", entities.PaymentStatusApproved)
	require.NoError(t, err)
	require.Empty(t, missing.ID)

	list, err := s.Payments().ListByRequestID(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "p1", list[0].ID)
}
