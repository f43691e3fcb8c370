package usecase

import (
	"context"
	"testing"
	"time"

	"serviexpress/internal/adapter/persistence/memory"
	"serviexpress/internal/domain/entities"

	"github.com/shopspring/decimal"
)

var (
	adminActor     = entities.Actor{ID: "admin-1", Role: entities.RoleAdmin}
	providerActor  = entities.Actor{ID: "prov-1", Role: entities.RoleProvider}
	otherProvider  = entities.Actor{ID: "prov-2", Role: entities.RoleProvider}
	clientActor    = entities.Actor{ID: "cli-1", Role: entities.RoleClient}
	otherClient    = entities.Actor{ID: "cli-2", Role: entities.RoleClient}
	anonymousActor = entities.Actor{}
)

type fixture struct {
	store  *memory.Store
	engine *LifecycleEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	for _, u := range []entities.User{
		{ID: adminActor.ID, Name: "Admin", Role: entities.RoleAdmin},
		{ID: providerActor.ID, Name: "Pat", Role: entities.RoleProvider},
		{ID: otherProvider.ID, Name: "Quinn", Role: entities.RoleProvider},
		{ID: clientActor.ID, Name: "Cam", Role: entities.RoleClient},
		{ID: otherClient.ID, Name: "Dee", Role: entities.RoleClient},
	} {
		store.Users().Put(u)
	}
	return &fixture{
		store:  store,
		engine: NewLifecycleEngine(store.Services(), store.Requests(), store),
	}
}

func (f *fixture) service(t *testing.T, name string, status entities.ServiceStatus, providerID string) entities.Service {
	t.Helper()
	now := time.Now().UTC()
	svc, err := f.store.Services().Create(context.Background(), entities.Service{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString("100.00"),
		Status:      status,
		ProviderID:  providerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return svc
}

func (f *fixture) request(t *testing.T, serviceID, clientID string, status entities.RequestStatus) entities.Request {
	t.Helper()
	req, err := f.store.Requests().Create(context.Background(), entities.Request{
		ServiceID: serviceID,
		ClientID:  clientID,
		Date:      time.Now().UTC(),
		Status:    status,
	})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func (f *fixture) getService(t *testing.T, id string) entities.Service {
	t.Helper()
	svc, err := f.store.Services().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get service: %v", err)
	}
	return svc
}

func (f *fixture) getRequest(t *testing.T, id string) entities.Request {
	t.Helper()
	req, err := f.store.Requests().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	return req
}

func ptr[T any](v T) *T { return &v }
