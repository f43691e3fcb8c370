// Package memory is a process-local catalog store. It backs the
// CATALOG_STORE=memory mode and the use case tests; all repositories of a
// Store share one lock so coupled transitions are atomic.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/google/uuid"
)

type Store struct {
	mu        sync.RWMutex
	services  map[string]entities.Service
	requests  map[string]entities.Request
	byService map[string]map[string]struct{}
	users     map[string]entities.User
	payments  map[string]entities.Payment
}

var _ interfaces.ITransitionStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		services:  map[string]entities.Service{},
		requests:  map[string]entities.Request{},
		byService: map[string]map[string]struct{}{},
		users:     map[string]entities.User{},
		payments:  map[string]entities.Payment{},
	}
}

func (s *Store) Services() *ServiceRepository { return &ServiceRepository{s: s} }
func (s *Store) Requests() *RequestRepository { return &RequestRepository{s: s} }
func (s *Store) Users() *UserDirectory        { return &UserDirectory{s: s} }
func (s *Store) Payments() *PaymentRepository { return &PaymentRepository{s: s} }

// CommitTransition writes r and, when given, svc if both still carry the
// versions the caller observed.
func (s *Store) CommitTransition(ctx context.Context, r entities.Request, svc *entities.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	storedReq, ok := s.requests[r.ID]
	if !ok || storedReq.Version != r.Version {
		return interfaces.ErrStaleWrite
	}
	if svc != nil {
		storedSvc, ok := s.services[svc.ID]
		if !ok || storedSvc.Version != svc.Version {
			return interfaces.ErrStaleWrite
		}
	}

	r.Version++
	s.requests[r.ID] = cloneRequest(r)
	if svc != nil {
		next := *svc
		next.Version++
		s.services[next.ID] = next
	}
	return nil
}

// ServiceRepository implements interfaces.IServiceRepository.
type ServiceRepository struct {
	s *Store
}

var _ interfaces.IServiceRepository = (*ServiceRepository)(nil)

func (r *ServiceRepository) Create(_ context.Context, svc entities.Service) (entities.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if _, exists := r.s.services[svc.ID]; exists {
		return entities.Service{}, fmt.Errorf("service %s already exists", svc.ID)
	}
	svc.Version = 1
	r.s.services[svc.ID] = svc
	return svc, nil
}

func (r *ServiceRepository) GetByID(_ context.Context, id string) (entities.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.services[id], nil
}

func (r *ServiceRepository) List(_ context.Context, filter entities.ServiceFilter, page entities.PageRequest) (entities.Page[entities.Service], error) {
	r.s.mu.RLock()
	matched := make([]entities.Service, 0, len(r.s.services))
	for _, svc := range r.s.services {
		if filter.Matches(svc) {
			matched = append(matched, svc)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return entities.Paginate(matched, page), nil
}

func (r *ServiceRepository) Update(_ context.Context, svc entities.Service) (entities.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.services[svc.ID]
	if !ok || stored.Version != svc.Version {
		return entities.Service{}, interfaces.ErrStaleWrite
	}
	svc.Version++
	r.s.services[svc.ID] = svc
	return svc, nil
}

func (r *ServiceRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if len(r.s.byService[id]) > 0 {
		return interfaces.ErrInUse
	}
	delete(r.s.services, id)
	delete(r.s.byService, id)
	return nil
}

// RequestRepository implements interfaces.IRequestRepository.
type RequestRepository struct {
	s *Store
}

var _ interfaces.IRequestRepository = (*RequestRepository)(nil)

func (r *RequestRepository) Create(_ context.Context, req entities.Request) (entities.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, exists := r.s.requests[req.ID]; exists {
		return entities.Request{}, fmt.Errorf("request %s already exists", req.ID)
	}
	if _, ok := r.s.services[req.ServiceID]; !ok {
		return entities.Request{}, interfaces.ErrStaleWrite
	}
	req.Version = 1
	r.s.requests[req.ID] = cloneRequest(req)
	idx, ok := r.s.byService[req.ServiceID]
	if !ok {
		idx = map[string]struct{}{}
		r.s.byService[req.ServiceID] = idx
	}
	idx[req.ID] = struct{}{}
	return req, nil
}

func (r *RequestRepository) GetByID(_ context.Context, id string) (entities.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneRequest(r.s.requests[id]), nil
}

func (r *RequestRepository) List(_ context.Context, filter entities.RequestFilter, page entities.PageRequest) (entities.Page[entities.Request], error) {
	r.s.mu.RLock()
	matched := make([]entities.Request, 0, len(r.s.requests))
	for _, req := range r.s.requests {
		if filter.Matches(req) {
			matched = append(matched, cloneRequest(req))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Date.Before(matched[j].Date)
	})
	return entities.Paginate(matched, page), nil
}

func (r *RequestRepository) Update(_ context.Context, req entities.Request) (entities.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.requests[req.ID]
	if !ok || stored.Version != req.Version {
		return entities.Request{}, interfaces.ErrStaleWrite
	}
	req.ServiceID = stored.ServiceID
	req.Version++
	r.s.requests[req.ID] = cloneRequest(req)
	return req, nil
}

func (r *RequestRepository) Delete(_ context.Context, id string, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.requests[id]
	if !ok {
		return nil
	}
	if stored.Version != expectedVersion {
		return interfaces.ErrStaleWrite
	}
	delete(r.s.requests, id)
	if idx := r.s.byService[stored.ServiceID]; idx != nil {
		delete(idx, id)
	}
	return nil
}

func (r *RequestRepository) CountByServiceID(_ context.Context, serviceID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.byService[serviceID]), nil
}

// UserDirectory implements interfaces.IUserDirectory.
type UserDirectory struct {
	s *Store
}

var _ interfaces.IUserDirectory = (*UserDirectory)(nil)

func (d *UserDirectory) GetByID(_ context.Context, id string) (entities.User, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return d.s.users[id], nil
}

func (d *UserDirectory) Put(u entities.User) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.users[u.ID] = u
}

// LoadJSON seeds the directory from a JSON array of users.
func (d *UserDirectory) LoadJSON(r io.Reader) (int, error) {
	var users []entities.User
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return 0, err
	}
	for i, u := range users {
		role, ok := entities.ParseRole(string(u.Role))
		if !ok || u.ID == "" {
			return i, fmt.Errorf("invalid user at index %d", i)
		}
		u.Role = role
		d.Put(u)
	}
	return len(users), nil
}

// PaymentRepository implements interfaces.IPaymentRepository.
type PaymentRepository struct {
	s *Store
}

var _ interfaces.IPaymentRepository = (*PaymentRepository)(nil)

func (p *PaymentRepository) Create(_ context.Context, pay entities.Payment) (entities.Payment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, exists := p.s.payments[pay.ID]; exists {
		return entities.Payment{}, fmt.Errorf("payment %s already exists", pay.ID)
	}
	p.s.payments[pay.ID] = pay
	return pay, nil
}

func (p *PaymentRepository) GetByID(_ context.Context, id string) (entities.Payment, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	return p.s.payments[id], nil
}

func (p *PaymentRepository) UpdateStatus(_ context.Context, id string, status entities.PaymentStatus) (entities.Payment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	pay, ok := p.s.payments[id]
	if !ok {
		return entities.Payment{}, nil
	}
	pay.Status = status
	p.s.payments[id] = pay
	return pay, nil
}

func (p *PaymentRepository) ListByRequestID(_ context.Context, requestID string) ([]entities.Payment, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := []entities.Payment{}
	for _, pay := range p.s.payments {
		if pay.RequestID == requestID {
			out = append(out, pay)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func cloneRequest(r entities.Request) entities.Request {
	if r.EstimatedDate != nil {
		d := *r.EstimatedDate
		r.EstimatedDate = &d
	}
	return r
}
