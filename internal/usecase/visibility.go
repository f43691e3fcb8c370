package usecase

import (
	"serviexpress/internal/domain/entities"
)

// The functions in this file are the visibility rules of the catalog. They
// perform no I/O: they only turn an actor into a read predicate or decide
// whether a write is allowed. Every switch is exhaustive over the three
// roles and falls closed for anything else.

// ServiceScope returns the predicate of the services the actor may read.
func ServiceScope(actor entities.Actor, name string) (entities.ServiceFilter, error) {
	if !actor.Authenticated() {
		return entities.ServiceFilter{}, ErrUnauthenticated
	}
	switch actor.Role {
	case entities.RoleClient:
		return entities.ServiceFilter{Status: entities.ServiceStatusAvailable, NameContains: name}, nil
	case entities.RoleProvider:
		return entities.ServiceFilter{ProviderID: actor.ID, NameContains: name}, nil
	case entities.RoleAdmin:
		return entities.ServiceFilter{NameContains: name}, nil
	}
	return entities.ServiceFilter{}, ErrUnauthenticated
}

// CanReadService reports whether a single service is inside the actor's
// read scope.
func CanReadService(actor entities.Actor, svc entities.Service) bool {
	filter, err := ServiceScope(actor, "")
	if err != nil {
		return false
	}
	return filter.Matches(svc)
}

func AuthorizeServiceCreate(actor entities.Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	switch actor.Role {
	case entities.RoleClient:
		return ErrForbidden
	case entities.RoleProvider, entities.RoleAdmin:
		return nil
	}
	return ErrUnauthenticated
}

// AuthorizeServiceWrite covers update, status changes and delete.
func AuthorizeServiceWrite(actor entities.Actor, svc entities.Service) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	switch actor.Role {
	case entities.RoleClient:
		return ErrForbidden
	case entities.RoleProvider:
		if svc.ProviderID != actor.ID {
			return ErrForbidden
		}
		return nil
	case entities.RoleAdmin:
		return nil
	}
	return ErrUnauthenticated
}

// RequestScope returns the predicate of the requests the actor may read.
// For providers the predicate is incomplete: ownedServices reports that the
// caller must fill ServiceIDs with the ids of the provider's services.
func RequestScope(actor entities.Actor) (filter entities.RequestFilter, ownedServices bool, err error) {
	if !actor.Authenticated() {
		return entities.RequestFilter{}, false, ErrUnauthenticated
	}
	switch actor.Role {
	case entities.RoleClient:
		return entities.RequestFilter{ClientID: actor.ID}, false, nil
	case entities.RoleProvider:
		return entities.RequestFilter{ScopeToServices: true}, true, nil
	case entities.RoleAdmin:
		return entities.RequestFilter{}, false, nil
	}
	return entities.RequestFilter{}, false, ErrUnauthenticated
}

// AuthorizeRequestRead checks a single request against its service.
func AuthorizeRequestRead(actor entities.Actor, req entities.Request, svc entities.Service) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	switch actor.Role {
	case entities.RoleClient:
		if req.ClientID != actor.ID {
			return ErrForbidden
		}
		return nil
	case entities.RoleProvider:
		if svc.ProviderID != actor.ID {
			return ErrForbidden
		}
		return nil
	case entities.RoleAdmin:
		return nil
	}
	return ErrUnauthenticated
}

// AuthorizeRequestCreate allows only clients, and only against AVAILABLE
// services.
func AuthorizeRequestCreate(actor entities.Actor, svc entities.Service) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	switch actor.Role {
	case entities.RoleClient:
		if svc.Status != entities.ServiceStatusAvailable {
			return ErrServiceNotAvailable
		}
		return nil
	case entities.RoleProvider, entities.RoleAdmin:
		return ErrForbidden
	}
	return ErrUnauthenticated
}

// AuthorizeRequestTransition decides who may drive a request to target.
//
//   - clients: cancel their own requests;
//   - providers: start, finalize or cancel requests on their own services;
//   - admins: any manual target.
//
// Payment outcomes are never manual: they come from the gateway.
func AuthorizeRequestTransition(actor entities.Actor, req entities.Request, svc entities.Service, target entities.RequestStatus) error {
	if err := AuthorizeRequestRead(actor, req, svc); err != nil {
		return err
	}
	switch target {
	case entities.RequestStatusPaymentAccepted, entities.RequestStatusPaymentDeclined, entities.RequestStatusPaymentInProgress:
		return ErrForbidden
	}
	switch actor.Role {
	case entities.RoleClient:
		if target != entities.RequestStatusCancelled {
			return ErrForbidden
		}
		return nil
	case entities.RoleProvider, entities.RoleAdmin:
		return nil
	}
	return ErrUnauthenticated
}

// AuthorizeRequestWrite covers edits of the client supplied fields and
// deletion: the owning client or an admin.
func AuthorizeRequestWrite(actor entities.Actor, req entities.Request) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	switch actor.Role {
	case entities.RoleClient:
		if req.ClientID != actor.ID {
			return ErrForbidden
		}
		return nil
	case entities.RoleProvider:
		return ErrForbidden
	case entities.RoleAdmin:
		return nil
	}
	return ErrUnauthenticated
}
