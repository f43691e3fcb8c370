package handlers

import (
	"context"
	"errors"
	"net/http"

	"serviexpress/internal/adapter/http/dto/request"
	"serviexpress/internal/usecase"
	"serviexpress/pkg"
)

// mapCatalogError renders the usecase error kinds. Specific sentinels get
// their own code; anything unrecognized is an internal error whose cause is
// kept for logs only.
func mapCatalogError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		return pkg.NewDomainErrorSimple("UNAUTHENTICATED", "Authentication required", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrForbidden):
		return pkg.NewDomainErrorSimple("FORBIDDEN", "Not allowed for this role", http.StatusForbidden)
	case errors.Is(err, usecase.ErrUnauthorized):
		return pkg.NewDomainErrorSimple("UNAUTHORIZED", "Unauthorized", http.StatusUnauthorized)

	case errors.Is(err, usecase.ErrServiceNotFound):
		return pkg.NewDomainErrorSimple("SERVICE_NOT_FOUND", "Service not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrRequestNotFound):
		return pkg.NewDomainErrorSimple("REQUEST_NOT_FOUND", "Request not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrPaymentNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrNotFound):
		return pkg.NewDomainErrorSimple("NOT_FOUND", "Not found", http.StatusNotFound)

	case errors.Is(err, usecase.ErrServiceInUse):
		return pkg.NewDomainErrorSimple("SERVICE_IN_USE", "Service has requests and cannot be deleted", http.StatusConflict)
	case errors.Is(err, usecase.ErrServiceAlreadyClaimed):
		return pkg.NewDomainErrorSimple("SERVICE_ALREADY_CLAIMED", "Service was already claimed by another request", http.StatusConflict)
	case errors.Is(err, usecase.ErrServiceNotAvailable):
		return pkg.NewDomainErrorSimple("SERVICE_NOT_AVAILABLE", "Service is not available", http.StatusConflict)
	case errors.Is(err, usecase.ErrInvalidServiceTransition), errors.Is(err, usecase.ErrInvalidRequestTransition):
		return pkg.NewDomainErrorSimple("INVALID_TRANSITION", "Status transition not allowed", http.StatusConflict)
	case errors.Is(err, usecase.ErrConcurrentUpdate):
		return pkg.NewDomainErrorSimple("CONCURRENT_UPDATE", "Entity was modified concurrently, retry", http.StatusConflict)
	case errors.Is(err, usecase.ErrPaymentAlreadyLinked):
		return pkg.NewDomainErrorSimple("PAYMENT_ALREADY_LINKED", "Request already has a payment", http.StatusConflict)
	case errors.Is(err, usecase.ErrRequestPaymentPending):
		return pkg.NewDomainErrorSimple("REQUEST_PAYMENT_PENDING", "Request has a payment in progress", http.StatusConflict)
	case errors.Is(err, usecase.ErrRequestActive):
		return pkg.NewDomainErrorSimple("REQUEST_ACTIVE", "Request holds a service claim, cancel it first", http.StatusConflict)
	case errors.Is(err, usecase.ErrRequestClosed):
		return pkg.NewDomainErrorSimple("REQUEST_CLOSED", "Request is closed", http.StatusConflict)
	case errors.Is(err, usecase.ErrConflict):
		return pkg.NewDomainErrorSimple("CONFLICT", "Conflict", http.StatusConflict)

	case errors.Is(err, usecase.ErrValidation):
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		if fields := usecase.FieldErrors(err); len(fields) > 0 {
			return appErr.WithFields(fields)
		}
		return appErr

	case errors.Is(err, context.DeadlineExceeded):
		return pkg.NewDomainError("TIMEOUT", "The operation timed out", err, http.StatusGatewayTimeout)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}

// bindingError renders a gin binding failure, with per-field messages when
// the validator produced them.
func bindingError(err error) *pkg.AppError {
	appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	if fields := request.FieldMessages(err); len(fields) > 0 {
		return appErr.WithFields(fields)
	}
	return appErr
}
