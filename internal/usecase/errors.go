package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned by this package matches exactly one of
// them through errors.Is; anything else is unexpected.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrUnauthenticated = fmt.Errorf("%w: authentication required", ErrUnauthorized)
	ErrForbidden       = fmt.Errorf("%w: insufficient role", ErrUnauthorized)

	ErrInvalidServiceID = fmt.Errorf("%w: invalid service id", ErrValidation)
	ErrInvalidRequestID = fmt.Errorf("%w: invalid request id", ErrValidation)

	ErrServiceNotFound = fmt.Errorf("service %w", ErrNotFound)
	ErrRequestNotFound = fmt.Errorf("request %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)

	ErrServiceInUse             = fmt.Errorf("%w: service has requests and cannot be deleted", ErrConflict)
	ErrServiceAlreadyClaimed    = fmt.Errorf("%w: service is not available to be claimed", ErrConflict)
	ErrServiceNotAvailable      = fmt.Errorf("%w: service is not available", ErrConflict)
	ErrInvalidServiceTransition = fmt.Errorf("%w: service status transition not allowed", ErrConflict)
	ErrInvalidRequestTransition = fmt.Errorf("%w: request status transition not allowed", ErrConflict)
	ErrConcurrentUpdate         = fmt.Errorf("%w: entity was modified concurrently, retry", ErrConflict)
	ErrPaymentAlreadyLinked     = fmt.Errorf("%w: request already has a payment", ErrConflict)
	ErrRequestPaymentPending    = fmt.Errorf("%w: request has a payment in progress", ErrConflict)
)

// ValidationError carries field-level rejection messages so callers can
// re-render a form next to the offending inputs.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) add(field, msg string) {
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = msg
}

// orNil returns nil when no field was rejected, so callers can write
// `return v.orNil()` without the typed-nil interface trap.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldErrors extracts the per-field messages of a validation failure.
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

var (
	ErrRequestClosed = fmt.Errorf("%w: request is closed", ErrConflict)
	ErrRequestActive = fmt.Errorf("%w: request holds a service claim, cancel it first", ErrConflict)
)

// mergeValidation folds the field errors of err into v. Errors that are not
// validation failures are returned unchanged.
func mergeValidation(v *ValidationError, err error) error {
	if err == nil {
		return nil
	}
	fields := FieldErrors(err)
	if fields == nil {
		return err
	}
	for k, msg := range fields {
		v.add(k, msg)
	}
	return nil
}
