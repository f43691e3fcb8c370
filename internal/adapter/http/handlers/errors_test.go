package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"serviexpress/internal/usecase"
)

func TestMapCatalogError(t *testing.T) {
	cases := []struct {
		err  error
		code string
		http int
	}{
		{usecase.ErrUnauthenticated, "UNAUTHENTICATED", http.StatusUnauthorized},
		{usecase.ErrForbidden, "FORBIDDEN", http.StatusForbidden},
		{usecase.ErrServiceNotFound, "SERVICE_NOT_FOUND", http.StatusNotFound},
		{usecase.ErrRequestNotFound, "REQUEST_NOT_FOUND", http.StatusNotFound},
		{usecase.ErrServiceInUse, "SERVICE_IN_USE", http.StatusConflict},
		{usecase.ErrServiceAlreadyClaimed, "SERVICE_ALREADY_CLAIMED", http.StatusConflict},
		{fmt.Errorf("%w: PENDING -> FINALIZED", usecase.ErrInvalidRequestTransition), "INVALID_TRANSITION", http.StatusConflict},
		{usecase.ErrConcurrentUpdate, "CONCURRENT_UPDATE", http.StatusConflict},
		{usecase.ErrRequestPaymentPending, "REQUEST_PAYMENT_PENDING", http.StatusConflict},
		{usecase.ErrRequestClosed, "REQUEST_CLOSED", http.StatusConflict},
		{usecase.ErrInvalidServiceID, "INVALID_REQUEST", http.StatusBadRequest},
		{context.DeadlineExceeded, "TIMEOUT", http.StatusGatewayTimeout},
		{errors.New("dynamodb: throttled"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		got := mapCatalogError(tc.err)
		if got.HTTPStatus != tc.http || got.Code != tc.code {
			t.Fatalf("for err %v expected %s/%d got %s/%d", tc.err, tc.code, tc.http, got.Code, got.HTTPStatus)
		}
	}

	internal := mapCatalogError(errors.New("dynamodb: throttled")).ToHTTPError()
	if internal.Message != "An internal error occurred" {
		t.Fatalf("internal detail leaked: %+v", internal)
	}

	withFields := mapCatalogError(&usecase.ValidationError{Fields: map[string]string{"name": "must not be blank"}})
	if withFields.Fields["name"] != "must not be blank" {
		t.Fatalf("expected field messages, got %+v", withFields)
	}
}
