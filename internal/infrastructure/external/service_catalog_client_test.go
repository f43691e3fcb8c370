package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"serviexpress/internal/domain/entities"
)

func TestServiceCatalogClient_FetchService(t *testing.T) {
	t.Run("spanish payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/servicios/plomeria" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_, _ = w.Write([]byte(`{"nombre":"Plomeria","descripcion":"Arreglos","precio":"45000.50"}`))
		}))
		defer srv.Close()

		c := NewServiceCatalogClient(srv.URL+"/servicios/", time.Second)
		svc, err := c.FetchService(context.Background(), "plomeria")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.Name != "Plomeria" || svc.Description != "Arreglos" || svc.Price.String() != "45000.5" {
			t.Fatalf("unexpected service %+v", svc)
		}
		if svc.Status != entities.ServiceStatusAvailable {
			t.Fatalf("expected AVAILABLE, got %s", svc.Status)
		}
	})

	t.Run("english payload with numeric price", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"name":"Cleaning","description":"Deep clean","price":12.25}`))
		}))
		defer srv.Close()

		svc, err := NewServiceCatalogClient(srv.URL, time.Second).FetchService(context.Background(), "cleaning")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.Name != "Cleaning" || svc.Price.StringFixed(2) != "12.25" {
			t.Fatalf("unexpected service %+v", svc)
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewServiceCatalogClient(srv.URL, time.Second).FetchService(context.Background(), "x")
		if !errors.Is(err, ErrCatalogUnavailable) {
			t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		}))
		defer srv.Close()

		_, err := NewServiceCatalogClient(srv.URL, time.Second).FetchService(context.Background(), "x")
		if !errors.Is(err, ErrCatalogEmptyResponse) {
			t.Fatalf("expected ErrCatalogEmptyResponse, got %v", err)
		}
	})

	t.Run("missing price", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"name":"x","description":"y"}`))
		}))
		defer srv.Close()

		_, err := NewServiceCatalogClient(srv.URL, time.Second).FetchService(context.Background(), "x")
		if !errors.Is(err, ErrCatalogEmptyResponse) {
			t.Fatalf("expected ErrCatalogEmptyResponse, got %v", err)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewServiceCatalogClient("", time.Second).FetchService(context.Background(), "x")
		if !errors.Is(err, ErrCatalogNotConfigured) {
			t.Fatalf("expected ErrCatalogNotConfigured, got %v", err)
		}
	})
}
