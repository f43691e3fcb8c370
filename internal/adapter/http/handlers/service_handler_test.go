package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"serviexpress/internal/adapter/http/dto/request"
	"serviexpress/internal/adapter/http/handlers/mocks"
	"serviexpress/internal/adapter/http/middleware"
	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

var (
	testProvider = entities.Actor{ID: "prov-1", Role: entities.RoleProvider}
	testClient   = entities.Actor{ID: "cli-1", Role: entities.RoleClient}
)

func newTestRouter(actor entities.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	request.RegisterValidation()
	r := gin.New()
	r.Use(middleware.WithActor(actor))
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not json: %s", w.Body.String())
	}
	return body
}

func TestServiceHandler_CreateService(t *testing.T) {
	t.Run("missing fields are reported by json name", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.POST("/v1/services", h.CreateService)

		w := serve(r, http.MethodPost, "/v1/services", `{"description":"weekly","price":10}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		fields, _ := decodeBody(t, w)["fields"].(map[string]any)
		if _, ok := fields["name"]; !ok {
			t.Fatalf("expected a name field error, got %s", w.Body.String())
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.POST("/v1/services", h.CreateService)

		w := serve(r, http.MethodPost, "/v1/services", "{")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("client is forbidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testClient)
		r.POST("/v1/services", h.CreateService)

		uc.EXPECT().Create(gomock.Any(), testClient, gomock.Any()).Return(entities.Service{}, usecase.ErrForbidden)

		w := serve(r, http.MethodPost, "/v1/services", `{"name":"Gardening","description":"weekly","price":10}`)
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("usecase validation fields are rendered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.POST("/v1/services", h.CreateService)

		uc.EXPECT().Create(gomock.Any(), testProvider, gomock.Any()).
			Return(entities.Service{}, &usecase.ValidationError{Fields: map[string]string{"price": "must be greater than zero"}})

		w := serve(r, http.MethodPost, "/v1/services", `{"name":"Gardening","description":"weekly","price":0}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		fields, _ := decodeBody(t, w)["fields"].(map[string]any)
		if fields["price"] != "must be greater than zero" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.POST("/v1/services", h.CreateService)

		now := time.Now().UTC()
		uc.EXPECT().Create(gomock.Any(), testProvider, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ entities.Actor, in usecase.ServiceInput) (entities.Service, error) {
				if in.Name == nil || *in.Name != "Gardening" {
					t.Fatalf("unexpected name %v", in.Name)
				}
				if in.Price == nil || !in.Price.Equal(decimal.RequireFromString("25.5")) {
					t.Fatalf("unexpected price %v", in.Price)
				}
				return entities.Service{
					ID: "svc-1", Name: *in.Name, Description: *in.Description, Price: *in.Price,
					Status: entities.ServiceStatusPending, ProviderID: testProvider.ID, CreatedAt: now, UpdatedAt: now,
				}, nil
			})

		w := serve(r, http.MethodPost, "/v1/services", `{"name":"Gardening","description":"weekly","price":"25.5"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		body := decodeBody(t, w)
		if body["service_id"] != "svc-1" || body["price"] != "25.50" || body["status"] != "PENDING" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestServiceHandler_GetUpdateDelete(t *testing.T) {
	t.Run("invisible service is not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testClient)
		r.GET("/v1/services/:id", h.GetService)

		uc.EXPECT().GetByID(gomock.Any(), testClient, "svc-1").Return(entities.Service{}, usecase.ErrServiceNotFound)

		w := serve(r, http.MethodGet, "/v1/services/svc-1", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
		if decodeBody(t, w)["code"] != "SERVICE_NOT_FOUND" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("update status goes through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.PATCH("/v1/services/:id", h.UpdateService)

		uc.EXPECT().Update(gomock.Any(), testProvider, "svc-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ entities.Actor, _ string, in usecase.ServiceInput) (entities.Service, error) {
				if in.Status == nil || *in.Status != entities.ServiceStatusAvailable {
					t.Fatalf("expected AVAILABLE status, got %v", in.Status)
				}
				if in.Name != nil {
					t.Fatalf("absent name must stay nil")
				}
				return entities.Service{ID: "svc-1", Status: entities.ServiceStatusAvailable}, nil
			})

		w := serve(r, http.MethodPatch, "/v1/services/svc-1", `{"status":"AVAILABLE"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("update rejects unknown status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.PATCH("/v1/services/:id", h.UpdateService)

		w := serve(r, http.MethodPatch, "/v1/services/svc-1", `{"status":"SOLD"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("invalid transition is a conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.PATCH("/v1/services/:id", h.UpdateService)

		uc.EXPECT().Update(gomock.Any(), testProvider, "svc-1", gomock.Any()).Return(entities.Service{}, usecase.ErrInvalidServiceTransition)

		w := serve(r, http.MethodPatch, "/v1/services/svc-1", `{"status":"BUSY"}`)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("delete in use", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.DELETE("/v1/services/:id", h.DeleteService)

		uc.EXPECT().Delete(gomock.Any(), testProvider, "svc-1").Return(usecase.ErrServiceInUse)

		w := serve(r, http.MethodDelete, "/v1/services/svc-1", "")
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		if decodeBody(t, w)["code"] != "SERVICE_IN_USE" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("delete success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.DELETE("/v1/services/:id", h.DeleteService)

		uc.EXPECT().Delete(gomock.Any(), testProvider, "svc-1").Return(nil)

		w := serve(r, http.MethodDelete, "/v1/services/svc-1", "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})
}

func TestServiceHandler_Import(t *testing.T) {
	imported := entities.Service{
		ID: "svc-9", Name: "Plumbing", Price: decimal.NewFromInt(80), Status: entities.ServiceStatusPending,
	}

	t.Run("json variant", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.POST("/v1/services/auto/:kind", h.ImportService)

		uc.EXPECT().ImportExternal(gomock.Any(), testProvider, "plumbing").Return(imported, nil)

		w := serve(r, http.MethodPost, "/v1/services/auto/plumbing", "")
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		if decodeBody(t, w)["service_id"] != "svc-9" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("text variant", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.GET("/v1/services/auto/:kind", h.ImportServiceText)

		uc.EXPECT().ImportExternal(gomock.Any(), testProvider, "plumbing").Return(imported, nil)

		w := serve(r, http.MethodGet, "/v1/services/auto/plumbing", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") || !strings.Contains(w.Body.String(), "svc-9") {
			t.Fatalf("unexpected response: %s %s", w.Header().Get("Content-Type"), w.Body.String())
		}
	})

	t.Run("catalog failure is a bad gateway", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testProvider)
		r.POST("/v1/services/auto/:kind", h.ImportService)

		uc.EXPECT().ImportExternal(gomock.Any(), testProvider, "plumbing").Return(entities.Service{}, errors.New("connection refused"))

		w := serve(r, http.MethodPost, "/v1/services/auto/plumbing", "")
		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", w.Code)
		}
	})

	t.Run("forbidden keeps its status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIServiceUseCase(ctrl)
		h := NewServiceHandler(uc)

		r := newTestRouter(testClient)
		r.GET("/v1/services/auto/:kind", h.ImportServiceText)

		uc.EXPECT().ImportExternal(gomock.Any(), testClient, "plumbing").Return(entities.Service{}, usecase.ErrForbidden)

		w := serve(r, http.MethodGet, "/v1/services/auto/plumbing", "")
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})
}
