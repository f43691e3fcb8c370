package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/infrastructure/auth"
	mock_interfaces "serviexpress/internal/usecase/interfaces/mocks"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenService("test-secret", "serviexpress")

	issue := func(t *testing.T, id string, role entities.Role) string {
		t.Helper()
		tok, err := tokens.Issue(id, role, time.Hour)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return tok
	}

	serve := func(users *mock_interfaces.MockIUserDirectory, header string) (*httptest.ResponseRecorder, entities.Actor) {
		var seen entities.Actor
		r := gin.New()
		r.GET("/v1/me", Auth(tokens, users), func(c *gin.Context) {
			seen = ActorFrom(c)
			c.Status(http.StatusNoContent)
		})
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w, seen
	}

	t.Run("missing or malformed header", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		users := mock_interfaces.NewMockIUserDirectory(ctrl)

		for _, h := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt"} {
			if w, _ := serve(users, h); w.Code != http.StatusUnauthorized {
				t.Fatalf("header %q: expected 401, got %d", h, w.Code)
			}
		}
	})

	t.Run("directory role wins", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		users := mock_interfaces.NewMockIUserDirectory(ctrl)
		users.EXPECT().GetByID(gomock.Any(), "u1").Return(entities.User{ID: "u1", Role: entities.RoleAdmin}, nil)

		w, actor := serve(users, "Bearer "+issue(t, "u1", entities.RoleProvider))
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
		if actor.ID != "u1" || actor.Role != entities.RoleAdmin {
			t.Fatalf("unexpected actor %+v", actor)
		}
	})

	t.Run("deleted user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		users := mock_interfaces.NewMockIUserDirectory(ctrl)
		users.EXPECT().GetByID(gomock.Any(), "u1").Return(entities.User{}, nil)

		if w, _ := serve(users, "bearer "+issue(t, "u1", entities.RoleClient)); w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("directory failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		users := mock_interfaces.NewMockIUserDirectory(ctrl)
		users.EXPECT().GetByID(gomock.Any(), "u1").Return(entities.User{}, errors.New("timeout"))

		if w, _ := serve(users, "Bearer "+issue(t, "u1", entities.RoleClient)); w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}
