package auth

import (
	"errors"
	"testing"
	"time"

	"serviexpress/internal/domain/entities"
)

func TestTokenService_IssueAndParse(t *testing.T) {
	svc := NewTokenService("secret", "serviexpress")

	token, err := svc.Issue("user-1", entities.RoleProvider, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	actor, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.ID != "user-1" || actor.Role != entities.RoleProvider {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestTokenService_ParseRejects(t *testing.T) {
	issuer := NewTokenService("secret", "serviexpress")

	t.Run("wrong secret", func(t *testing.T) {
		token, _ := issuer.Issue("user-1", entities.RoleClient, time.Hour)
		_, err := NewTokenService("other", "serviexpress").Parse(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenService("secret", "serviexpress")
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _ := past.Issue("user-1", entities.RoleClient, time.Hour)
		_, err := issuer.Parse(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, _ := NewTokenService("secret", "someone-else").Issue("user-1", entities.RoleClient, time.Hour)
		_, err := issuer.Parse(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		token, _ := issuer.Issue("user-1", entities.Role("ROOT"), time.Hour)
		_, err := issuer.Parse(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("no secret", func(t *testing.T) {
		_, err := NewTokenService("", "").Parse("x")
		if !errors.Is(err, ErrSecretNotConfigured) {
			t.Fatalf("expected ErrSecretNotConfigured, got %v", err)
		}
	})
}
