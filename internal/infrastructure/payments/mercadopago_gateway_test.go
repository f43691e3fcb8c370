package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestNewMercadoPagoGateway(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		_, err := NewMercadoPagoGateway(GatewayOptions{})
		if !errors.Is(err, ErrMissingMercadoPagoAccessToken) {
			t.Fatalf("expected ErrMissingMercadoPagoAccessToken, got %v", err)
		}
	})

	t.Run("mock mode does not need a token", func(t *testing.T) {
		g, err := NewMercadoPagoGateway(GatewayOptions{MockMode: true, MockStatus: "bogus"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g.mockStatus != "approved" {
			t.Fatalf("expected unknown mock status to fall back to approved, got %s", g.mockStatus)
		}
	})
}

func TestMercadoPagoGateway_CreatePayment(t *testing.T) {
	t.Run("nil gateway", func(t *testing.T) {
		var g *MercadoPagoGateway
		_, _, _, err := g.CreatePayment(context.Background(), json.RawMessage(`{}`))
		if !errors.Is(err, ErrMercadoPagoGatewayNotConfigured) {
			t.Fatalf("expected ErrMercadoPagoGatewayNotConfigured, got %v", err)
		}
	})

	for _, status := range []string{"approved", "pending", "rejected"} {
		t.Run("mock "+status, func(t *testing.T) {
			g, err := NewMercadoPagoGateway(GatewayOptions{MockMode: true, MockStatus: status})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			id, got, raw, err := g.CreatePayment(context.Background(), json.RawMessage(`{"external_reference":"req-1","transaction_amount":10}`))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id == "" || got != status {
				t.Fatalf("unexpected id=%q status=%q", id, got)
			}
			var resp map[string]any
			if err := json.Unmarshal(raw, &resp); err != nil {
				t.Fatalf("response is not json: %v", err)
			}
			if resp["external_reference"] != "req-1" || resp["status"] != status {
				t.Fatalf("unexpected response %v", resp)
			}
		})
	}
}
