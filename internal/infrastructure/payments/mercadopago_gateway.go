package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"serviexpress/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMercadoPagoGatewayNotConfigured = errors.New("mercado pago gateway not configured")

// GatewayOptions configures the Mercado Pago gateway. In mock mode no SDK
// client is built and every payment is answered with MockStatus.
type GatewayOptions struct {
	AccessToken string
	MockMode    bool
	MockStatus  string
}

type MercadoPagoGateway struct {
	client     payment.Client
	mockMode   bool
	mockStatus string
	now        func() time.Time
}

var _ interfaces.IPaymentGateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(opts GatewayOptions) (*MercadoPagoGateway, error) {
	if opts.MockMode {
		status := opts.MockStatus
		switch status {
		case "approved", "pending", "in_process", "rejected":
		default:
			status = "approved"
		}
		log.Printf("[payment][gateway] mock mode enabled status=%s", status)
		return &MercadoPagoGateway{mockMode: true, mockStatus: status, now: time.Now}, nil
	}

	if opts.AccessToken == "" {
		log.Printf("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingMercadoPagoAccessToken
	}

	cfg, err := config.New(opts.AccessToken)
	if err != nil {
		log.Printf("[payment][gateway] failed creating sdk config err=%v", err)
		return nil, err
	}
	log.Printf("[payment][gateway] Mercado Pago client initialized")

	return &MercadoPagoGateway{client: payment.NewClient(cfg), now: time.Now}, nil
}

func (g *MercadoPagoGateway) CreatePayment(ctx context.Context, requestPayload json.RawMessage) (providerPaymentID string, providerStatus string, providerResponse json.RawMessage, err error) {
	if g != nil && g.mockMode {
		return g.createMock(requestPayload)
	}
	if g == nil || g.client == nil {
		log.Printf("[payment][gateway] gateway not configured")
		return "", "", nil, ErrMercadoPagoGatewayNotConfigured
	}
	log.Printf("[payment][gateway] create start payload_len=%d", len(requestPayload))

	var req payment.Request
	if err := json.Unmarshal(requestPayload, &req); err != nil {
		log.Printf("[payment][gateway] payload unmarshal failed err=%v", err)
		return "", "", nil, err
	}

	resp, err := g.client.Create(ctx, req)
	if err != nil {
		log.Printf("[payment][gateway] sdk create failed external_reference=%s err=%v", req.ExternalReference, err)
		return "", "", nil, err
	}

	b, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[payment][gateway] response marshal failed err=%v", err)
		return "", "", nil, err
	}
	log.Printf("[payment][gateway] create success provider_payment_id=%d provider_status=%s external_reference=%s", resp.ID, resp.Status, resp.ExternalReference)

	return fmt.Sprintf("%d", resp.ID), resp.Status, b, nil
}

// createMock echoes the request payload back as a provider response so the
// checkout flow can run without credentials.
func (g *MercadoPagoGateway) createMock(requestPayload json.RawMessage) (string, string, json.RawMessage, error) {
	log.Printf("[payment][gateway] mock create start payload_len=%d", len(requestPayload))

	resp := map[string]any{}
	if len(requestPayload) > 0 && json.Valid(requestPayload) {
		if err := json.Unmarshal(requestPayload, &resp); err != nil {
			resp = map[string]any{"request_payload_raw": string(requestPayload)}
		}
	}

	now := g.now().UTC()
	id := strconv.FormatInt(now.UnixNano(), 10)
	resp["id"] = id
	resp["status"] = g.mockStatus
	resp["date_created"] = now.Format(time.RFC3339Nano)
	switch g.mockStatus {
	case "approved":
		resp["status_detail"] = "accredited"
		resp["date_approved"] = now.Format(time.RFC3339Nano)
	case "rejected":
		resp["status_detail"] = "cc_rejected_other_reason"
	default:
		resp["status_detail"] = "pending_contingency"
	}

	b, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[payment][gateway] mock response marshal failed err=%v", err)
		return "", "", nil, err
	}

	log.Printf("[payment][gateway] mock create success provider_payment_id=%s provider_status=%s", id, g.mockStatus)
	return id, g.mockStatus, b, nil
}
