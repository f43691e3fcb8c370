package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"
)

var (
	ErrInvalidSignature      = fmt.Errorf("%w: invalid webhook signature", ErrUnauthorized)
	ErrInvalidWebhookPayload = fmt.Errorf("%w: invalid webhook payload", ErrValidation)
	ErrVerifierNotConfigured = errors.New("webhook signature verifier not configured")
)

// Event types understood by the webhook. Provider specific shapes are
// normalized to these before they reach the engine.
const (
	EventPaymentAccepted = "payment.accepted"
	EventPaymentDeclined = "payment.declined"
)

// PaymentEvent is a verified, parsed gateway notification.
type PaymentEvent struct {
	RequestID string
	Type      string
	PaymentID string
}

// TargetStatus maps the event type to the request status it drives.
// ok is false for event types the marketplace does not act on.
func (e PaymentEvent) TargetStatus() (entities.RequestStatus, bool) {
	switch e.Type {
	case EventPaymentAccepted:
		return entities.RequestStatusPaymentAccepted, true
	case EventPaymentDeclined:
		return entities.RequestStatusPaymentDeclined, true
	}
	return "", false
}

// WebhookOutcome reports what a delivery did. Ignored is set for unknown
// event types; Applied is false for replays of an already applied event.
type WebhookOutcome struct {
	Event         PaymentEvent
	Ignored       bool
	Applied       bool
	RequestStatus entities.RequestStatus
	ServiceStatus entities.ServiceStatus
}

type IPaymentWebhookUseCase interface {
	Handle(ctx context.Context, header http.Header, rawBody []byte) (WebhookOutcome, error)
}

type PaymentWebhookUseCase struct {
	verifier interfaces.ISignatureVerifier
	engine   *LifecycleEngine
	payments interfaces.IPaymentRepository
}

var _ IPaymentWebhookUseCase = (*PaymentWebhookUseCase)(nil)

func NewPaymentWebhookUseCase(verifier interfaces.ISignatureVerifier, engine *LifecycleEngine, payments interfaces.IPaymentRepository) *PaymentWebhookUseCase {
	return &PaymentWebhookUseCase{verifier: verifier, engine: engine, payments: payments}
}

// Handle verifies the raw body before anything else reads it. Nothing is
// parsed or mutated for a delivery whose signature does not match.
func (u *PaymentWebhookUseCase) Handle(ctx context.Context, header http.Header, rawBody []byte) (WebhookOutcome, error) {
	if u.verifier == nil {
		return WebhookOutcome{}, ErrVerifierNotConfigured
	}
	if err := u.verifier.Verify(header, rawBody); err != nil {
		log.Printf("[webhook][usecase] signature rejected body_len=%d err=%v", len(rawBody), err)
		return WebhookOutcome{}, ErrInvalidSignature
	}

	ev, err := ParsePaymentEvent(rawBody)
	if err != nil {
		log.Printf("[webhook][usecase] payload rejected err=%v", err)
		return WebhookOutcome{}, err
	}
	out := WebhookOutcome{Event: ev}

	target, known := ev.TargetStatus()
	if !known {
		log.Printf("[webhook][usecase] event ignored type=%q request_id=%s", ev.Type, ev.RequestID)
		out.Ignored = true
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return WebhookOutcome{}, err
	}

	log.Printf("[webhook][usecase] applying event type=%s request_id=%s payment_id=%s", ev.Type, ev.RequestID, ev.PaymentID)
	res, err := u.engine.TransitionRequest(ctx, ev.RequestID, target, linkPayment(ev.PaymentID))
	if errors.Is(err, ErrInvalidRequestTransition) {
		if late, ok := u.lateReplay(ctx, ev, target); ok {
			return late, nil
		}
	}
	if err != nil {
		log.Printf("[webhook][usecase] transition failed request_id=%s target=%s err=%v", ev.RequestID, target, err)
		return WebhookOutcome{}, err
	}
	out.Applied = res.Applied
	out.RequestStatus = res.Request.Status
	out.ServiceStatus = res.Service.Status

	paymentID := ev.PaymentID
	if paymentID == "" {
		paymentID = res.Request.PaymentID
	}
	if paymentID != "" && u.payments != nil {
		status := entities.PaymentStatusApproved
		if target == entities.RequestStatusPaymentDeclined {
			status = entities.PaymentStatusDeclined
		}
		// The audit record is best effort: the request transition is already committed.
		if _, err := u.payments.UpdateStatus(ctx, paymentID, status); err != nil {
			log.Printf("[webhook][usecase] payment record update failed payment_id=%s err=%v", paymentID, err)
		}
	}

	log.Printf("[webhook][usecase] event handled request_id=%s applied=%t request_status=%s service_status=%s", ev.RequestID, out.Applied, out.RequestStatus, out.ServiceStatus)
	return out, nil
}

// lateReplay acknowledges a duplicate delivery that arrives after the
// request already moved past the event's outcome. Nothing is written.
func (u *PaymentWebhookUseCase) lateReplay(ctx context.Context, ev PaymentEvent, target entities.RequestStatus) (WebhookOutcome, bool) {
	req, err := u.engine.requests.GetByID(ctx, ev.RequestID)
	if err != nil || req.ID == "" {
		return WebhookOutcome{}, false
	}
	if !paymentOutcomePassed(req, target, ev.PaymentID) {
		return WebhookOutcome{}, false
	}
	svc, err := u.engine.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return WebhookOutcome{}, false
	}
	log.Printf("[webhook][usecase] late replay acknowledged request_id=%s status=%s event=%s", req.ID, req.Status, ev.Type)
	return WebhookOutcome{Event: ev, RequestStatus: req.Status, ServiceStatus: svc.Status}, true
}

// paymentOutcomePassed reports whether req already went through target and
// moved on. A cancelled request only counts when the event's payment is
// the one linked to it.
func paymentOutcomePassed(req entities.Request, target entities.RequestStatus, paymentID string) bool {
	samePayment := req.PaymentID != "" && (paymentID == "" || paymentID == req.PaymentID)
	switch target {
	case entities.RequestStatusPaymentAccepted:
		switch req.Status {
		case entities.RequestStatusInProgress, entities.RequestStatusFinalized:
			return paymentID == "" || req.PaymentID == "" || paymentID == req.PaymentID
		case entities.RequestStatusCancelled:
			return samePayment
		}
	case entities.RequestStatusPaymentDeclined:
		return req.Status == entities.RequestStatusCancelled && samePayment
	}
	return false
}

type paymentEventPayload struct {
	RequestID json.RawMessage `json:"request_id"`
	Event     string          `json:"event"`
	PaymentID json.RawMessage `json:"payment_id"`
	Data      *struct {
		Transaction *struct {
			ID        json.RawMessage `json:"id"`
			Status    string          `json:"status"`
			Reference json.RawMessage `json:"reference"`
		} `json:"transaction"`
	} `json:"data"`
}

// ParsePaymentEvent accepts the marketplace shape
//
//	{"request_id": 42, "event": "payment.accepted", "payment_id": "..."}
//
// and the Wompi "transaction.updated" shape, whose data.transaction.reference
// carries the request id. Ids may be JSON numbers or strings.
func ParsePaymentEvent(rawBody []byte) (PaymentEvent, error) {
	var p paymentEventPayload
	dec := json.NewDecoder(bytes.NewReader(rawBody))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return PaymentEvent{}, fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return PaymentEvent{}, fmt.Errorf("%w: trailing data after the event object", ErrInvalidWebhookPayload)
	}

	if p.Data != nil && p.Data.Transaction != nil && len(p.RequestID) == 0 {
		tx := p.Data.Transaction
		reqID, err := rawID(tx.Reference)
		if err != nil || reqID == "" {
			return PaymentEvent{}, fmt.Errorf("%w: transaction reference is required", ErrInvalidWebhookPayload)
		}
		payID, _ := rawID(tx.ID)
		ev := PaymentEvent{RequestID: reqID, PaymentID: payID, Type: strings.TrimSpace(p.Event)}
		switch strings.ToUpper(strings.TrimSpace(tx.Status)) {
		case "APPROVED":
			ev.Type = EventPaymentAccepted
		case "DECLINED", "VOIDED", "ERROR":
			ev.Type = EventPaymentDeclined
		}
		return ev, nil
	}

	reqID, err := rawID(p.RequestID)
	if err != nil {
		return PaymentEvent{}, fmt.Errorf("%w: request_id: %v", ErrInvalidWebhookPayload, err)
	}
	if reqID == "" {
		return PaymentEvent{}, fmt.Errorf("%w: request_id is required", ErrInvalidWebhookPayload)
	}
	payID, err := rawID(p.PaymentID)
	if err != nil {
		return PaymentEvent{}, fmt.Errorf("%w: payment_id: %v", ErrInvalidWebhookPayload, err)
	}
	return PaymentEvent{RequestID: reqID, Type: strings.TrimSpace(p.Event), PaymentID: payID}, nil
}

// rawID reads an identifier that may be encoded as a JSON string or number.
// Absent and null ids are returned as "".
func rawID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("must be a string or a number")
	}
	return n.String(), nil
}
