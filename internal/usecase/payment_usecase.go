package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"
)

var (
	ErrInvalidPaymentID               = fmt.Errorf("%w: invalid payment id", ErrValidation)
	ErrInvalidMPPayload               = fmt.Errorf("%w: invalid mercado pago payload", ErrValidation)
	ErrPaymentGatewayBadRequest       = errors.New("payment gateway bad request")
	ErrPaymentGatewayUnauthorized     = errors.New("payment gateway unauthorized")
	ErrPaymentGatewayInvalidUsers     = errors.New("payment gateway invalid users involved")
	ErrPaymentGatewayCustomerNotFound = errors.New("payment gateway customer not found")
	ErrPaymentGatewayNotConfigured    = errors.New("payment gateway not configured")
)

// Checkout is the result of StartPayment: the payment as recorded and the
// request after the engine applied every transition the gateway answer
// implied.
type Checkout struct {
	Payment entities.Payment
	Request entities.Request
	Service entities.Service
}

// IPaymentUseCase drives checkout through the payment gateway.
//
//   - the owning client starts payment for a PENDING request of an AVAILABLE service;
//   - the request moves to PAYMENT_IN_PROGRESS and is linked to the gateway payment id;
//   - an immediate approved/declined answer is applied like a webhook event.
type IPaymentUseCase interface {
	StartPayment(ctx context.Context, actor entities.Actor, requestID string, mpPayload json.RawMessage) (Checkout, error)
	GetByID(ctx context.Context, actor entities.Actor, id string) (entities.Payment, error)
	ListByRequestID(ctx context.Context, actor entities.Actor, requestID string) ([]entities.Payment, error)
}

type PaymentUseCase struct {
	repo     interfaces.IPaymentRepository
	services interfaces.IServiceRepository
	requests interfaces.IRequestRepository
	engine   *LifecycleEngine
	gateway  interfaces.IPaymentGateway
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(
	repo interfaces.IPaymentRepository,
	services interfaces.IServiceRepository,
	requests interfaces.IRequestRepository,
	engine *LifecycleEngine,
	gateway interfaces.IPaymentGateway,
) *PaymentUseCase {
	return &PaymentUseCase{repo: repo, services: services, requests: requests, engine: engine, gateway: gateway}
}

func (u *PaymentUseCase) StartPayment(ctx context.Context, actor entities.Actor, requestID string, mpPayload json.RawMessage) (Checkout, error) {
	log.Printf("[payment][usecase] start-payment raw_request_id=%q payload_len=%d", requestID, len(mpPayload))
	mockMode := isPaymentGatewayMockEnabled()
	if !actor.Authenticated() {
		return Checkout{}, ErrUnauthenticated
	}
	if actor.Role != entities.RoleClient {
		return Checkout{}, ErrForbidden
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return Checkout{}, ErrInvalidRequestID
	}
	if len(mpPayload) == 0 || !json.Valid(mpPayload) {
		if !mockMode {
			log.Printf("[payment][usecase] invalid payload request_id=%s", requestID)
			return Checkout{}, ErrInvalidMPPayload
		}
		mpPayload = json.RawMessage("{}")
	}
	if u.gateway == nil {
		log.Printf("[payment][usecase] gateway not configured request_id=%s", requestID)
		return Checkout{}, ErrPaymentGatewayNotConfigured
	}

	req, err := u.requests.GetByID(ctx, requestID)
	if err != nil {
		return Checkout{}, err
	}
	if req.ID == "" || req.ClientID != actor.ID {
		log.Printf("[payment][usecase] request not visible request_id=%s actor_id=%s", requestID, actor.ID)
		return Checkout{}, ErrRequestNotFound
	}
	if req.PaymentID != "" {
		return Checkout{}, ErrPaymentAlreadyLinked
	}
	if req.Status != entities.RequestStatusPending {
		return Checkout{}, fmt.Errorf("%w: %s -> %s", ErrInvalidRequestTransition, req.Status, entities.RequestStatusPaymentInProgress)
	}
	svc, err := u.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return Checkout{}, err
	}
	if svc.ID == "" {
		return Checkout{}, ErrServiceNotFound
	}
	if svc.Status != entities.ServiceStatusAvailable {
		log.Printf("[payment][usecase] service not available request_id=%s service_id=%s status=%s", req.ID, svc.ID, svc.Status)
		return Checkout{}, ErrServiceNotAvailable
	}
	log.Printf("[payment][usecase] request loaded request_id=%s service_id=%s price=%s", req.ID, svc.ID, svc.Price.StringFixed(2))

	// Mercado Pago uses external_reference to reconcile events with the request.
	var reqMap map[string]any
	if err := json.Unmarshal(mpPayload, &reqMap); err == nil && reqMap != nil {
		if !mockMode && !hasNonEmptyString(reqMap, "payment_method_id") {
			log.Printf("[payment][usecase] missing payment_method_id request_id=%s", req.ID)
			return Checkout{}, ErrInvalidMPPayload
		}
		if !mockMode {
			normalizeSandboxPayerFromUserID(reqMap)
			ensurePayerDefaults(reqMap)
		}
		if !mockMode && !hasPayer(reqMap) {
			log.Printf("[payment][usecase] missing/invalid payer request_id=%s", req.ID)
			return Checkout{}, ErrInvalidMPPayload
		}

		reqMap["external_reference"] = req.ID
		if _, ok := reqMap["description"]; !ok {
			reqMap["description"] = fmt.Sprintf("Service %s", svc.Name)
		}
		// The stored price is the only source of truth for the amount.
		reqMap["transaction_amount"] = svc.Price.InexactFloat64()
		if b, err := json.Marshal(reqMap); err == nil {
			mpPayload = b
			log.Printf("[payment][usecase] payload enriched request_id=%s payload_len=%d", req.ID, len(mpPayload))
		}
	} else if !mockMode {
		log.Printf("[payment][usecase] payload is not an object request_id=%s", req.ID)
		return Checkout{}, ErrInvalidMPPayload
	}

	log.Printf("[payment][usecase] calling payment gateway request_id=%s mock=%t", req.ID, mockMode)
	providerPaymentID, providerStatus, providerResp, err := u.gateway.CreatePayment(ctx, mpPayload)
	if err != nil {
		log.Printf("[payment][usecase] payment gateway failed request_id=%s err=%v", req.ID, err)
		return Checkout{}, mapGatewayError(err)
	}
	log.Printf("[payment][usecase] payment gateway success request_id=%s provider_payment_id=%s provider_status=%s", req.ID, providerPaymentID, providerStatus)

	var parsed map[string]interface{}
	if len(providerResp) > 0 {
		if err := json.Unmarshal(providerResp, &parsed); err != nil {
			log.Printf("[payment][usecase] provider response unmarshal failed request_id=%s err=%v", req.ID, err)
		}
	}

	payment := entities.Payment{
		ID:                 providerPaymentID,
		RequestID:          req.ID,
		Date:               time.Now().UTC(),
		Status:             entities.PaymentStatusFromProvider(providerStatus),
		ProviderPayloadRaw: providerResp,
		ProviderPayload:    parsed,
	}
	if u.repo != nil {
		created, err := u.repo.Create(ctx, payment)
		if err != nil {
			log.Printf("[payment][usecase] payment repository create failed request_id=%s payment_id=%s err=%v", req.ID, payment.ID, err)
			return Checkout{}, err
		}
		payment = created
	}

	res, err := u.engine.TransitionRequest(ctx, req.ID, entities.RequestStatusPaymentInProgress, linkPayment(payment.ID))
	if err != nil {
		log.Printf("[payment][usecase] linking payment failed request_id=%s payment_id=%s err=%v", req.ID, payment.ID, err)
		return Checkout{}, err
	}
	out := Checkout{Payment: payment, Request: res.Request, Service: res.Service}

	var target entities.RequestStatus
	switch payment.Status {
	case entities.PaymentStatusApproved:
		target = entities.RequestStatusPaymentAccepted
	case entities.PaymentStatusDeclined:
		target = entities.RequestStatusPaymentDeclined
	default:
		log.Printf("[payment][usecase] start-payment awaiting webhook request_id=%s payment_id=%s", req.ID, payment.ID)
		return out, nil
	}

	res, err = u.engine.TransitionRequest(ctx, req.ID, target, nil)
	if err != nil {
		log.Printf("[payment][usecase] applying gateway outcome failed request_id=%s target=%s err=%v", req.ID, target, err)
		return out, err
	}
	out.Request = res.Request
	out.Service = res.Service
	log.Printf("[payment][usecase] start-payment success request_id=%s payment_id=%s request_status=%s service_status=%s", req.ID, payment.ID, out.Request.Status, out.Service.Status)
	return out, nil
}

func (u *PaymentUseCase) GetByID(ctx context.Context, actor entities.Actor, id string) (entities.Payment, error) {
	if !actor.Authenticated() {
		return entities.Payment{}, ErrUnauthenticated
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Payment{}, ErrInvalidPaymentID
	}

	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	if err := u.authorizeRequestRead(ctx, actor, p.RequestID); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
			return entities.Payment{}, ErrPaymentNotFound
		}
		return entities.Payment{}, err
	}
	return p, nil
}

func (u *PaymentUseCase) ListByRequestID(ctx context.Context, actor entities.Actor, requestID string) ([]entities.Payment, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}
	if err := u.authorizeRequestRead(ctx, actor, requestID); err != nil {
		if errors.Is(err, ErrForbidden) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return u.repo.ListByRequestID(ctx, requestID)
}

func (u *PaymentUseCase) authorizeRequestRead(ctx context.Context, actor entities.Actor, requestID string) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	req, err := u.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ID == "" {
		return ErrRequestNotFound
	}
	svc, err := u.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return err
	}
	return AuthorizeRequestRead(actor, req, svc)
}

// linkPayment sets the payment reference once; a different id already on
// the request is a conflict.
func linkPayment(paymentID string) func(next *entities.Request) error {
	return func(next *entities.Request) error {
		if paymentID == "" {
			return nil
		}
		if next.PaymentID != "" && next.PaymentID != paymentID {
			return ErrPaymentAlreadyLinked
		}
		next.PaymentID = paymentID
		return nil
	}
}

func mapGatewayError(err error) error {
	switch {
	case isGatewayCustomerNotFound(err):
		return ErrPaymentGatewayCustomerNotFound
	case isGatewayInvalidUsers(err):
		return ErrPaymentGatewayInvalidUsers
	case isGatewayUnauthorized(err):
		return ErrPaymentGatewayUnauthorized
	case isGatewayBadRequest(err):
		return ErrPaymentGatewayBadRequest
	}
	return err
}

func hasNonEmptyString(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) != ""
}

func hasPayer(m map[string]any) bool {
	v, ok := m["payer"]
	if !ok {
		return false
	}
	payer, ok := v.(map[string]any)
	if !ok {
		return false
	}
	return hasNonEmptyString(payer, "email") || hasPayerID(payer)
}

func hasPayerID(payer map[string]any) bool {
	v, ok := payer["id"]
	if !ok || v == nil {
		return false
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	return s != "" && s != "<nil>"
}

func ensurePayerDefaults(m map[string]any) {
	v, ok := m["payer"]
	if !ok || v == nil {
		v = map[string]any{}
		m["payer"] = v
	}
	payer, ok := v.(map[string]any)
	if !ok {
		return
	}

	if _, ok := payer["type"]; !ok {
		payer["type"] = "customer"
	}

	// In sandbox either payer.id or payer.email may be used.
	if !hasPayerID(payer) && !hasNonEmptyString(payer, "email") {
		if email := strings.TrimSpace(os.Getenv("MERCADOPAGO_TEST_PAYER_EMAIL")); email != "" {
			payer["email"] = email
		} else if strings.HasPrefix(strings.TrimSpace(os.Getenv("MERCADOPAGO_ACCESS_TOKEN")), "TEST-") {
			payer["email"] = "test_user_br@testuser.com"
		}
	}
}

func normalizeSandboxPayerFromUserID(m map[string]any) {
	v, ok := m["payer"]
	if !ok || v == nil {
		return
	}
	payer, ok := v.(map[string]any)
	if !ok {
		return
	}
	if !hasPayerID(payer) || hasNonEmptyString(payer, "email") {
		return
	}
	if !strings.HasPrefix(strings.TrimSpace(os.Getenv("MERCADOPAGO_ACCESS_TOKEN")), "TEST-") {
		return
	}

	configuredUserID := strings.TrimSpace(os.Getenv("MERCADOPAGO_TEST_PAYER_USER_ID"))
	configuredEmail := strings.TrimSpace(os.Getenv("MERCADOPAGO_TEST_PAYER_EMAIL"))
	if configuredUserID == "" || configuredEmail == "" {
		return
	}
	rawID := strings.TrimSpace(fmt.Sprintf("%v", payer["id"]))
	if rawID != configuredUserID {
		return
	}

	payer["email"] = configuredEmail
	delete(payer, "id")
	log.Printf("[payment][usecase] mapped sandbox payer user_id to payer.email")
}

func isPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}

func isGatewayBadRequest(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"bad_request\"") || strings.Contains(msg, "\"status\":400")
}

func isGatewayUnauthorized(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"unauthorized\"") || strings.Contains(msg, "\"status\":401")
}

func isGatewayInvalidUsers(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid users involved") || strings.Contains(msg, "\"code\":2034")
}

func isGatewayCustomerNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "customer not found") || strings.Contains(msg, "\"code\":2002")
}
