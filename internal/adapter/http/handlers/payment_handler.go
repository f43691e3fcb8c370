package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"serviexpress/internal/adapter/http/dto/response"
	"serviexpress/internal/adapter/http/middleware"
	"serviexpress/internal/usecase"
	"serviexpress/pkg"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles checkout and payment lookups of requests.
type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
}

func NewPaymentHandler(uc usecase.IPaymentUseCase) *PaymentHandler {
	return &PaymentHandler{usecase: uc}
}

// StartPayment sends the request checkout to Mercado Pago.
// @Summary      Start request payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Request ID"
// @Param        payment  body      request.PaymentCreateRequest    true  "Mercado Pago payload"
// @Success      200      {object}  response.CheckoutResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      409      {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /requests/{id}/payments [post]
func (h *PaymentHandler) StartPayment(c *gin.Context) {
	requestID := c.Param("id")
	log.Printf("[payment][handler] create start request_id=%s", requestID)
	mockMode := isPaymentGatewayMockEnabled()
	mpPayload, err := readMPPayload(c)
	if err != nil {
		if mockMode {
			log.Printf("[payment][handler] payload invalid in mock mode; fallback to empty payload request_id=%s err=%v", requestID, err)
			mpPayload = json.RawMessage("{}")
		} else {
			log.Printf("[payment][handler] invalid payload request_id=%s err=%v", requestID, err)
			appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
	}

	checkout, err := h.usecase.StartPayment(c.Request.Context(), middleware.ActorFrom(c), requestID, mpPayload)
	if err != nil {
		log.Printf("[payment][handler] create failed request_id=%s err=%v", requestID, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[payment][handler] create success request_id=%s payment_id=%s status=%s request_status=%s",
		requestID, checkout.Payment.ID, checkout.Payment.Status, checkout.Request.Status)

	c.JSON(http.StatusOK, response.FromCheckout(checkout))
}

// ListPayments returns every payment attempt of a request.
// @Summary      List request payments
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {array}   response.PaymentResponse
// @Failure      404  {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /requests/{id}/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	requestID := c.Param("id")
	payments, err := h.usecase.ListByRequestID(c.Request.Context(), middleware.ActorFrom(c), requestID)
	if err != nil {
		log.Printf("[payment][handler] list failed request_id=%s err=%v", requestID, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPayments(payments))
}

// GetLatestPayment returns the most recent payment of a request.
// @Summary      Latest request payment
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.PaymentResponse
// @Failure      404  {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /requests/{id}/payments/latest [get]
func (h *PaymentHandler) GetLatestPayment(c *gin.Context) {
	requestID := c.Param("id")
	log.Printf("[payment][handler] get-latest start request_id=%s", requestID)

	payments, err := h.usecase.ListByRequestID(c.Request.Context(), middleware.ActorFrom(c), requestID)
	if err != nil {
		log.Printf("[payment][handler] get-latest failed request_id=%s err=%v", requestID, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	if len(payments) == 0 {
		log.Printf("[payment][handler] get-latest not-found request_id=%s", requestID)
		appErr := pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	latest := payments[0]
	for _, p := range payments[1:] {
		if p.Date.After(latest.Date) {
			latest = p
		}
	}
	c.JSON(http.StatusOK, response.FromPayment(latest))
}

// GetPayment returns one payment by its gateway id.
// @Summary      Get payment
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.PaymentResponse
// @Failure      404  {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.usecase.GetByID(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPayment(payment))
}

func readMPPayload(c *gin.Context) (json.RawMessage, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("request body is not valid json")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if wrapped, ok := envelope["mp_payload"]; ok {
			if len(strings.TrimSpace(string(wrapped))) == 0 || strings.TrimSpace(string(wrapped)) == "null" {
				return nil, errors.New("mp_payload cannot be empty")
			}
			return wrapped, nil
		}
	}

	return json.RawMessage(raw), nil
}

// mapPaymentError renders gateway failures and falls back to the catalog
// kinds for everything else.
func mapPaymentError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidMPPayload), errors.Is(err, usecase.ErrPaymentGatewayBadRequest):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayCustomerNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_CUSTOMER_NOT_FOUND", "Payer not found for this Mercado Pago test context", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayInvalidUsers):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_INVALID_USERS", "Invalid users involved between seller token and payer test user", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayUnauthorized):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_UNAUTHORIZED", "Payment provider unauthorized", http.StatusBadGateway)
	case errors.Is(err, usecase.ErrPaymentGatewayNotConfigured):
		return pkg.NewDomainError("PAYMENT_PROVIDER_NOT_CONFIGURED", "Payment provider not configured", err, http.StatusServiceUnavailable)
	default:
		return mapCatalogError(err)
	}
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
