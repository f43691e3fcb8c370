package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"serviexpress/internal/adapter/http/dto/response"
	"serviexpress/internal/usecase"
	"serviexpress/pkg"

	"github.com/gin-gonic/gin"
)

const (
	defaultWebhookMaxBodyBytes = 64 << 10
	defaultWebhookTimeout      = 5 * time.Second
)

// WebhookHandler receives payment provider notifications. It sits outside
// the auth middleware: the body signature is the only credential.
type WebhookHandler struct {
	usecase      usecase.IPaymentWebhookUseCase
	maxBodyBytes int64
	timeout      time.Duration
}

func NewWebhookHandler(uc usecase.IPaymentWebhookUseCase, maxBodyBytes int64, timeout time.Duration) *WebhookHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultWebhookMaxBodyBytes
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookHandler{usecase: uc, maxBodyBytes: maxBodyBytes, timeout: timeout}
}

// ReceivePaymentEvent verifies and applies one delivery.
// @Summary      Payment provider webhook
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Event-Signature  header    string  true  "sha256=<hex hmac of the raw body>"
// @Success      200                {object}  response.WebhookResponse
// @Failure      400                {object}  pkg.HTTPError
// @Failure      401                {object}  pkg.HTTPError
// @Failure      404                {object}  pkg.HTTPError
// @Failure      409                {object}  pkg.HTTPError
// @Failure      413                {object}  pkg.HTTPError
// @Failure      504                {object}  pkg.HTTPError
// @Router       /webhooks/payment-provider [post]
func (h *WebhookHandler) ReceivePaymentEvent(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Printf("[webhook][handler] body too large limit=%d", h.maxBodyBytes)
			appErr := pkg.NewDomainErrorSimple("PAYLOAD_TOO_LARGE", "Webhook body too large", http.StatusRequestEntityTooLarge)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		log.Printf("[webhook][handler] body read failed err=%v", err)
		appErr := pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	outcome, err := h.usecase.Handle(ctx, c.Request.Header, raw)
	if err != nil {
		log.Printf("[webhook][handler] delivery rejected err=%v", err)
		appErr := mapWebhookError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[webhook][handler] delivery done event=%s request_id=%s applied=%t ignored=%t",
		outcome.Event.Type, outcome.Event.RequestID, outcome.Applied, outcome.Ignored)

	c.JSON(http.StatusOK, response.FromWebhookOutcome(outcome))
}

func mapWebhookError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidSignature):
		return pkg.NewDomainErrorSimple("INVALID_SIGNATURE", "Invalid webhook signature", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrInvalidWebhookPayload):
		return pkg.NewDomainErrorSimple("INVALID_PAYLOAD", "Invalid webhook payload", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrVerifierNotConfigured):
		return pkg.NewDomainError("WEBHOOK_NOT_CONFIGURED", "Webhook verification not configured", err, http.StatusServiceUnavailable)
	default:
		return mapCatalogError(err)
	}
}
