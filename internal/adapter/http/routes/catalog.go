package routes

import (
	"serviexpress/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathServices = "/services"
	PathRequests = "/requests"
	PathPayments = "/payments"
	PathWebhooks = "/webhooks"
)

func addCatalogRoutes(
	rg *gin.RouterGroup,
	serviceHandler *handlers.ServiceHandler,
	requestHandler *handlers.RequestHandler,
	listingHandler *handlers.ListingHandler,
	paymentHandler *handlers.PaymentHandler,
) {
	services := rg.Group(PathServices)
	{
		services.GET("", listingHandler.ListServices)
		services.POST("", serviceHandler.CreateService)
		services.GET("/:id", serviceHandler.GetService)
		services.PATCH("/:id", serviceHandler.UpdateService)
		services.DELETE("/:id", serviceHandler.DeleteService)
		services.POST("/auto/:kind", serviceHandler.ImportService)
		services.GET("/auto/:kind", serviceHandler.ImportServiceText)
	}

	requests := rg.Group(PathRequests)
	{
		requests.GET("", listingHandler.ListRequests)
		requests.POST("", requestHandler.CreateRequest)
		requests.GET("/:id", requestHandler.GetRequest)
		requests.PATCH("/:id", requestHandler.UpdateRequest)
		requests.DELETE("/:id", requestHandler.DeleteRequest)
		requests.PATCH("/:id/status", requestHandler.TransitionRequest)
		requests.POST("/:id/payments", paymentHandler.StartPayment)
		requests.GET("/:id/payments", paymentHandler.ListPayments)
		requests.GET("/:id/payments/latest", paymentHandler.GetLatestPayment)
	}

	payments := rg.Group(PathPayments)
	{
		payments.GET("/:id", paymentHandler.GetPayment)
	}
}

// addWebhookRoutes registers provider callbacks. They are not behind the
// auth middleware; each delivery is verified by its signature.
func addWebhookRoutes(rg *gin.RouterGroup, webhookHandler *handlers.WebhookHandler) {
	webhooks := rg.Group(PathWebhooks)
	{
		webhooks.POST("/payment-provider", webhookHandler.ReceivePaymentEvent)
	}
}
