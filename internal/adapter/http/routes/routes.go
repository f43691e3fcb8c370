package routes

import (
	"context"
	"log"
	"os"
	"strconv"

	_ "serviexpress/docs" // generated by swag init
	"serviexpress/internal/adapter/http/dto/request"
	"serviexpress/internal/adapter/http/handlers"
	"serviexpress/internal/adapter/http/middleware"
	"serviexpress/internal/adapter/persistence/memory"
	"serviexpress/internal/adapter/persistence/repository"
	"serviexpress/internal/infrastructure/auth"
	"serviexpress/internal/infrastructure/config"
	"serviexpress/internal/infrastructure/database"
	"serviexpress/internal/infrastructure/external"
	"serviexpress/internal/infrastructure/payments"
	"serviexpress/internal/usecase"
	"serviexpress/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var router = gin.Default()

// Run will start the server
func Run() {
	cfg := config.Load()
	request.RegisterValidation()
	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	getRoutes(cfg)

	err := router.Run(":" + strconv.Itoa(cfg.Port))
	if err != nil {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

// catalog is the set of ports one Catalog Store backend provides.
type catalog struct {
	services    interfaces.IServiceRepository
	requests    interfaces.IRequestRepository
	transitions interfaces.ITransitionStore
	users       interfaces.IUserDirectory
	payments    interfaces.IPaymentRepository
}

func getRoutes(cfg config.Config) {
	store := openCatalog(cfg)

	engine := usecase.NewLifecycleEngine(store.services, store.requests, store.transitions)

	var paymentGateway interfaces.IPaymentGateway
	mpGateway, err := payments.NewMercadoPagoGateway(payments.GatewayOptions{
		AccessToken: cfg.MercadoPagoAccessToken,
		MockMode:    cfg.PaymentGatewayMock,
		MockStatus:  cfg.PaymentGatewayMockStatus,
	})
	if err != nil {
		log.Printf("Mercado Pago gateway not configured: %v", err)
	} else {
		paymentGateway = mpGateway
	}

	var verifier interfaces.ISignatureVerifier
	if cfg.WebhookSecret == "" {
		log.Printf("[webhook] PAYMENT_WEBHOOK_SECRET not set; deliveries will be refused")
	} else {
		verifier = payments.NewSignatureVerifier(cfg.WebhookSecret, cfg.WebhookSignatureHeaders)
	}

	catalogClient := external.NewServiceCatalogClient(cfg.ExternalServicesURL, cfg.ExternalServicesTimeout)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)

	serviceHandler := handlers.NewServiceHandler(usecase.NewServiceUseCase(store.services, store.users, catalogClient))
	requestHandler := handlers.NewRequestHandler(usecase.NewRequestUseCase(store.requests, store.services, engine))
	listingHandler := handlers.NewListingHandler(usecase.NewListingUseCase(store.services, store.requests))
	paymentHandler := handlers.NewPaymentHandler(usecase.NewPaymentUseCase(store.payments, store.services, store.requests, engine, paymentGateway))
	webhookHandler := handlers.NewWebhookHandler(
		usecase.NewPaymentWebhookUseCase(verifier, engine, store.payments),
		cfg.WebhookMaxBodyBytes,
		cfg.WebhookTimeout,
	)

	// Rotas publicas
	v1 := router.Group("/v1")
	addPingRoutes(v1)

	// Rotas autenticadas
	authenticated := v1.Group("", middleware.Auth(tokens, store.users))
	addCatalogRoutes(authenticated, serviceHandler, requestHandler, listingHandler, paymentHandler)

	addWebhookRoutes(router.Group(""), webhookHandler)
}

func openCatalog(cfg config.Config) catalog {
	if cfg.CatalogStore == config.StoreMemory {
		log.Printf("[catalog] using in-memory store")
		store := memory.NewStore()
		users := store.Users()
		if cfg.UsersSeed != "" {
			seedUsers(users, cfg.UsersSeed)
		}
		return catalog{
			services:    store.Services(),
			requests:    store.Requests(),
			transitions: store,
			users:       users,
			payments:    store.Payments(),
		}
	}

	ctx := context.Background()
	ddb, err := database.ConnectDynamoDB(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to DynamoDB: %v", err)
	}
	names := database.TableNames{
		Services: cfg.Tables.Services,
		Requests: cfg.Tables.Requests,
		Users:    cfg.Tables.Users,
		Payments: cfg.Tables.Payments,
	}
	if cfg.CreateTables {
		if err := database.EnsureTables(ctx, ddb, names); err != nil {
			log.Fatalf("Failed to create DynamoDB tables: %v", err)
		}
	}

	services := repository.NewServiceDynamoRepository(ddb, names.Services)
	requests := repository.NewRequestDynamoRepository(ddb, names.Requests, names.Services)
	return catalog{
		services:    services,
		requests:    requests,
		transitions: repository.NewTransitionDynamoStore(ddb, requests, services),
		users:       repository.NewUserDynamoDirectory(ddb, names.Users),
		payments:    repository.NewPaymentDynamoRepository(ddb, names.Payments),
	}
}

func seedUsers(users *memory.UserDirectory, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("[catalog] users seed not loaded path=%s err=%v", path, err)
		return
	}
	defer f.Close()
	n, err := users.LoadJSON(f)
	if err != nil {
		log.Printf("[catalog] users seed invalid path=%s err=%v", path, err)
		return
	}
	log.Printf("[catalog] users seeded count=%d", n)
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
