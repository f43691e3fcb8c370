// Package config gathers the environment driven settings of the API.
// Values come from the process environment; cmd/api loads a .env file
// first through godotenv/autoload.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

type Tables struct {
	Services string
	Requests string
	Users    string
	Payments string
}

type Config struct {
	Port         int
	CatalogStore string
	UsersSeed    string

	Tables       Tables
	CreateTables bool

	JWTSecret string
	JWTIssuer string

	WebhookSecret           string
	WebhookSignatureHeaders []string
	WebhookMaxBodyBytes     int64
	WebhookTimeout          time.Duration

	MercadoPagoAccessToken   string
	PaymentGatewayMock       bool
	PaymentGatewayMockStatus string

	ExternalServicesURL     string
	ExternalServicesTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port:         getenvInt("PORT", 8080),
		CatalogStore: strings.ToLower(getenvDefault("CATALOG_STORE", StoreDynamoDB)),
		UsersSeed:    os.Getenv("USERS_SEED_FILE"),
		Tables: Tables{
			Services: getenvDefault("DYNAMODB_TABLE_SERVICES", "services"),
			Requests: getenvDefault("DYNAMODB_TABLE_REQUESTS", "service_requests"),
			Users:    getenvDefault("DYNAMODB_TABLE_USERS", "users"),
			Payments: getenvDefault("DYNAMODB_TABLE_PAYMENTS", "payments"),
		},
		CreateTables: getenvBool("DYNAMODB_CREATE_TABLES", false),

		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		JWTIssuer: getenvDefault("AUTH_JWT_ISSUER", "serviexpress"),

		WebhookSecret:           os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		WebhookSignatureHeaders: getenvList("PAYMENT_WEBHOOK_SIGNATURE_HEADERS", []string{"X-Event-Signature", "Integrity-Signature", "X-Signature"}),
		WebhookMaxBodyBytes:     int64(getenvInt("WEBHOOK_MAX_BODY_BYTES", 64<<10)),
		WebhookTimeout:          getenvDuration("WEBHOOK_TIMEOUT", 5*time.Second),

		MercadoPagoAccessToken:   os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		PaymentGatewayMock:       getenvBool("PAYMENT_GATEWAY_MOCK", false) || getenvBool("MERCADOPAGO_MOCK", false),
		PaymentGatewayMockStatus: strings.ToLower(getenvDefault("PAYMENT_GATEWAY_MOCK_STATUS", "approved")),

		ExternalServicesURL:     os.Getenv("EXTERNAL_SERVICES_URL"),
		ExternalServicesTimeout: getenvDuration("EXTERNAL_SERVICES_TIMEOUT", 10*time.Second),
	}
	if cfg.CatalogStore != StoreMemory && cfg.CatalogStore != StoreDynamoDB {
		log.Printf("[config] unknown CATALOG_STORE=%q, using %s", cfg.CatalogStore, StoreDynamoDB)
		cfg.CatalogStore = StoreDynamoDB
	}
	return cfg
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return def
	case "1", "true", "yes", "on", "mock":
		return true
	}
	return false
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func getenvList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
