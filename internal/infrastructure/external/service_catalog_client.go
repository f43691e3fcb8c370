// Package external fetches service templates from a third party catalog.
package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

var (
	ErrCatalogNotConfigured = errors.New("external service catalog not configured")
	ErrCatalogEmptyResponse = errors.New("external service catalog returned no data")
	ErrCatalogUnavailable   = errors.New("external service catalog unavailable")
)

const maxCatalogResponseBytes = 1 << 20

// catalogItem accepts the english and the legacy spanish field names.
type catalogItem struct {
	Name        string           `json:"name"`
	Nombre      string           `json:"nombre"`
	Description string           `json:"description"`
	Descripcion string           `json:"descripcion"`
	Price       *decimal.Decimal `json:"price"`
	Precio      *decimal.Decimal `json:"precio"`
}

// ServiceCatalogClient calls GET {baseURL}/{kind} and maps the answer to a
// Service. Outbound calls go through a token bucket.
type ServiceCatalogClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

var _ interfaces.IExternalServiceFetcher = (*ServiceCatalogClient)(nil)

func NewServiceCatalogClient(baseURL string, timeout time.Duration) *ServiceCatalogClient {
	return &ServiceCatalogClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

func (c *ServiceCatalogClient) FetchService(ctx context.Context, kind string) (entities.Service, error) {
	if c == nil || c.baseURL == "" {
		return entities.Service{}, ErrCatalogNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return entities.Service{}, err
	}

	endpoint := c.baseURL + "/" + url.PathEscape(kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return entities.Service{}, err
	}
	req.Header.Set("Accept", "application/json")

	log.Printf("[external][catalog] fetch start kind=%s", kind)
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[external][catalog] fetch failed kind=%s err=%v", kind, err)
		return entities.Service{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[external][catalog] unexpected status kind=%s status=%d", kind, resp.StatusCode)
		return entities.Service{}, fmt.Errorf("%w: status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var item catalogItem
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogResponseBytes))
	if err != nil {
		return entities.Service{}, err
	}
	if len(strings.TrimSpace(string(body))) == 0 || string(body) == "null" {
		return entities.Service{}, ErrCatalogEmptyResponse
	}
	if err := json.Unmarshal(body, &item); err != nil {
		log.Printf("[external][catalog] decode failed kind=%s err=%v", kind, err)
		return entities.Service{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	svc := entities.Service{
		Name:        firstNonEmpty(item.Name, item.Nombre),
		Description: firstNonEmpty(item.Description, item.Descripcion),
		Status:      entities.ServiceStatusAvailable,
	}
	switch {
	case item.Price != nil:
		svc.Price = *item.Price
	case item.Precio != nil:
		svc.Price = *item.Precio
	default:
		return entities.Service{}, fmt.Errorf("%w: price missing", ErrCatalogEmptyResponse)
	}
	log.Printf("[external][catalog] fetch success kind=%s name=%q price=%s", kind, svc.Name, svc.Price.String())
	return svc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
