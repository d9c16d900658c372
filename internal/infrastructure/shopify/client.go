package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/pkg/config"
	"github.com/jhoicas/kitsync/pkg/retry"
)

var _ reconcile.StorefrontSink = (*Client)(nil)

const apiVersion = "2023-10"

// Client tienda Shopify destino: catálogo de variantes paginado por header
// Link (cursor rel="next") y escritura de disponibilidad absoluta por
// inventory_item_id en la location configurada.
type Client struct {
	http       *http.Client
	name       string
	baseURL    string
	token      string
	locationID int64
	maxPages   int
	retry      retry.Policy
	log        zerolog.Logger
}

// NewClient construye el cliente de una tienda.
func NewClient(cfg config.StoreConfig, maxPages int, timeout time.Duration, pol retry.Policy, log zerolog.Logger) *Client {
	if maxPages <= 0 {
		maxPages = 100
	}
	baseURL := cfg.ShopURL
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	pol.Retryable = retryableStatusErr
	return &Client{
		http:       &http.Client{Timeout: timeout},
		name:       cfg.Name,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      cfg.AccessToken,
		locationID: cfg.LocationID,
		maxPages:   maxPages,
		retry:      pol,
		log:        log.With().Str("store", cfg.Name).Logger(),
	}
}

// Name nombre configurado de la tienda (clave de las reglas de inflación).
func (c *Client) Name() string {
	return c.name
}

type apiVariant struct {
	SKU             string `json:"sku"`
	InventoryItemID int64  `json:"inventory_item_id"`
	Title           string `json:"title"`
}

type apiProduct struct {
	Title    string       `json:"title"`
	Variants []apiVariant `json:"variants"`
}

type apiProductPage struct {
	Products []apiProduct `json:"products"`
}

// ListVariants recorre el catálogo completo siguiendo el cursor del header
// Link hasta agotarlo o llegar al tope de páginas. Devuelve SKU normalizado ->
// variante; variantes sin SKU se ignoran.
func (c *Client) ListVariants(ctx context.Context) (map[string]reconcile.Variant, error) {
	variants := make(map[string]reconcile.Variant)

	endpoint := fmt.Sprintf("%s/admin/api/%s/products.json?limit=250", c.baseURL, apiVersion)
	for page := 1; endpoint != "" && page <= c.maxPages; page++ {
		var (
			result apiProductPage
			next   string
		)
		err := c.retry.Do(ctx, "shopify.list_products", func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			req.Header.Set("X-Shopify-Access-Token", c.token)
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if err := checkStatus(resp); err != nil {
				return err
			}
			next = nextLink(resp.Header.Get("Link"))
			return json.NewDecoder(resp.Body).Decode(&result)
		})
		if err != nil {
			return nil, fmt.Errorf("listar productos de %s: %w", c.name, err)
		}

		for _, product := range result.Products {
			for _, v := range product.Variants {
				sku := entity.NormalizeSKU(v.SKU)
				if sku == "" {
					continue
				}
				name := strings.Trim(strings.TrimSpace(product.Title+" - "+v.Title), " -")
				variants[sku] = reconcile.Variant{InventoryItemID: v.InventoryItemID, Name: name}
			}
		}

		endpoint = next
	}

	return variants, nil
}

// SetAvailable fija la disponibilidad absoluta de un inventory item en la
// location configurada.
func (c *Client) SetAvailable(ctx context.Context, inventoryItemID, available int64) error {
	endpoint := fmt.Sprintf("%s/admin/api/%s/inventory_levels/set.json", c.baseURL, apiVersion)
	payload, err := json.Marshal(map[string]int64{
		"location_id":       c.locationID,
		"inventory_item_id": inventoryItemID,
		"available":         available,
	})
	if err != nil {
		return err
	}

	return c.retry.Do(ctx, "shopify.set_available", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("X-Shopify-Access-Token", c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return checkStatus(resp)
	})
}

// nextLink extrae la URL rel="next" de un header Link de Shopify:
//
//	<https://shop.myshopify.com/admin/api/...&page_info=xyz>; rel="next"
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode == http.StatusTooManyRequests {
		var after time.Duration
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			after = time.Duration(secs) * time.Second
		}
		return &retry.RateLimitError{RetryAfter: after}
	}
	return &statusError{Code: resp.StatusCode, Body: string(body)}
}

func retryableStatusErr(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}
