package shipstation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/pkg/config"
	"github.com/jhoicas/kitsync/pkg/retry"
)

var _ reconcile.OrderSource = (*Client)(nil)

// Client origen de órdenes sobre la API REST de ShipStation (Basic auth,
// paginación page/pages). Sigue la paginación hasta completar o hasta el tope
// de páginas, lo primero que ocurra, para acotar una corrida contra un
// upstream que se porta mal.
type Client struct {
	http     *http.Client
	baseURL  string
	auth     string
	pageSize int
	maxPages int
	retry    retry.Policy
	log      zerolog.Logger
}

// NewClient construye el cliente. El timeout aplica por request.
func NewClient(cfg config.ShipStationConfig, maxPages int, timeout time.Duration, pol retry.Policy, log zerolog.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	if maxPages <= 0 {
		maxPages = 100
	}
	pol.Retryable = retryableStatusErr
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  cfg.BaseURL,
		auth:     base64.StdEncoding.EncodeToString([]byte(cfg.APIKey + ":" + cfg.APISecret)),
		pageSize: cfg.PageSize,
		maxPages: maxPages,
		retry:    pol,
		log:      log,
	}
}

type apiOrderItem struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

type apiOrder struct {
	OrderID     json.Number    `json:"orderId"`
	OrderStatus string         `json:"orderStatus"`
	PaymentDate string         `json:"paymentDate"`
	ShipDate    string         `json:"shipDate"`
	ModifyDate  string         `json:"modifyDate"`
	Items       []apiOrderItem `json:"items"`
}

type apiOrderPage struct {
	Orders []apiOrder `json:"orders"`
	Pages  int        `json:"pages"`
	Total  int        `json:"total"`
}

// ListOrders trae todas las páginas de órdenes con el estado dado, ordenadas
// por fecha de creación descendente. createDateStart en cero omite el filtro.
// Una página que agota reintentos corta la paginación y devuelve lo acumulado:
// la corrida sigue con resultado parcial en vez de abortar.
func (c *Client) ListOrders(ctx context.Context, status string, createDateStart time.Time) ([]entity.Order, error) {
	var all []entity.Order

	page := 1
	totalPages := 1
	for page <= c.maxPages {
		c.log.Info().Int("page", page).Str("status", status).Msg("pidiendo página de órdenes")

		result, err := c.fetchPage(ctx, status, createDateStart, page)
		if err != nil {
			if len(all) == 0 {
				return nil, err
			}
			c.log.Error().Err(err).Int("page", page).Msg("página de órdenes fallida, se corta la paginación")
			break
		}

		for _, o := range result.Orders {
			all = append(all, entity.Order{
				ID:          o.OrderID.String(),
				Status:      o.OrderStatus,
				PaymentDate: o.PaymentDate,
				ShipDate:    o.ShipDate,
				ModifyDate:  o.ModifyDate,
				Items:       mapItems(o.Items),
			})
		}

		if result.Pages > 0 {
			totalPages = result.Pages
		}
		c.log.Info().Int("page", page).Int("of", totalPages).Msg("página de órdenes recibida")
		if page >= totalPages {
			break
		}
		page++
	}

	c.log.Info().Int("orders", len(all)).Msg("órdenes recibidas del origen")
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, status string, createDateStart time.Time, page int) (*apiOrderPage, error) {
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("sortBy", "createDate")
	params.Set("sortDir", "DESC")
	params.Set("orderStatus", status)
	if !createDateStart.IsZero() {
		params.Set("createDateStart", createDateStart.Format("2006-01-02"))
	}
	endpoint := c.baseURL + "/orders?" + params.Encode()

	var result apiOrderPage
	err := c.retry.Do(ctx, "shipstation.list_orders", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Basic "+c.auth)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			return err
		}
		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func mapItems(items []apiOrderItem) []entity.OrderItem {
	out := make([]entity.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, entity.OrderItem{SKU: it.SKU, Quantity: it.Quantity})
	}
	return out
}

// statusError respuesta HTTP no exitosa, con el cuerpo para diagnóstico.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// checkStatus convierte una respuesta no-2xx en error; 429 se señala como
// rate limit (respetando Retry-After) para que la política espere y reintente.
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

// retryableStatusErr reintenta 5xx y errores de transporte; un 4xx no se reintenta.
func retryableStatusErr(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}
