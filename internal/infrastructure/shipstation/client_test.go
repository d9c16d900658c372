package shipstation_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitsync/internal/infrastructure/shipstation"
	"github.com/jhoicas/kitsync/pkg/config"
	"github.com/jhoicas/kitsync/pkg/logger"
	"github.com/jhoicas/kitsync/pkg/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Log:         logger.Nop(),
	}
}

func newTestClient(baseURL string, maxPages int) *shipstation.Client {
	cfg := config.ShipStationConfig{
		APIKey:    "clave",
		APISecret: "secreto",
		BaseURL:   baseURL,
		PageSize:  100,
	}
	return shipstation.NewClient(cfg, maxPages, 5*time.Second, fastPolicy(), logger.Nop())
}

func TestListOrders_PaginaHastaCompletar(t *testing.T) {
	var authSeen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authSeen = r.Header.Get("Authorization")
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "shipped", r.URL.Query().Get("orderStatus"))
		assert.Equal(t, "2024-07-01", r.URL.Query().Get("createDateStart"))

		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"orders": [{"orderId": 1000%s, "orderStatus": "shipped",
				"shipDate": "2024-07-0%s", "items": [{"sku": "comp-a", "quantity": 2}]}],
			"pages": 2, "total": 2
		}`, page, page)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	orders, err := client.ListOrders(context.Background(), "shipped",
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, orders, 2, "Debe recorrer las dos páginas")
	assert.Equal(t, "10001", orders[0].ID, "orderId numérico se conserva como texto")
	assert.Equal(t, "10002", orders[1].ID)
	assert.Equal(t, "comp-a", orders[0].Items[0].SKU, "El SKU viaja crudo; se normaliza aguas arriba")
	assert.Equal(t, int64(2), orders[0].Items[0].Quantity)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("clave:secreto"))
	assert.Equal(t, wantAuth, authSeen)
}

func TestListOrders_SinFiltroDeFechaOmiteElParametro(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["createDateStart"]
		assert.False(t, present, "Fecha cero no debe enviar createDateStart")
		fmt.Fprint(w, `{"orders": [], "pages": 1}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 100).ListOrders(context.Background(), "awaiting_shipment", time.Time{})
	require.NoError(t, err)
}

func TestListOrders_RespetaElTopeDePaginas(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"orders": [{"orderId": 1, "orderStatus": "shipped"}], "pages": 500}`)
	}))
	defer srv.Close()

	orders, err := newTestClient(srv.URL, 3).ListOrders(context.Background(), "shipped", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "Nunca más páginas que el tope")
	assert.Len(t, orders, 3)
}

// TestListOrders_RateLimitReintentaConRetryAfter verifica que un 429 con
// Retry-After no mata la corrida: la política espera y el reintento completa.
func TestListOrders_RateLimitReintentaConRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"orders": [{"orderId": 1, "orderStatus": "shipped"}], "pages": 1}`)
	}))
	defer srv.Close()

	orders, err := newTestClient(srv.URL, 100).ListOrders(context.Background(), "shipped", time.Time{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListOrders_ErrorDeClienteNoSeReintenta(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 100).ListOrders(context.Background(), "shipped", time.Time{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "Un 4xx es permanente: un solo intento")
}

// TestListOrders_PaginaFallidaDevuelveLoAcumulado verifica el resultado parcial:
// si la página 2 agota reintentos, la corrida sigue con la página 1.
func TestListOrders_PaginaFallidaDevuelveLoAcumulado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"orders": [{"orderId": 1, "orderStatus": "shipped"}], "pages": 3}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	orders, err := newTestClient(srv.URL, 100).ListOrders(context.Background(), "shipped", time.Time{})
	require.NoError(t, err, "Con resultados acumulados la falla de una página no es fatal")
	assert.Len(t, orders, 1)
}

func TestListOrders_PrimeraPaginaFallidaEsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 100).ListOrders(context.Background(), "shipped", time.Time{})
	assert.Error(t, err, "Sin nada acumulado la falla sí es fatal")
}
