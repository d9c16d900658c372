package reconcile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/kit"
)

// SheetStore puerto del almacén de hojas que respalda el inventario:
// lecturas por hoja y escritura de stock por celda o por lote.
type SheetStore interface {
	// ReadKits devuelve las filas crudas de la hoja de BOMs.
	ReadKits(ctx context.Context) ([]kit.BOMRow, error)
	// ReadInventory devuelve las filas de inventario ya parseadas.
	ReadInventory(ctx context.Context) ([]entity.InventoryEntry, error)
	// ReadInflationRules devuelve las reglas de inflación por tienda.
	ReadInflationRules(ctx context.Context) ([]entity.InflationRule, error)
	// WriteStock escribe el valor absoluto de stock de un SKU (una celda).
	WriteStock(ctx context.Context, sku string, value decimal.Decimal) error
	// BatchWriteStock escribe valores absolutos en lotes acotados; un lote
	// fallido se reintenta de forma independiente y no aborta el resto.
	// Devuelve cuántos SKUs quedaron escritos.
	BatchWriteStock(ctx context.Context, values map[string]decimal.Decimal) (int, error)
}

// OrderSource puerto del origen de órdenes (paginado hasta completar o hasta
// el tope de páginas). createDateStart en cero omite el filtro de fecha.
type OrderSource interface {
	ListOrders(ctx context.Context, status string, createDateStart time.Time) ([]entity.Order, error)
}

// Variant una variante del catálogo de una tienda destino.
type Variant struct {
	InventoryItemID int64
	Name            string
}

// StorefrontSink puerto de una tienda destino: catálogo SKU->variante y
// escritura de disponibilidad absoluta.
type StorefrontSink interface {
	Name() string
	ListVariants(ctx context.Context) (map[string]Variant, error)
	SetAvailable(ctx context.Context, inventoryItemID, available int64) error
}
