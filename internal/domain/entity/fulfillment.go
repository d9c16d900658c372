package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentRecord registro durable de una orden cuyo consumo ya fue aplicado
// al inventario. OrderID es la clave de deduplicación: existente el registro,
// ningún descuento de esa orden puede aplicarse de nuevo (hasta que la poda de
// retención lo elimine, tras lo cual la orden se trata como nueva).
type FulfillmentRecord struct {
	OrderID     string
	ProcessedAt time.Time
	Deltas      map[string]decimal.Decimal
}

// Summary serializa los deltas como "SKU:qty, SKU:qty" en orden estable,
// para la columna sku_summary del ledger.
func (r FulfillmentRecord) Summary() string {
	skus := make([]string, 0, len(r.Deltas))
	for sku := range r.Deltas {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	parts := make([]string, 0, len(skus))
	for _, sku := range skus {
		parts = append(parts, sku+":"+r.Deltas[sku].String())
	}
	return strings.Join(parts, ", ")
}
