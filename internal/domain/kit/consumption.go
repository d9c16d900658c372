package kit

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/inventory"
)

// ConsumptionDeltas resuelve qué filas de stock descuenta una orden enviada y
// por cuánto. A diferencia de la agregación de demanda, aquí nunca hay doble
// conteo: cada unidad vendida descuenta exactamente una representación.
//
//   - kit prepacado (tiene fila propia): descuenta solo la fila del kit; sus
//     componentes quedan intactos (el kit ya estaba armado).
//   - kit virtual (sin fila propia): descuenta qty*qty_per_kit a cada componente.
//   - SKU suelto: descuenta su propia fila.
//
// Líneas con SKU en blanco o cantidad no positiva se omiten.
func ConsumptionDeltas(order entity.Order, reg *Registry, snap *inventory.Snapshot, log zerolog.Logger) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal)
	add := func(sku string, qty decimal.Decimal) {
		deltas[sku] = deltas[sku].Add(qty)
	}

	for _, item := range order.Items {
		sku := entity.NormalizeSKU(item.SKU)
		if sku == "" {
			log.Warn().Str("order_id", order.ID).Msg("línea de orden sin SKU, descartada")
			continue
		}
		if item.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(item.Quantity)

		switch {
		case reg.IsKit(sku) && snap.Has(sku):
			add(sku, qty)
		case reg.IsKit(sku):
			for _, comp := range reg.ComponentsOf(sku) {
				add(comp.SKU, qty.Mul(comp.QtyPerKit))
			}
		default:
			add(sku, qty)
		}
	}

	return deltas
}
