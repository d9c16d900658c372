package kit

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/inventory"
)

// Mode modo de agregación de demanda.
type Mode string

const (
	// ModeCollapsed explota cada línea de kit en demanda por componente
	// (presión real sobre el stock de componentes).
	ModeCollapsed Mode = "collapsed"
	// ModeSeparated no explota: acumula la línea bajo el SKU del kit
	// (volumen de órdenes a nivel de kit).
	ModeSeparated Mode = "separated"
)

// AggregateOptions opciones del agregador.
type AggregateOptions struct {
	Mode Mode
	// PrepackedOwnRow: en modo colapsado, un kit con fila propia de stock suma
	// además qty a su propia fila (la fila "kit vendido" convive con las filas
	// "componentes consumidos"; doble conteo deliberado entre filas, para
	// visibilidad de planeación).
	PrepackedOwnRow bool
}

// AggregateDemand explota un lote de órdenes en demanda por SKU.
//
// Por cada línea (sku, qty):
//   - kit en modo colapsado: qty*qty_per_kit a Total y FromKits de cada
//     componente; si el kit además tiene fila de inventario y PrepackedOwnRow
//     está activo, qty a Total/Standalone del propio kit.
//   - kit en modo separado: qty a Total/Standalone del propio kit, sin explotar.
//   - no-kit: qty a Total/Standalone del SKU.
//
// Líneas con SKU en blanco se descartan con warning; cantidad ausente o no
// positiva no aporta nada. El mapa resultante cubre exactamente los SKUs
// tocados: cero demanda = clave ausente.
func AggregateDemand(orders []entity.Order, reg *Registry, snap *inventory.Snapshot, opts AggregateOptions, log zerolog.Logger) map[string]*entity.DemandTotal {
	totals := make(map[string]*entity.DemandTotal)
	get := func(sku string) *entity.DemandTotal {
		t, ok := totals[sku]
		if !ok {
			t = &entity.DemandTotal{}
			totals[sku] = t
		}
		return t
	}

	for _, order := range orders {
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

			if !reg.IsKit(sku) {
				get(sku).AddStandalone(qty)
				continue
			}

			switch opts.Mode {
			case ModeSeparated:
				get(sku).AddStandalone(qty)
			default: // ModeCollapsed
				for _, comp := range reg.ComponentsOf(sku) {
					get(comp.SKU).AddFromKit(qty.Mul(comp.QtyPerKit))
				}
				if opts.PrepackedOwnRow && snap.Has(sku) {
					get(sku).AddStandalone(qty)
				}
			}
		}
	}

	return totals
}
