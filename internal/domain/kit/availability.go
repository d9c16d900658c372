package kit

import (
	"github.com/rs/zerolog"

	"github.com/jhoicas/kitsync/internal/domain"
	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/inventory"
)

// Availability disponibilidad calculada de un kit virtual, con el componente
// limitante para diagnóstico.
type Availability struct {
	Quantity int64
	Limiting entity.Component
}

// VirtualAvailability calcula cuántos kits completos se pueden armar con el
// stock actual: min sobre componentes de floor(stock / qty_per_kit). División
// entera siempre: medio kit no es un kit vendible.
//
// Un componente sin fila de stock cuenta como cero (con warning: es señal de
// calidad de datos, no fatal). Si ningún componente es utilizable devuelve
// domain.ErrUndefinedAvailability: el caller omite el kit del reporte en vez
// de fabricar un cero.
//
// El valor es derivado y consultivo: jamás se escribe como stock propio del
// kit virtual en el inventario canónico; se recalcula cada vez que se necesita.
func VirtualAvailability(k *entity.Kit, snap *inventory.Snapshot, log zerolog.Logger) (Availability, error) {
	var (
		best  Availability
		found bool
	)

	for _, comp := range k.Components {
		if !comp.QtyPerKit.IsPositive() {
			continue
		}
		stock := snap.Stock(comp.SKU)
		if !snap.Has(comp.SKU) {
			log.Warn().
				Str("kit", k.SKU).
				Str("component", comp.SKU).
				Msg("componente sin fila de stock, se asume cero")
		}

		buildable := stock.Div(comp.QtyPerKit).Floor().IntPart()
		if buildable < 0 {
			buildable = 0
		}
		if !found || buildable < best.Quantity {
			best = Availability{Quantity: buildable, Limiting: comp}
			found = true
		}
	}

	if !found {
		log.Warn().Str("kit", k.SKU).Msg("kit sin componentes utilizables, disponibilidad indefinida")
		return Availability{}, domain.ErrUndefinedAvailability
	}
	return best, nil
}
