package entity

import "github.com/shopspring/decimal"

// DemandTotal acumulador de demanda por SKU. Invariante tras agregar un lote
// de órdenes: Total == FromKits + Standalone. Un SKU sin demanda no tiene
// entrada en el mapa (ausente = cero), nunca una entrada en ceros.
type DemandTotal struct {
	Total      decimal.Decimal
	FromKits   decimal.Decimal
	Standalone decimal.Decimal
}

// AddFromKit suma demanda proveniente de la explosión de un kit.
func (d *DemandTotal) AddFromKit(qty decimal.Decimal) {
	d.Total = d.Total.Add(qty)
	d.FromKits = d.FromKits.Add(qty)
}

// AddStandalone suma demanda directa (línea de orden sobre el propio SKU).
func (d *DemandTotal) AddStandalone(qty decimal.Decimal) {
	d.Total = d.Total.Add(qty)
	d.Standalone = d.Standalone.Add(qty)
}
