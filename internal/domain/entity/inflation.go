package entity

// InflationRule ajuste aditivo fijo a la disponibilidad reportada de un SKU
// hacia una tienda destino específica. No afecta el inventario canónico ni lo
// que se reporta a otras tiendas; se aplica solo al momento del push.
type InflationRule struct {
	SKU   string
	Store string
	Boost int64
}
