package entity

import "github.com/shopspring/decimal"

// Component un componente de un kit: SKU consumido, cantidad por kit y nombre visible.
// QtyPerKit es siempre > 0 una vez cargado; puede ser fraccionario (ej. 0.5 m de cinta).
type Component struct {
	SKU       string
	Name      string
	QtyPerKit decimal.Decimal
}

// Kit un producto compuesto (BOM de proporciones fijas). Los componentes conservan
// el orden de las filas de la hoja y la lista nunca queda vacía tras la carga.
// Inmutable durante una corrida.
//
// Un kit puede ser "prepacado" (tiene fila propia de stock; su venta descuenta solo
// esa fila) o "virtual" (sin fila propia; su disponibilidad se deriva del stock de
// los componentes y su venta descuenta a cada componente).
type Kit struct {
	SKU        string
	Name       string
	Components []Component
}
