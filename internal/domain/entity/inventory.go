package entity

import "github.com/shopspring/decimal"

// InventoryEntry una fila de la hoja de inventario: stock físico de un SKU.
// Stock nunca es negativo; los descuentos se recortan en cero.
type InventoryEntry struct {
	SKU   string
	Name  string
	Stock decimal.Decimal
}
