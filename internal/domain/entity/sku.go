package entity

import "strings"

// NormalizeSKU normaliza un SKU: recorta espacios y pasa a mayúsculas.
// La unicidad y comparación de SKUs es insensible a mayúsculas y espacios;
// todo mapa interno (BOM, inventario, demanda, ledger) usa la forma normalizada.
func NormalizeSKU(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
