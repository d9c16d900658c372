package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/domain/entity"
)

// Loader puerto mínimo para (re)cargar el inventario desde el almacén de hojas.
type Loader interface {
	ReadInventory(ctx context.Context) ([]entity.InventoryEntry, error)
}

// Snapshot vista en memoria del inventario, cargada al inicio de cada corrida
// y descartada al final. Es propiedad del caller (no hay caché de proceso):
// quien necesite datos frescos llama Refresh de forma explícita.
type Snapshot struct {
	entries map[string]*entity.InventoryEntry
	order   []string // orden de carga, para recorridos estables
}

// NewSnapshot construye el snapshot a partir de filas ya parseadas.
// Los SKUs se normalizan; una fila repetida reemplaza a la anterior.
func NewSnapshot(rows []entity.InventoryEntry) *Snapshot {
	s := &Snapshot{entries: make(map[string]*entity.InventoryEntry, len(rows))}
	for _, row := range rows {
		sku := entity.NormalizeSKU(row.SKU)
		if sku == "" {
			continue
		}
		if _, seen := s.entries[sku]; !seen {
			s.order = append(s.order, sku)
		}
		e := row
		e.SKU = sku
		s.entries[sku] = &e
	}
	return s
}

// Refresh recarga el snapshot completo desde el loader (disparo manual o inicio de corrida).
func (s *Snapshot) Refresh(ctx context.Context, loader Loader) error {
	rows, err := loader.ReadInventory(ctx)
	if err != nil {
		return err
	}
	fresh := NewSnapshot(rows)
	s.entries = fresh.entries
	s.order = fresh.order
	return nil
}

// Get devuelve la entrada del SKU (normalizado) si existe.
func (s *Snapshot) Get(sku string) (*entity.InventoryEntry, bool) {
	e, ok := s.entries[entity.NormalizeSKU(sku)]
	return e, ok
}

// Has reporta si el SKU tiene fila propia de stock (distingue kit prepacado de virtual).
func (s *Snapshot) Has(sku string) bool {
	_, ok := s.entries[entity.NormalizeSKU(sku)]
	return ok
}

// Stock devuelve el stock del SKU, o cero si no tiene fila.
func (s *Snapshot) Stock(sku string) decimal.Decimal {
	if e, ok := s.entries[entity.NormalizeSKU(sku)]; ok {
		return e.Stock
	}
	return decimal.Zero
}

// SKUs devuelve los SKUs en orden de carga.
func (s *Snapshot) SKUs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len cantidad de filas cargadas.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Decrement descuenta qty del SKU recortando en cero. Devuelve el nuevo valor y
// el faltante (cuánto quedó sin cubrir; cero si alcanzaba). ok es false si el
// SKU no tiene fila de stock y no se descontó nada.
func (s *Snapshot) Decrement(sku string, qty decimal.Decimal) (newValue, shortfall decimal.Decimal, ok bool) {
	e, found := s.entries[entity.NormalizeSKU(sku)]
	if !found {
		return decimal.Zero, decimal.Zero, false
	}
	newValue = e.Stock.Sub(qty)
	if newValue.IsNegative() {
		shortfall = newValue.Neg()
		newValue = decimal.Zero
	}
	e.Stock = newValue
	return newValue, shortfall, true
}
