package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/domain"
	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/inventory"
)

// Operaciones manuales de stock.
const (
	AdjustOpAdd      = "add"
	AdjustOpSubtract = "subtract"
	AdjustOpSet      = "set"
)

// AdjustInput una operación manual sobre una fila de stock.
type AdjustInput struct {
	SKU      string
	Op       string // add, subtract, set
	Quantity decimal.Decimal
}

// AdjustResult valores antes y después de la escritura.
type AdjustResult struct {
	SKU      string          `json:"sku"`
	Op       string          `json:"op"`
	OldValue decimal.Decimal `json:"old_value"`
	NewValue decimal.Decimal `json:"new_value"`
}

// AdjustStockUseCase operaciones manuales add/subtract/set sobre una fila del
// inventario, por la misma vía de escritura que usa el motor (WriteStock).
// Caveat conocido y documentado: un ajuste manual concurrente con una corrida
// en curso es last-writer-wins; el despliegue asume un solo escritor lógico.
type AdjustStockUseCase struct {
	store SheetStore
	log   zerolog.Logger
}

// NewAdjustStockUseCase construye el caso de uso.
func NewAdjustStockUseCase(store SheetStore, log zerolog.Logger) *AdjustStockUseCase {
	return &AdjustStockUseCase{store: store, log: log}
}

// Apply lee la fila actual, calcula el valor nuevo (subtract recorta en cero,
// set es absoluto) y lo escribe. ErrNotFound si el SKU no tiene fila.
func (uc *AdjustStockUseCase) Apply(ctx context.Context, input AdjustInput) (*AdjustResult, error) {
	sku := entity.NormalizeSKU(input.SKU)
	if sku == "" {
		return nil, fmt.Errorf("%w: SKU vacío", domain.ErrInvalidInput)
	}
	if input.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}

	rows, err := uc.store.ReadInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar hoja de inventario: %w", err)
	}
	snap := inventory.NewSnapshot(rows)

	e, ok := snap.Get(sku)
	if !ok {
		return nil, fmt.Errorf("SKU %s: %w", sku, domain.ErrNotFound)
	}
	old := e.Stock

	var newValue decimal.Decimal
	switch input.Op {
	case AdjustOpAdd:
		newValue = old.Add(input.Quantity)
	case AdjustOpSubtract:
		newValue = old.Sub(input.Quantity)
		if newValue.IsNegative() {
			newValue = decimal.Zero
		}
	case AdjustOpSet:
		newValue = input.Quantity
	default:
		return nil, fmt.Errorf("%w: operación %q", domain.ErrInvalidInput, input.Op)
	}

	if err := uc.store.WriteStock(ctx, sku, newValue); err != nil {
		return nil, fmt.Errorf("escribir stock de %s: %w", sku, err)
	}

	uc.log.Info().
		Str("sku", sku).
		Str("op", input.Op).
		Str("old", old.String()).
		Str("new", newValue.String()).
		Msg("ajuste manual de stock aplicado")

	return &AdjustResult{SKU: sku, Op: input.Op, OldValue: old, NewValue: newValue}, nil
}
