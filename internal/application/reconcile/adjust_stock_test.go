package reconcile_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain"
	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/pkg/logger"
)

func adjustStore() *fakeSheetStore {
	return &fakeSheetStore{
		inventory: []entity.InventoryEntry{
			{SKU: "COMP-A", Name: "Componente A", Stock: decimal.NewFromInt(10)},
		},
	}
}

func TestAdjust_Add(t *testing.T) {
	store := adjustStore()
	uc := reconcile.NewAdjustStockUseCase(store, logger.Nop())

	result, err := uc.Apply(context.Background(), reconcile.AdjustInput{
		SKU: "comp-a", Op: reconcile.AdjustOpAdd, Quantity: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	assert.True(t, result.OldValue.Equal(decimal.NewFromInt(10)))
	assert.True(t, result.NewValue.Equal(decimal.NewFromInt(15)))
	v, _ := store.writtenValue("COMP-A")
	assert.True(t, v.Equal(decimal.NewFromInt(15)), "El valor nuevo queda escrito en la hoja")
}

func TestAdjust_SubtractRecortaEnCero(t *testing.T) {
	store := adjustStore()
	uc := reconcile.NewAdjustStockUseCase(store, logger.Nop())

	result, err := uc.Apply(context.Background(), reconcile.AdjustInput{
		SKU: "COMP-A", Op: reconcile.AdjustOpSubtract, Quantity: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	assert.True(t, result.NewValue.IsZero(), "subtract nunca deja stock negativo")
}

func TestAdjust_Set(t *testing.T) {
	store := adjustStore()
	uc := reconcile.NewAdjustStockUseCase(store, logger.Nop())

	result, err := uc.Apply(context.Background(), reconcile.AdjustInput{
		SKU: "COMP-A", Op: reconcile.AdjustOpSet, Quantity: decimal.NewFromFloat(2.5),
	})
	require.NoError(t, err)
	assert.True(t, result.NewValue.Equal(decimal.NewFromFloat(2.5)))
}

func TestAdjust_Validaciones(t *testing.T) {
	uc := reconcile.NewAdjustStockUseCase(adjustStore(), logger.Nop())
	ctx := context.Background()

	_, err := uc.Apply(ctx, reconcile.AdjustInput{SKU: "  ", Op: reconcile.AdjustOpAdd})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "SKU vacío")

	_, err = uc.Apply(ctx, reconcile.AdjustInput{
		SKU: "COMP-A", Op: reconcile.AdjustOpAdd, Quantity: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad negativa")

	_, err = uc.Apply(ctx, reconcile.AdjustInput{
		SKU: "COMP-A", Op: "multiply", Quantity: decimal.NewFromInt(2),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "operación desconocida")
}

func TestAdjust_SKUSinFila(t *testing.T) {
	uc := reconcile.NewAdjustStockUseCase(adjustStore(), logger.Nop())
	_, err := uc.Apply(context.Background(), reconcile.AdjustInput{
		SKU: "FANTASMA", Op: reconcile.AdjustOpSet, Quantity: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjust_EscrituraFallidaPropaga(t *testing.T) {
	store := adjustStore()
	store.writeErr = assert.AnError
	uc := reconcile.NewAdjustStockUseCase(store, logger.Nop())

	_, err := uc.Apply(context.Background(), reconcile.AdjustInput{
		SKU: "COMP-A", Op: reconcile.AdjustOpAdd, Quantity: decimal.NewFromInt(1),
	})
	assert.Error(t, err)
}
