package reconcile_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/kit"
	"github.com/jhoicas/kitsync/pkg/logger"
)

func pushStore() *fakeSheetStore {
	return &fakeSheetStore{
		kits: []kit.BOMRow{
			{KitSKU: "KIT-1", KitName: "Kit Uno", ComponentSKU: "COMP-A", Quantity: "2"},
			{KitSKU: "KIT-1", ComponentSKU: "COMP-B", Quantity: "3"},
		},
		inventory: []entity.InventoryEntry{
			{SKU: "COMP-A", Stock: decimal.NewFromInt(9)},
			{SKU: "COMP-B", Stock: decimal.NewFromInt(10)},
		},
	}
}

func pushSink(name string) *fakeSink {
	return &fakeSink{
		name: name,
		variants: map[string]reconcile.Variant{
			"COMP-A": {InventoryItemID: 1, Name: "Componente A"},
			"COMP-B": {InventoryItemID: 2, Name: "Componente B"},
			"KIT-1":  {InventoryItemID: 3, Name: "Kit Uno"},
		},
	}
}

func TestStorefrontPush_EmpujaStockYKitVirtual(t *testing.T) {
	store := pushStore()
	sink := pushSink("store1")

	uc := reconcile.NewStorefrontPushUseCase(store, []reconcile.StorefrontSink{sink},
		reconcile.StorefrontPushOptions{}, logger.Nop())
	summary, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.SKUsUpdated)
	a, _ := sink.setValue(1)
	assert.Equal(t, int64(9), a)
	// Kit virtual: min(9/2=4, 10/3=3) = 3.
	k, ok := sink.setValue(3)
	require.True(t, ok)
	assert.Equal(t, int64(3), k)
}

func TestStorefrontPush_KitPrepacadoUsaSuFila(t *testing.T) {
	store := pushStore()
	store.inventory = append(store.inventory,
		entity.InventoryEntry{SKU: "KIT-1", Stock: decimal.NewFromInt(7)})
	sink := pushSink("store1")

	uc := reconcile.NewStorefrontPushUseCase(store, []reconcile.StorefrontSink{sink},
		reconcile.StorefrontPushOptions{}, logger.Nop())
	_, err := uc.Run(context.Background())
	require.NoError(t, err)

	k, _ := sink.setValue(3)
	assert.Equal(t, int64(7), k,
		"Con fila propia manda el stock físico, no el cálculo de componentes")
}

func TestStorefrontPush_InflacionPorTienda(t *testing.T) {
	store := pushStore()
	store.rules = []entity.InflationRule{
		{SKU: "COMP-A", Store: "store1", Boost: 100},
		{SKU: "COMP-A", Store: "store1", Boost: 50}, // repetida: se suma
		{SKU: "COMP-A", Store: "store2", Boost: 7},
	}
	sink1 := pushSink("store1")
	sink2 := pushSink("store2")

	uc := reconcile.NewStorefrontPushUseCase(store,
		[]reconcile.StorefrontSink{sink1, sink2},
		reconcile.StorefrontPushOptions{}, logger.Nop())
	_, err := uc.Run(context.Background())
	require.NoError(t, err)

	a1, _ := sink1.setValue(1)
	assert.Equal(t, int64(159), a1, "9 de stock + 100 + 50 de inflación")
	a2, _ := sink2.setValue(1)
	assert.Equal(t, int64(16), a2, "La inflación de una tienda no contamina a otra")
	b1, _ := sink1.setValue(2)
	assert.Equal(t, int64(10), b1, "SKU sin regla queda sin inflar")
}

// TestStorefrontPush_TiendaCaidaNoImpideLasDemas verifica la contención: el
// catálogo ilegible de una tienda la salta entera y sigue con el resto.
func TestStorefrontPush_TiendaCaidaNoImpideLasDemas(t *testing.T) {
	store := pushStore()
	caida := &fakeSink{name: "caida", listErr: assert.AnError}
	sana := pushSink("sana")

	uc := reconcile.NewStorefrontPushUseCase(store,
		[]reconcile.StorefrontSink{caida, sana},
		reconcile.StorefrontPushOptions{}, logger.Nop())
	summary, err := uc.Run(context.Background())
	require.NoError(t, err, "La falla de una tienda no es fatal para la corrida")

	assert.Equal(t, 1, summary.ItemErrors)
	a, ok := sana.setValue(1)
	require.True(t, ok, "La tienda sana recibió su push completo")
	assert.Equal(t, int64(9), a)
}

func TestStorefrontPush_EscrituraFallidaContinuaConElResto(t *testing.T) {
	store := pushStore()
	sink := pushSink("store1")
	sink.setErr = assert.AnError

	uc := reconcile.NewStorefrontPushUseCase(store, []reconcile.StorefrontSink{sink},
		reconcile.StorefrontPushOptions{}, logger.Nop())
	summary, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.ItemErrors, "Cada SKU fallido se cuenta por separado")
	assert.Equal(t, 0, summary.SKUsUpdated)
}

func TestStorefrontPush_SKUSinVarianteSeCuenta(t *testing.T) {
	store := pushStore()
	sink := &fakeSink{
		name: "store1",
		variants: map[string]reconcile.Variant{
			"COMP-A": {InventoryItemID: 1},
		},
	}

	uc := reconcile.NewStorefrontPushUseCase(store, []reconcile.StorefrontSink{sink},
		reconcile.StorefrontPushOptions{}, logger.Nop())
	summary, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SKUsNotFound, "COMP-B y KIT-1 no existen en la tienda")
	assert.Equal(t, 1, summary.SKUsUpdated)
}

// TestStorefrontPush_ComponenteSinFilaPublicaCero verifica que un kit cuyo
// componente no tiene fila de stock publica cero calculado, no queda indefinido:
// la fila faltante cuenta como stock cero.
func TestStorefrontPush_ComponenteSinFilaPublicaCero(t *testing.T) {
	store := pushStore()
	store.kits = append(store.kits,
		kit.BOMRow{KitSKU: "KIT-ROTO", ComponentSKU: "NADA-1", Quantity: "1"})
	sink := pushSink("store1")
	sink.variants["KIT-ROTO"] = reconcile.Variant{InventoryItemID: 99}

	uc := reconcile.NewStorefrontPushUseCase(store, []reconcile.StorefrontSink{sink},
		reconcile.StorefrontPushOptions{}, logger.Nop())
	summary, err := uc.Run(context.Background())
	require.NoError(t, err)

	v, ok := sink.setValue(99)
	require.True(t, ok)
	assert.Equal(t, int64(0), v)
	assert.Equal(t, 0, summary.UndefinedKits)
}

func TestStorefrontPush_DryRunNoEscribe(t *testing.T) {
	store := pushStore()
	sink := pushSink("store1")

	uc := reconcile.NewStorefrontPushUseCase(store, []reconcile.StorefrontSink{sink},
		reconcile.StorefrontPushOptions{DryRun: true}, logger.Nop())
	summary, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Empty(t, sink.set, "El dry-run no escribe en las tiendas")
}
