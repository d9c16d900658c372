package kit_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kitsync/internal/domain/kit"
	"github.com/jhoicas/kitsync/pkg/logger"
)

func TestBuildRegistry_AgrupaPorKit(t *testing.T) {
	reg := kit.BuildRegistry([]kit.BOMRow{
		{KitSKU: "kit-1", KitName: "Kit Uno", ComponentSKU: "comp-a", ComponentName: "Componente A", Quantity: "3"},
		{KitSKU: "KIT-1", ComponentSKU: "comp-b", ComponentName: "Componente B", Quantity: "1"},
		{KitSKU: "kit-2", KitName: "Kit Dos", ComponentSKU: "comp-a", Quantity: "0.5"},
	}, logger.Nop())

	assert.Equal(t, 2, reg.Len())
	assert.True(t, reg.IsKit("kit-1"), "IsKit debe ser insensible a mayúsculas")

	comps := reg.ComponentsOf("KIT-1")
	require.Len(t, comps, 2, "Filas con distinto casing del mismo kit deben agruparse")
	assert.Equal(t, "COMP-A", comps[0].SKU)
	assert.True(t, comps[0].QtyPerKit.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "COMP-B", comps[1].SKU)
}

func TestBuildRegistry_CantidadFraccionaria(t *testing.T) {
	reg := kit.BuildRegistry([]kit.BOMRow{
		{KitSKU: "KIT-G", ComponentSKU: "GRANEL", Quantity: "0.25"},
	}, logger.Nop())

	comps := reg.ComponentsOf("KIT-G")
	require.Len(t, comps, 1)
	assert.True(t, comps[0].QtyPerKit.Equal(decimal.NewFromFloat(0.25)),
		"Las proporciones fraccionarias del BOM deben conservarse exactas")
}

// TestBuildRegistry_FilasInvalidas verifica que una fila mala descarta solo esa
// fila: la carga completa nunca falla por un error de datos puntual.
func TestBuildRegistry_FilasInvalidas(t *testing.T) {
	reg := kit.BuildRegistry([]kit.BOMRow{
		{KitSKU: "", ComponentSKU: "COMP-A", Quantity: "1"},
		{KitSKU: "KIT-1", ComponentSKU: "", Quantity: "1"},
		{KitSKU: "KIT-1", ComponentSKU: "COMP-A", Quantity: "abc"},
		{KitSKU: "KIT-1", ComponentSKU: "COMP-A", Quantity: "0"},
		{KitSKU: "KIT-1", ComponentSKU: "COMP-A", Quantity: "-2"},
		{KitSKU: "KIT-1", ComponentSKU: "COMP-B", Quantity: "2"},
	}, logger.Nop())

	require.True(t, reg.IsKit("KIT-1"))
	comps := reg.ComponentsOf("KIT-1")
	require.Len(t, comps, 1, "Solo la fila válida debe sobrevivir")
	assert.Equal(t, "COMP-B", comps[0].SKU)
}

func TestBuildRegistry_KitSinComponentesValidosSeDescarta(t *testing.T) {
	reg := kit.BuildRegistry([]kit.BOMRow{
		{KitSKU: "KIT-VACIO", ComponentSKU: "COMP-A", Quantity: "no-numero"},
	}, logger.Nop())

	assert.False(t, reg.IsKit("KIT-VACIO"),
		"Un kit cuyas filas fueron todas descartadas no debe figurar como kit")
	assert.Equal(t, 0, reg.Len())
}

func TestUsedIn_ConsultaInversa(t *testing.T) {
	reg := kit.BuildRegistry([]kit.BOMRow{
		{KitSKU: "KIT-1", KitName: "Kit Uno", ComponentSKU: "COMP-A", Quantity: "3"},
		{KitSKU: "KIT-2", KitName: "Kit Dos", ComponentSKU: "COMP-A", Quantity: "1"},
		{KitSKU: "KIT-2", ComponentSKU: "COMP-B", Quantity: "1"},
	}, logger.Nop())

	usages := reg.UsedIn("comp-a")
	require.Len(t, usages, 2)
	kitSKUs := []string{usages[0].KitSKU, usages[1].KitSKU}
	assert.ElementsMatch(t, []string{"KIT-1", "KIT-2"}, kitSKUs)

	assert.Empty(t, reg.UsedIn("COMP-Z"), "Un SKU que no participa en kits no tiene usos")
}

func TestKitSKUs_Ordenados(t *testing.T) {
	reg := kit.BuildRegistry([]kit.BOMRow{
		{KitSKU: "KIT-Z", ComponentSKU: "COMP-A", Quantity: "1"},
		{KitSKU: "KIT-A", ComponentSKU: "COMP-A", Quantity: "1"},
	}, logger.Nop())
	assert.Equal(t, []string{"KIT-A", "KIT-Z"}, reg.KitSKUs())
}
