package kit

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/domain/entity"
)

// BOMRow una fila cruda de la hoja de kits, tal como llega del almacén.
// Quantity viene como texto; la conversión numérica ocurre aquí, en el borde
// de carga, y una falla descarta solo esa fila.
type BOMRow struct {
	KitSKU        string
	KitName       string
	ComponentSKU  string
	ComponentName string
	Quantity      string
}

// Usage aparición de un SKU como componente de un kit (consulta inversa).
type Usage struct {
	KitSKU    string
	KitName   string
	QtyPerKit decimal.Decimal
}

// Registry índice inmutable de kit SKU -> BOM, construido una vez por corrida.
type Registry struct {
	kits   map[string]*entity.Kit
	usedIn map[string][]Usage
}

// BuildRegistry agrupa las filas por kit SKU normalizado preservando el orden.
// Filas con SKU en blanco o cantidad no parseable/no positiva se omiten con
// warning; los kits que quedan sin componentes se descartan. Nunca falla la
// carga completa por una fila mala.
func BuildRegistry(rows []BOMRow, log zerolog.Logger) *Registry {
	r := &Registry{
		kits:   make(map[string]*entity.Kit),
		usedIn: make(map[string][]Usage),
	}
	var order []string

	for i, row := range rows {
		kitSKU := entity.NormalizeSKU(row.KitSKU)
		compSKU := entity.NormalizeSKU(row.ComponentSKU)
		if kitSKU == "" || compSKU == "" {
			log.Warn().Int("row", i+2).Msg("fila de BOM sin kit SKU o component SKU, omitida")
			continue
		}

		qty, err := decimal.NewFromString(strings.TrimSpace(row.Quantity))
		if err != nil || !qty.IsPositive() {
			log.Warn().
				Int("row", i+2).
				Str("kit", kitSKU).
				Str("component", compSKU).
				Str("quantity", row.Quantity).
				Msg("cantidad de componente inválida, fila omitida")
			continue
		}

		k, ok := r.kits[kitSKU]
		if !ok {
			k = &entity.Kit{SKU: kitSKU, Name: strings.TrimSpace(row.KitName)}
			r.kits[kitSKU] = k
			order = append(order, kitSKU)
		}
		if k.Name == "" {
			k.Name = strings.TrimSpace(row.KitName)
		}
		k.Components = append(k.Components, entity.Component{
			SKU:       compSKU,
			Name:      strings.TrimSpace(row.ComponentName),
			QtyPerKit: qty,
		})
	}

	// Un kit sin componentes válidos no aporta nada: fuera del índice.
	for _, sku := range order {
		if len(r.kits[sku].Components) == 0 {
			log.Warn().Str("kit", sku).Msg("kit sin componentes válidos, descartado")
			delete(r.kits, sku)
		}
	}

	for _, k := range r.kits {
		name := k.Name
		if name == "" {
			name = k.SKU
		}
		for _, c := range k.Components {
			r.usedIn[c.SKU] = append(r.usedIn[c.SKU], Usage{KitSKU: k.SKU, KitName: name, QtyPerKit: c.QtyPerKit})
		}
	}

	return r
}

// IsKit reporta si el SKU (normalizado) está definido como kit.
func (r *Registry) IsKit(sku string) bool {
	_, ok := r.kits[entity.NormalizeSKU(sku)]
	return ok
}

// Kit devuelve el BOM del SKU si es kit.
func (r *Registry) Kit(sku string) (*entity.Kit, bool) {
	k, ok := r.kits[entity.NormalizeSKU(sku)]
	return k, ok
}

// ComponentsOf devuelve los componentes del kit en orden de hoja, o nil si no es kit.
func (r *Registry) ComponentsOf(sku string) []entity.Component {
	if k, ok := r.kits[entity.NormalizeSKU(sku)]; ok {
		return k.Components
	}
	return nil
}

// UsedIn devuelve los kits que consumen el SKU como componente.
func (r *Registry) UsedIn(sku string) []Usage {
	return r.usedIn[entity.NormalizeSKU(sku)]
}

// KitSKUs devuelve los SKUs de kit ordenados alfabéticamente.
func (r *Registry) KitSKUs() []string {
	out := make([]string, 0, len(r.kits))
	for sku := range r.kits {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}

// Len cantidad de kits cargados.
func (r *Registry) Len() int {
	return len(r.kits)
}
