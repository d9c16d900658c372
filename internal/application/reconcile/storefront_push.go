package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/inventory"
	"github.com/jhoicas/kitsync/internal/domain/kit"
)

// StorefrontPushOptions parámetros del push de disponibilidad.
type StorefrontPushOptions struct {
	DryRun bool
}

// StorefrontPushUseCase empuja disponibilidad absoluta a cada tienda destino:
// stock propio para SKUs con fila, disponibilidad derivada para kits virtuales,
// más la inflación configurada por tienda. La falla de una tienda nunca impide
// intentar las demás.
type StorefrontPushUseCase struct {
	store SheetStore
	sinks []StorefrontSink
	opts  StorefrontPushOptions
	log   zerolog.Logger
}

// NewStorefrontPushUseCase construye el caso de uso.
func NewStorefrontPushUseCase(store SheetStore, sinks []StorefrontSink, opts StorefrontPushOptions, log zerolog.Logger) *StorefrontPushUseCase {
	return &StorefrontPushUseCase{store: store, sinks: sinks, opts: opts, log: log}
}

// Run calcula la disponibilidad reportable de cada SKU conocido (inventario ∪
// kits) una sola vez y la empuja a cada tienda con su inflación aplicada.
func (uc *StorefrontPushUseCase) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:   uuid.New().String(),
		Mode:    "storefront-push",
		DryRun:  uc.opts.DryRun,
		Started: time.Now(),
	}
	log := uc.log.With().Str("run_id", summary.RunID).Str("mode", summary.Mode).Logger()
	log.Info().Int("sinks", len(uc.sinks)).Bool("dry_run", uc.opts.DryRun).Msg("iniciando storefront-push")

	bomRows, err := uc.store.ReadKits(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar hoja de kits: %w", err)
	}
	reg := kit.BuildRegistry(bomRows, log)

	invRows, err := uc.store.ReadInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar hoja de inventario: %w", err)
	}
	snap := inventory.NewSnapshot(invRows)

	rules, err := uc.store.ReadInflationRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar reglas de inflación: %w", err)
	}
	boosts := indexBoosts(rules)

	available := uc.computeAvailability(reg, snap, summary, log)

	for _, sink := range uc.sinks {
		uc.pushToSink(ctx, sink, available, boosts[sink.Name()], summary, log)
	}

	summary.Elapsed = time.Since(summary.Started)
	log.Info().
		Int("skus_updated", summary.SKUsUpdated).
		Int("skus_not_found", summary.SKUsNotFound).
		Int("undefined_kits", summary.UndefinedKits).
		Int("item_errors", summary.ItemErrors).
		Msg("storefront-push completado")
	return summary, nil
}

// computeAvailability deriva la cantidad reportable de cada SKU: piso del
// stock propio si hay fila, o el cálculo de kit virtual si es un kit sin fila.
// Un kit con disponibilidad indefinida se omite (nunca se reporta cero
// fabricado). La inflación NO se aplica aquí: es por tienda.
func (uc *StorefrontPushUseCase) computeAvailability(reg *kit.Registry, snap *inventory.Snapshot, summary *RunSummary, log zerolog.Logger) map[string]int64 {
	available := make(map[string]int64)

	for _, sku := range snap.SKUs() {
		available[sku] = snap.Stock(sku).Floor().IntPart()
	}
	for _, sku := range reg.KitSKUs() {
		if snap.Has(sku) {
			continue // prepacado: manda su propia fila
		}
		k, _ := reg.Kit(sku)
		avail, err := kit.VirtualAvailability(k, snap, log)
		if err != nil {
			summary.UndefinedKits++
			continue
		}
		log.Debug().
			Str("kit", sku).
			Int64("available", avail.Quantity).
			Str("limiting", avail.Limiting.SKU).
			Msg("disponibilidad de kit virtual calculada")
		available[sku] = avail.Quantity
	}

	return available
}

// pushToSink empuja a una tienda. Errores de catálogo o de escritura quedan
// contenidos en esta tienda; el caller sigue con las demás.
func (uc *StorefrontPushUseCase) pushToSink(ctx context.Context, sink StorefrontSink, available map[string]int64, boost map[string]int64, summary *RunSummary, log zerolog.Logger) {
	slog := log.With().Str("store", sink.Name()).Logger()

	variants, err := sink.ListVariants(ctx)
	if err != nil {
		slog.Error().Err(err).Msg("listar variantes falló, tienda omitida")
		summary.ItemErrors++
		return
	}
	slog.Info().Int("variants", len(variants)).Msg("catálogo de la tienda cargado")

	skus := make([]string, 0, len(available))
	for sku := range available {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	for _, sku := range skus {
		variant, ok := variants[sku]
		if !ok {
			slog.Warn().Str("sku", sku).Msg("SKU sin variante en la tienda")
			summary.SKUsNotFound++
			continue
		}

		qty := available[sku] + boost[sku]
		if uc.opts.DryRun {
			slog.Info().Str("sku", sku).Int64("available", qty).Msg("dry-run: se empujaría")
			continue
		}
		if err := sink.SetAvailable(ctx, variant.InventoryItemID, qty); err != nil {
			slog.Error().Str("sku", sku).Err(err).Msg("push de disponibilidad fallido")
			summary.ItemErrors++
			continue
		}
		slog.Info().Str("sku", sku).Int64("available", qty).Str("name", variant.Name).Msg("disponibilidad actualizada")
		summary.SKUsUpdated++
	}
}

// indexBoosts agrupa reglas por tienda y SKU; reglas repetidas se suman.
func indexBoosts(rules []entity.InflationRule) map[string]map[string]int64 {
	idx := make(map[string]map[string]int64)
	for _, rule := range rules {
		sku := entity.NormalizeSKU(rule.SKU)
		if sku == "" || rule.Store == "" {
			continue
		}
		if idx[rule.Store] == nil {
			idx[rule.Store] = make(map[string]int64)
		}
		idx[rule.Store][sku] += rule.Boost
	}
	return idx
}
