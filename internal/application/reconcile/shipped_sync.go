package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/inventory"
	"github.com/jhoicas/kitsync/internal/domain/kit"
	"github.com/jhoicas/kitsync/internal/domain/repository"
)

// ShippedSyncOptions parámetros de la corrida de órdenes enviadas.
type ShippedSyncOptions struct {
	CutoffDays int  // ventana hacia atrás sobre la fecha de envío
	DryRun     bool // calcular y loggear sin escribir hoja ni ledger
}

// ShippedSyncUseCase aplica al inventario el consumo de las órdenes enviadas,
// exactamente una vez por orden: el ledger decide qué órdenes ya surtieron
// efecto y la restricción de unicidad del almacén cierra la carrera entre
// corridas solapadas.
type ShippedSyncUseCase struct {
	store  SheetStore
	orders OrderSource
	ledger repository.FulfillmentLedger
	opts   ShippedSyncOptions
	log    zerolog.Logger
}

// NewShippedSyncUseCase construye el caso de uso.
func NewShippedSyncUseCase(store SheetStore, orders OrderSource, ledger repository.FulfillmentLedger, opts ShippedSyncOptions, log zerolog.Logger) *ShippedSyncUseCase {
	if opts.CutoffDays <= 0 {
		opts.CutoffDays = 3
	}
	return &ShippedSyncUseCase{store: store, orders: orders, ledger: ledger, opts: opts, log: log}
}

// Run ejecuta la corrida completa: cargar BOM e inventario, traer órdenes
// enviadas dentro de la ventana, calcular deltas por orden no procesada,
// volcar los descuentos en lote a la hoja y registrar cada orden en el ledger.
// Las fallas de carga inicial son fatales (nada se ha mutado aún); las fallas
// por orden o por lote se contienen y se cuentan en el resumen.
func (uc *ShippedSyncUseCase) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:   uuid.New().String(),
		Mode:    "shipped-sync",
		DryRun:  uc.opts.DryRun,
		Started: time.Now(),
	}
	log := uc.log.With().Str("run_id", summary.RunID).Str("mode", summary.Mode).Logger()
	log.Info().Int("cutoff_days", uc.opts.CutoffDays).Bool("dry_run", uc.opts.DryRun).Msg("iniciando shipped-sync")

	reg, snap, err := uc.loadState(ctx, log)
	if err != nil {
		return nil, err
	}

	cutoff := dateOnly(time.Now()).AddDate(0, 0, -uc.opts.CutoffDays)
	orders, err := uc.orders.ListOrders(ctx, entity.OrderStatusShipped, cutoff)
	if err != nil {
		return nil, fmt.Errorf("listar órdenes enviadas: %w", err)
	}
	log.Info().Int("orders", len(orders)).Msg("órdenes enviadas recibidas")

	// Valores absolutos nuevos por SKU, acumulados sobre el snapshot y
	// volcados en un solo lote al final.
	pending := make(map[string]decimal.Decimal)
	var applied []*entity.FulfillmentRecord

	for _, order := range orders {
		shipDate, err := entity.ParseOrderDate(order.EffectiveShipDate())
		if err != nil {
			log.Warn().Str("order_id", order.ID).Err(err).Msg("fecha de envío ilegible, orden omitida")
			summary.OrdersDropped++
			continue
		}
		if shipDate.Before(cutoff) {
			summary.OrdersDropped++
			continue
		}

		processed, err := uc.ledger.IsProcessed(ctx, order.ID)
		if err != nil {
			log.Error().Str("order_id", order.ID).Err(err).Msg("consulta al ledger fallida, orden omitida")
			summary.ItemErrors++
			continue
		}
		if processed {
			log.Debug().Str("order_id", order.ID).Msg("orden ya procesada, omitida")
			summary.OrdersSkipped++
			continue
		}

		deltas := kit.ConsumptionDeltas(order, reg, snap, log)
		if len(deltas) == 0 {
			summary.OrdersDropped++
			continue
		}

		for _, sku := range sortedKeys(deltas) {
			delta := deltas[sku]
			newValue, shortfall, ok := snap.Decrement(sku, delta)
			if !ok {
				log.Warn().Str("sku", sku).Msg("SKU sin fila en la hoja de inventario")
				summary.SKUsNotFound++
				continue
			}
			if shortfall.IsPositive() {
				log.Warn().
					Str("sku", sku).
					Str("shortfall", shortfall.String()).
					Msg("stock insuficiente, descuento recortado en cero")
				summary.ShortfallSKUs++
			}
			log.Info().
				Str("sku", sku).
				Str("delta", delta.String()).
				Str("new_stock", newValue.String()).
				Msg("descuento calculado")
			pending[sku] = newValue
		}

		applied = append(applied, &entity.FulfillmentRecord{
			OrderID:     order.ID,
			ProcessedAt: time.Now(),
			Deltas:      deltas,
		})
	}

	if uc.opts.DryRun {
		log.Info().Int("orders", len(applied)).Int("skus", len(pending)).Msg("dry-run: sin escrituras")
		summary.OrdersProcessed = len(applied)
		summary.Elapsed = time.Since(summary.Started)
		return summary, nil
	}

	if len(pending) > 0 {
		updated, err := uc.store.BatchWriteStock(ctx, pending)
		summary.SKUsUpdated = updated
		if err != nil {
			// Lotes fallidos ya se reintentaron; se deja constancia y la
			// corrida sigue con lo que sí se escribió.
			log.Error().Err(err).Int("updated", updated).Msg("escritura en lote incompleta")
			summary.ItemErrors++
		}
	}

	for _, rec := range applied {
		inserted, err := uc.ledger.Record(ctx, rec)
		if err != nil {
			log.Error().Str("order_id", rec.OrderID).Err(err).Msg("registro en ledger fallido")
			summary.ItemErrors++
			continue
		}
		if !inserted {
			// Otra corrida ganó la inserción: no es error, es un skip.
			log.Info().Str("order_id", rec.OrderID).Msg("orden ya registrada por otra corrida")
			summary.OrdersSkipped++
			continue
		}
		log.Info().Str("order_id", rec.OrderID).Str("deltas", rec.Summary()).Msg("orden registrada en ledger")
		summary.OrdersProcessed++
	}

	summary.Elapsed = time.Since(summary.Started)
	log.Info().
		Int("orders_processed", summary.OrdersProcessed).
		Int("orders_skipped", summary.OrdersSkipped).
		Int("skus_updated", summary.SKUsUpdated).
		Int("skus_not_found", summary.SKUsNotFound).
		Int("shortfalls", summary.ShortfallSKUs).
		Msg("shipped-sync completado")
	return summary, nil
}

func (uc *ShippedSyncUseCase) loadState(ctx context.Context, log zerolog.Logger) (*kit.Registry, *inventory.Snapshot, error) {
	bomRows, err := uc.store.ReadKits(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("cargar hoja de kits: %w", err)
	}
	reg := kit.BuildRegistry(bomRows, log)

	invRows, err := uc.store.ReadInventory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("cargar hoja de inventario: %w", err)
	}
	snap := inventory.NewSnapshot(invRows)

	log.Info().Int("kits", reg.Len()).Int("inventory_rows", snap.Len()).Msg("estado cargado")
	return reg, snap, nil
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dateOnly trunca a medianoche UTC: los cortes de ventana comparan fechas, no horas.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
