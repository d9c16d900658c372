package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/inventory"
	"github.com/jhoicas/kitsync/internal/domain/kit"
)

// ReportRequest parámetros del reporte de demanda. La ventana filtra por fecha
// de pago con límites inclusivos.
type ReportRequest struct {
	Start           time.Time
	End             time.Time
	Status          string // default: awaiting_shipment
	Mode            kit.Mode
	PrepackedOwnRow bool
}

// ReportRow una fila del resumen de surtido: demanda agregada contra stock.
type ReportRow struct {
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	IsKit      bool            `json:"is_kit"`
	Total      decimal.Decimal `json:"total"`
	FromKits   decimal.Decimal `json:"from_kits"`
	Standalone decimal.Decimal `json:"standalone"`
	Stock      decimal.Decimal `json:"stock"`
	Short      decimal.Decimal `json:"short"`   // max(demanda - stock, 0)
	Running    decimal.Decimal `json:"running"` // max(stock - demanda, 0)
}

// DemandReportUseCase agrega la demanda de órdenes pendientes dentro de una
// ventana de fechas y la contrasta con el stock actual. Solo calcula; el
// formato de salida es asunto del caller.
type DemandReportUseCase struct {
	store  SheetStore
	orders OrderSource
	log    zerolog.Logger
}

// NewDemandReportUseCase construye el caso de uso.
func NewDemandReportUseCase(store SheetStore, orders OrderSource, log zerolog.Logger) *DemandReportUseCase {
	return &DemandReportUseCase{store: store, orders: orders, log: log}
}

// Report genera las filas para todos los SKUs conocidos (inventario ∪ kits),
// ordenadas por demanda total descendente. Órdenes sin fecha de pago legible
// se omiten con warning.
func (uc *DemandReportUseCase) Report(ctx context.Context, req ReportRequest) ([]ReportRow, error) {
	status := req.Status
	if status == "" {
		status = entity.OrderStatusAwaitingShipment
	}
	mode := req.Mode
	if mode == "" {
		mode = kit.ModeCollapsed
	}

	bomRows, err := uc.store.ReadKits(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar hoja de kits: %w", err)
	}
	reg := kit.BuildRegistry(bomRows, uc.log)

	invRows, err := uc.store.ReadInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar hoja de inventario: %w", err)
	}
	snap := inventory.NewSnapshot(invRows)

	orders, err := uc.orders.ListOrders(ctx, status, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("listar órdenes: %w", err)
	}

	filtered := uc.filterByPaymentDate(orders, req.Start, req.End)
	uc.log.Info().
		Int("orders", len(orders)).
		Int("in_window", len(filtered)).
		Time("start", req.Start).
		Time("end", req.End).
		Msg("órdenes filtradas por ventana de pago")

	totals := kit.AggregateDemand(filtered, reg, snap, kit.AggregateOptions{
		Mode:            mode,
		PrepackedOwnRow: req.PrepackedOwnRow,
	}, uc.log)

	rows := uc.buildRows(reg, snap, totals)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.GreaterThan(rows[j].Total)
	})
	return rows, nil
}

// filterByPaymentDate aplica la ventana inclusiva sobre la fecha de pago.
// Una fecha exactamente igual a Start o End queda dentro.
func (uc *DemandReportUseCase) filterByPaymentDate(orders []entity.Order, start, end time.Time) []entity.Order {
	var out []entity.Order
	for _, order := range orders {
		d, err := entity.ParseOrderDate(order.PaymentDate)
		if err != nil {
			uc.log.Warn().Str("order_id", order.ID).Err(err).Msg("fecha de pago ilegible, orden omitida")
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, order)
	}
	return out
}

func (uc *DemandReportUseCase) buildRows(reg *kit.Registry, snap *inventory.Snapshot, totals map[string]*entity.DemandTotal) []ReportRow {
	seen := make(map[string]bool)
	var skus []string
	for _, sku := range snap.SKUs() {
		skus = append(skus, sku)
		seen[sku] = true
	}
	for _, sku := range reg.KitSKUs() {
		if !seen[sku] {
			skus = append(skus, sku)
		}
	}

	rows := make([]ReportRow, 0, len(skus))
	for _, sku := range skus {
		row := ReportRow{SKU: sku, IsKit: reg.IsKit(sku)}

		if e, ok := snap.Get(sku); ok {
			row.Name = e.Name
			row.Stock = e.Stock
		} else if k, ok := reg.Kit(sku); ok && k.Name != "" {
			row.Name = k.Name
		} else {
			row.Name = sku
		}

		if t, ok := totals[sku]; ok {
			row.Total = t.Total
			row.FromKits = t.FromKits
			row.Standalone = t.Standalone
		}

		if short := row.Total.Sub(row.Stock); short.IsPositive() {
			row.Short = short
		} else {
			row.Short = decimal.Zero
		}
		if running := row.Stock.Sub(row.Total); running.IsPositive() {
			row.Running = running
		} else {
			row.Running = decimal.Zero
		}

		rows = append(rows, row)
	}
	return rows
}
