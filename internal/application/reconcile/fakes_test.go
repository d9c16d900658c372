package reconcile_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/kit"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria de los puertos: almacén de hojas, origen de órdenes,
// ledger y tienda destino. Registran lo escrito para que los tests afirmen
// sobre efectos, no sobre interacciones.
// ──────────────────────────────────────────────────────────────────────────────

type fakeSheetStore struct {
	kits      []kit.BOMRow
	inventory []entity.InventoryEntry
	rules     []entity.InflationRule

	kitsErr      error
	inventoryErr error
	rulesErr     error
	writeErr     error
	batchErr     error

	mu      sync.Mutex
	written map[string]decimal.Decimal // última escritura por SKU (single o batch)
	batches int
}

func (f *fakeSheetStore) ReadKits(context.Context) ([]kit.BOMRow, error) {
	return f.kits, f.kitsErr
}

func (f *fakeSheetStore) ReadInventory(context.Context) ([]entity.InventoryEntry, error) {
	return f.inventory, f.inventoryErr
}

func (f *fakeSheetStore) ReadInflationRules(context.Context) ([]entity.InflationRule, error) {
	return f.rules, f.rulesErr
}

func (f *fakeSheetStore) WriteStock(_ context.Context, sku string, value decimal.Decimal) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.record(sku, value)
	return nil
}

func (f *fakeSheetStore) BatchWriteStock(_ context.Context, values map[string]decimal.Decimal) (int, error) {
	if f.batchErr != nil {
		return 0, f.batchErr
	}
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()
	for sku, value := range values {
		f.record(sku, value)
	}
	return len(values), nil
}

func (f *fakeSheetStore) record(sku string, value decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.written == nil {
		f.written = make(map[string]decimal.Decimal)
	}
	f.written[sku] = value
}

func (f *fakeSheetStore) writtenValue(sku string) (decimal.Decimal, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.written[sku]
	return v, ok
}

type fakeOrderSource struct {
	orders []entity.Order
	err    error

	lastStatus string
	lastStart  time.Time
}

func (f *fakeOrderSource) ListOrders(_ context.Context, status string, createDateStart time.Time) ([]entity.Order, error) {
	f.lastStatus = status
	f.lastStart = createDateStart
	return f.orders, f.err
}

type fakeLedger struct {
	mu        sync.Mutex
	processed map[string]bool
	records   []*entity.FulfillmentRecord

	isProcessedErr error
	recordErr      error
}

func newFakeLedger(processedIDs ...string) *fakeLedger {
	l := &fakeLedger{processed: make(map[string]bool)}
	for _, id := range processedIDs {
		l.processed[id] = true
	}
	return l
}

func (l *fakeLedger) IsProcessed(_ context.Context, orderID string) (bool, error) {
	if l.isProcessedErr != nil {
		return false, l.isProcessedErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.processed[orderID], nil
}

func (l *fakeLedger) Record(_ context.Context, rec *entity.FulfillmentRecord) (bool, error) {
	if l.recordErr != nil {
		return false, l.recordErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.processed[rec.OrderID] {
		return false, nil // otra corrida ganó la inserción
	}
	l.processed[rec.OrderID] = true
	l.records = append(l.records, rec)
	return true, nil
}

func (l *fakeLedger) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	var deleted int64
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.records[:0]
	for _, rec := range l.records {
		if rec.ProcessedAt.Before(olderThan) {
			delete(l.processed, rec.OrderID)
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	l.records = kept
	return deleted, nil
}

type fakeSink struct {
	name     string
	variants map[string]reconcile.Variant

	listErr error
	setErr  error

	mu  sync.Mutex
	set map[int64]int64 // inventory_item_id -> última disponibilidad escrita
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) ListVariants(context.Context) (map[string]reconcile.Variant, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.variants, nil
}

func (s *fakeSink) SetAvailable(_ context.Context, inventoryItemID, available int64) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		s.set = make(map[int64]int64)
	}
	s.set[inventoryItemID] = available
	return nil
}

func (s *fakeSink) setValue(inventoryItemID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.set[inventoryItemID]
	return v, ok
}
