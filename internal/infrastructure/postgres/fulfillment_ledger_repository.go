package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/repository"
)

var _ repository.FulfillmentLedger = (*FulfillmentLedgerRepo)(nil)

// FulfillmentLedgerRepo implementación del ledger sobre PostgreSQL.
// processed_orders es append-only con order_id como PRIMARY KEY: esa
// restricción es la guardia real contra corridas dobles, no el chequeo previo.
type FulfillmentLedgerRepo struct {
	q Querier
}

// NewFulfillmentLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFulfillmentLedgerRepository(q Querier) *FulfillmentLedgerRepo {
	return &FulfillmentLedgerRepo{q: q}
}

// EnsureSchema crea la tabla del ledger si no existe. Se llama al arranque;
// su falla es fatal antes de intentar cualquier mutación.
func (r *FulfillmentLedgerRepo) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS processed_orders (
			order_id     TEXT PRIMARY KEY,
			processed_at TIMESTAMPTZ NOT NULL,
			sku_summary  TEXT NOT NULL
		)`
	if _, err := r.q.Exec(ctx, query); err != nil {
		return fmt.Errorf("crear tabla processed_orders: %w", err)
	}
	return nil
}

// IsProcessed reporta si la orden ya tiene registro.
func (r *FulfillmentLedgerRepo) IsProcessed(ctx context.Context, orderID string) (bool, error) {
	query := `SELECT 1 FROM processed_orders WHERE order_id = $1`
	var one int
	err := r.q.QueryRow(ctx, query, orderID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("consultar processed_orders: %w", err)
	}
	return true, nil
}

// Record inserta el registro con insert-or-fail sobre order_id. Un duplicado
// no es error: devuelve inserted=false y el caller lo cuenta como skip.
func (r *FulfillmentLedgerRepo) Record(ctx context.Context, rec *entity.FulfillmentRecord) (bool, error) {
	query := `
		INSERT INTO processed_orders (order_id, processed_at, sku_summary)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING`
	tag, err := r.q.Exec(ctx, query, rec.OrderID, rec.ProcessedAt, rec.Summary())
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insertar en processed_orders: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Prune borra registros anteriores al horizonte de retención.
func (r *FulfillmentLedgerRepo) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM processed_orders WHERE processed_at < $1`
	tag, err := r.q.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("podar processed_orders: %w", err)
	}
	return tag.RowsAffected(), nil
}
