package repository

import (
	"context"
	"time"

	"github.com/jhoicas/kitsync/internal/domain/entity"
)

// FulfillmentLedger puerto del registro durable de órdenes ya aplicadas al
// inventario (at-most-once por order_id).
//
// La garantía real contra corridas dobles no es el par check-then-act de la
// aplicación sino la restricción de unicidad del almacén: Record hace
// insert-or-fail sobre order_id y un duplicado devuelve inserted=false, que el
// caller trata como "ya procesada, omitir", nunca como error.
type FulfillmentLedger interface {
	// IsProcessed reporta si la orden ya tiene registro en el ledger.
	IsProcessed(ctx context.Context, orderID string) (bool, error)

	// Record inserta el registro de forma atómica. inserted=false significa
	// que otro proceso (o una corrida previa) ya lo insertó.
	Record(ctx context.Context, rec *entity.FulfillmentRecord) (inserted bool, err error)

	// Prune elimina registros con processed_at anterior al horizonte y devuelve
	// cuántos borró. Es la única vía de borrado: una orden podada que reaparezca
	// en el origen se procesa como nueva, lo cual es tolerado.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}
