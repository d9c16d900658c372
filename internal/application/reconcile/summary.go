package reconcile

import "time"

// RunSummary conteos de una corrida, para el log final y la superficie HTTP.
// La corrida es best-effort: fallas por ítem se contienen y se cuentan aquí
// en vez de abortar el todo.
type RunSummary struct {
	RunID           string        `json:"run_id"`
	Mode            string        `json:"mode"`
	DryRun          bool          `json:"dry_run"`
	OrdersProcessed int           `json:"orders_processed"`
	OrdersSkipped   int           `json:"orders_skipped"` // ya procesadas (ledger) o duplicadas
	OrdersDropped   int           `json:"orders_dropped"` // fecha ilegible o fuera de ventana
	SKUsUpdated     int           `json:"skus_updated"`
	SKUsNotFound    int           `json:"skus_not_found"` // sin fila en inventario o sin variante en la tienda
	ShortfallSKUs   int           `json:"shortfall_skus"` // descuentos recortados en cero
	UndefinedKits   int           `json:"undefined_kits"` // kits virtuales sin disponibilidad calculable
	ItemErrors      int           `json:"item_errors"`    // fallas de I/O contenidas por ítem
	Started         time.Time     `json:"started"`
	Elapsed         time.Duration `json:"elapsed"`
}
