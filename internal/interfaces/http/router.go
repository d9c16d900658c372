package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
)

// ErrorResponse cuerpo de error uniforme de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AdjustUC     *reconcile.AdjustStockUseCase
	ShippedSync  *reconcile.ShippedSyncUseCase
	StorePush    *reconcile.StorefrontPushUseCase
	DemandReport *reconcile.DemandReportUseCase
	SheetStore   reconcile.SheetStore
}

// Router registra las rutas operativas. No hay autenticación: esta superficie
// es un disparador interno de jobs, no una API pública.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	inventoryHandler := NewInventoryHandler(deps.AdjustUC)
	api.Post("/inventory/adjust", inventoryHandler.Adjust)

	kitHandler := NewKitHandler(deps.SheetStore)
	api.Get("/kits/:sku", kitHandler.Lookup)

	syncHandler := NewSyncHandler(deps.ShippedSync, deps.StorePush, deps.DemandReport)
	api.Post("/sync/shipped", syncHandler.RunShipped)
	api.Post("/sync/storefront", syncHandler.RunStorefront)
	api.Get("/report/demand", syncHandler.DemandReport)
}
