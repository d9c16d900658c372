package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain/kit"
)

// SyncHandler dispara corridas de reconciliación bajo demanda. Las corridas
// son síncronas: la respuesta llega cuando la corrida termina, con su resumen.
type SyncHandler struct {
	shipped *reconcile.ShippedSyncUseCase
	push    *reconcile.StorefrontPushUseCase
	report  *reconcile.DemandReportUseCase
}

// NewSyncHandler construye el handler.
func NewSyncHandler(shipped *reconcile.ShippedSyncUseCase, push *reconcile.StorefrontPushUseCase, report *reconcile.DemandReportUseCase) *SyncHandler {
	return &SyncHandler{shipped: shipped, push: push, report: report}
}

// RunShipped ejecuta la reconciliación de órdenes enviadas y devuelve el resumen.
func (h *SyncHandler) RunShipped(c *fiber.Ctx) error {
	summary, err := h.shipped.Run(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "SYNC_FAILED", Message: err.Error()})
	}
	return c.JSON(summary)
}

// RunStorefront ejecuta el empuje de disponibilidad a las tiendas.
func (h *SyncHandler) RunStorefront(c *fiber.Ctx) error {
	summary, err := h.push.Run(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "SYNC_FAILED", Message: err.Error()})
	}
	return c.JSON(summary)
}

// DemandReport genera el reporte de demanda para una ventana de fechas.
// Query params: start y end (YYYY-MM-DD, obligatorios), status, mode
// (collapsed|separated), own_row (bool, default true).
func (h *SyncHandler) DemandReport(c *fiber.Ctx) error {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "start inválido, se espera YYYY-MM-DD"})
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "end inválido, se espera YYYY-MM-DD"})
	}
	if end.Before(start) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "end anterior a start"})
	}

	mode := kit.Mode(c.Query("mode", string(kit.ModeCollapsed)))
	if mode != kit.ModeCollapsed && mode != kit.ModeSeparated {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "mode debe ser collapsed o separated"})
	}

	rows, err := h.report.Report(c.Context(), reconcile.ReportRequest{
		Start:           start,
		End:             end,
		Status:          c.Query("status"),
		Mode:            mode,
		PrepackedOwnRow: c.QueryBool("own_row", true),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "REPORT_FAILED", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"rows": rows, "count": len(rows)})
}
