package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain"
)

// InventoryHandler operaciones manuales de stock.
type InventoryHandler struct {
	adjust *reconcile.AdjustStockUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(adjust *reconcile.AdjustStockUseCase) *InventoryHandler {
	return &InventoryHandler{adjust: adjust}
}

type adjustRequest struct {
	SKU      string          `json:"sku"`
	Op       string          `json:"op"` // add, subtract, set
	Quantity decimal.Decimal `json:"quantity"`
}

// Adjust aplica un add/subtract/set manual sobre una fila de inventario,
// por la misma vía de escritura que usa el motor.
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in adjustRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	result, err := h.adjust.Apply(c.Context(), reconcile.AdjustInput{
		SKU:      in.SKU,
		Op:       in.Op,
		Quantity: in.Quantity,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "SKU sin fila en la hoja de inventario"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	return c.JSON(result)
}
