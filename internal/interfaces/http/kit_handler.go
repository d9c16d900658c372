package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kitsync/internal/application/reconcile"
	"github.com/jhoicas/kitsync/internal/domain"
	"github.com/jhoicas/kitsync/internal/domain/entity"
	"github.com/jhoicas/kitsync/internal/domain/inventory"
	"github.com/jhoicas/kitsync/internal/domain/kit"
)

// KitHandler consulta de BOMs: componentes de un kit o kits que usan un SKU.
type KitHandler struct {
	store reconcile.SheetStore
}

// NewKitHandler construye el handler.
func NewKitHandler(store reconcile.SheetStore) *KitHandler {
	return &KitHandler{store: store}
}

type kitComponentDTO struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	QtyPerKit decimal.Decimal `json:"qty_per_kit"`
	Stock     decimal.Decimal `json:"stock"`
}

type kitUsageDTO struct {
	KitSKU    string          `json:"kit_sku"`
	KitName   string          `json:"kit_name"`
	QtyPerKit decimal.Decimal `json:"qty_per_kit"`
}

type kitLookupResponse struct {
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	IsKit      bool              `json:"is_kit"`
	Prepacked  bool              `json:"prepacked"`
	Available  *int64            `json:"available,omitempty"`
	Limiting   string            `json:"limiting,omitempty"`
	Components []kitComponentDTO `json:"components,omitempty"`
	UsedIn     []kitUsageDTO     `json:"used_in,omitempty"`
}

// Lookup responde qué es un SKU según la hoja de kits: si es kit, sus
// componentes y la disponibilidad virtual calculada; si no, en qué kits
// participa. Lee las hojas en cada llamada, el registro no se cachea.
func (h *KitHandler) Lookup(c *fiber.Ctx) error {
	sku := entity.NormalizeSKU(c.Params("sku"))
	if sku == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "SKU vacío"})
	}

	ctx := c.Context()
	bomRows, err := h.store.ReadKits(ctx)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Code: "SHEET_READ", Message: err.Error()})
	}
	invRows, err := h.store.ReadInventory(ctx)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Code: "SHEET_READ", Message: err.Error()})
	}

	reg := kit.BuildRegistry(bomRows, log.Logger)
	snap := inventory.NewSnapshot(invRows)

	resp := kitLookupResponse{SKU: sku, Name: sku}
	if e, ok := snap.Get(sku); ok {
		resp.Name = e.Name
	}

	k, isKit := reg.Kit(sku)
	resp.IsKit = isKit
	if isKit {
		resp.Prepacked = snap.Has(sku)
		if k.Name != "" {
			resp.Name = k.Name
		}
		for _, comp := range k.Components {
			resp.Components = append(resp.Components, kitComponentDTO{
				SKU:       comp.SKU,
				Name:      comp.Name,
				QtyPerKit: comp.QtyPerKit,
				Stock:     snap.Stock(comp.SKU),
			})
		}
		if !resp.Prepacked {
			avail, err := kit.VirtualAvailability(k, snap, log.Logger)
			if err == nil {
				resp.Available = &avail.Quantity
				resp.Limiting = avail.Limiting.SKU
			} else if !errors.Is(err, domain.ErrUndefinedAvailability) {
				return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
			}
		}
	} else {
		for _, usage := range reg.UsedIn(sku) {
			resp.UsedIn = append(resp.UsedIn, kitUsageDTO{
				KitSKU:    usage.KitSKU,
				KitName:   usage.KitName,
				QtyPerKit: usage.QtyPerKit,
			})
		}
		if !snap.Has(sku) && len(resp.UsedIn) == 0 {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "SKU desconocido en kits e inventario"})
		}
	}

	return c.JSON(resp)
}
