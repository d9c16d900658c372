package entity

import (
	"fmt"
	"strings"
	"time"
)

// Estados de orden del origen (ShipStation).
const (
	OrderStatusAwaitingShipment = "awaiting_shipment"
	OrderStatusShipped          = "shipped"
)

// OrderItem una línea de orden. Quantity es entera a nivel de orden
// (las proporciones fraccionarias viven en el BOM, no aquí).
type OrderItem struct {
	SKU      string
	Quantity int64
}

// Order una orden del origen, de solo lectura. Las fechas se conservan como
// las entrega el upstream (ISO, opcionalmente con hora); solo importa la
// porción de fecha, que se extrae con ParseOrderDate.
type Order struct {
	ID          string
	Status      string
	PaymentDate string
	ShipDate    string
	ModifyDate  string
	Items       []OrderItem
}

// EffectiveShipDate la fecha de envío cruda, o la de modificación si falta.
func (o Order) EffectiveShipDate() string {
	if o.ShipDate != "" {
		return o.ShipDate
	}
	return o.ModifyDate
}

// ParseOrderDate extrae la porción de fecha de un timestamp ISO ("2024-07-01"
// o "2024-07-01T15:04:05"). Un valor vacío o no parseable es un error de
// calidad de datos: el caller omite la línea, nunca aborta la corrida.
func ParseOrderDate(raw string) (time.Time, error) {
	datePart, _, _ := strings.Cut(strings.TrimSpace(raw), "T")
	if datePart == "" {
		return time.Time{}, fmt.Errorf("fecha vacía")
	}
	d, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha %q: %w", raw, err)
	}
	return d, nil
}
