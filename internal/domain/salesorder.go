package domain

import (
	"context"
	"time"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
	"cargodesk/internal/core/types"
)

// OrderStatus is the sales order state machine.
// Transition side effects (derived shipments, auto-generated costs, invoice
// settlement) are owned by the sync engine, not the model.
type OrderStatus string

const (
	OrderDraft     OrderStatus = "Draft"
	OrderOrder     OrderStatus = "Order"
	OrderConfirmed OrderStatus = "Confirmed"
	OrderInTransit OrderStatus = "In Transit"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// orderStatuses is the known label set. Any-to-any transitions are allowed
// (the back office lets operators correct statuses freely, and repeating a
// status must stay legal for idempotent cascades); only unknown labels are
// rejected.
var orderStatuses = map[OrderStatus]struct{}{
	OrderDraft:     {},
	OrderOrder:     {},
	OrderConfirmed: {},
	OrderInTransit: {},
	OrderDelivered: {},
	OrderCancelled: {},
}

// ValidOrderStatus reports whether s is a known status label.
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := orderStatuses[s]
	return ok
}

// ShipmentDetails is the order-owned shipment snapshot. The authoritative
// Shipment record is derived from it and kept consistent by the engine.
type ShipmentDetails struct {
	TrackingNumber     string         `json:"trackingNumber"`
	Status             ShipmentStatus `json:"status"`
	EstimatedDeparture *time.Time     `json:"estimatedDeparture,omitempty"`
	EstimatedArrival   *time.Time     `json:"estimatedArrival,omitempty"`
	ActualArrival      *time.Time     `json:"actualArrival,omitempty"`
}

// CargoItem is an order-owned cargo line.
type CargoItem struct {
	Description string  `json:"description"`
	HSCode      string  `json:"hsCode,omitempty"`
	Quantity    int     `json:"quantity"`
	WeightKg    float64 `json:"weightKg,omitempty"`
	VolumeM3    float64 `json:"volumeM3,omitempty"`
}

// SalesOrder is the central entity of the back office. CustomerName and
// VendorName are cached denormalized snapshots; the engine refreshes them on
// every referenced-entity rename.
type SalesOrder struct {
	entity.Record

	OrderNumber  string      `json:"orderNumber"`
	CustomerID   string      `json:"customerId"`
	CustomerName string      `json:"customerName"`
	VendorID     string      `json:"vendorId,omitempty"`
	VendorName   string      `json:"vendorName,omitempty"`
	Origin       string      `json:"origin"`
	Destination  string      `json:"destination"`
	ServiceType  string      `json:"serviceType,omitempty"`
	Status       OrderStatus `json:"status"`

	SellingPrice  types.Money `json:"sellingPrice"`
	EstimatedCost types.Money `json:"estimatedCost"`
	Margin        types.Money `json:"margin"`

	ShipmentDetails *ShipmentDetails `json:"shipmentDetails,omitempty"`
	CargoItems      []CargoItem      `json:"cargoItems,omitempty"`
}

// Validate implements entity.Validatable.
func (o *SalesOrder) Validate(ctx context.Context) error {
	if o.CustomerID == "" {
		return apperror.NewValidation("sales order requires a customer").
			WithDetail("field", "customerId")
	}
	if o.Origin == "" || o.Destination == "" {
		return apperror.NewValidation("sales order requires origin and destination").
			WithDetail("origin", o.Origin).
			WithDetail("destination", o.Destination)
	}
	if o.Status == "" {
		o.Status = OrderDraft
	}
	if !ValidOrderStatus(o.Status) {
		return apperror.NewValidation("invalid sales order status").
			WithDetail("field", "status").
			WithDetail("value", string(o.Status))
	}
	if o.SellingPrice.IsNegative() || o.EstimatedCost.IsNegative() {
		return apperror.NewValidation("prices cannot be negative")
	}
	for i, item := range o.CargoItems {
		if item.Description == "" {
			return apperror.NewValidation("cargo item requires a description").
				WithDetail("index", i)
		}
		if item.Quantity < 0 {
			return apperror.NewValidation("cargo item quantity cannot be negative").
				WithDetail("index", i)
		}
	}
	return nil
}

// RecalculateMargin refreshes Margin from SellingPrice and EstimatedCost.
func (o *SalesOrder) RecalculateMargin() {
	o.Margin = o.SellingPrice.Sub(o.EstimatedCost)
}

// TrackingNumber returns the attached tracking number, if any.
func (o *SalesOrder) TrackingNumber() string {
	if o.ShipmentDetails == nil {
		return ""
	}
	return o.ShipmentDetails.TrackingNumber
}
