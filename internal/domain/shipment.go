package domain

import (
	"context"
	"time"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
)

// ShipmentStatus tracks a shipment through its physical lifecycle.
type ShipmentStatus string

const (
	ShipmentPreparing ShipmentStatus = "Preparing"
	ShipmentInTransit ShipmentStatus = "In Transit"
	ShipmentDelivered ShipmentStatus = "Delivered"
	ShipmentCancelled ShipmentStatus = "Cancelled"
)

// Shipment is the authoritative shipment record. Shipments derived from a
// sales order carry SalesOrderID as a back-reference (not ownership);
// manual bookings from the booking screen may leave it empty.
type Shipment struct {
	entity.Record

	SalesOrderID   string         `json:"salesOrderId,omitempty"`
	TrackingNumber string         `json:"trackingNumber"`
	Origin         string         `json:"origin"`
	Destination    string         `json:"destination"`
	Carrier        string         `json:"carrier,omitempty"`
	ETD            *time.Time     `json:"etd,omitempty"`
	ETA            *time.Time     `json:"eta,omitempty"`
	ActualArrival  *time.Time     `json:"actualArrival,omitempty"`
	Status         ShipmentStatus `json:"status"`
}

// Validate implements entity.Validatable.
func (s *Shipment) Validate(ctx context.Context) error {
	if s.TrackingNumber == "" {
		return apperror.NewValidation("shipment requires a tracking number").
			WithDetail("field", "trackingNumber")
	}
	if s.Status == "" {
		s.Status = ShipmentPreparing
	}
	switch s.Status {
	case ShipmentPreparing, ShipmentInTransit, ShipmentDelivered, ShipmentCancelled:
	default:
		return apperror.NewValidation("invalid shipment status").
			WithDetail("field", "status").
			WithDetail("value", string(s.Status))
	}
	return nil
}
