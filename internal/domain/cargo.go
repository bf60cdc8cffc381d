package domain

import (
	"context"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
)

// Cargo is a standalone cargo record in the cargo register. Order-owned
// cargo lives embedded on the sales order as CargoItem; this collection
// backs the cargo management screen and may reference an order.
type Cargo struct {
	entity.Record

	Description  string  `json:"description"`
	HSCode       string  `json:"hsCode,omitempty"`
	Quantity     int     `json:"quantity"`
	WeightKg     float64 `json:"weightKg,omitempty"`
	VolumeM3     float64 `json:"volumeM3,omitempty"`
	SalesOrderID string  `json:"salesOrderId,omitempty"`
}

// Validate implements entity.Validatable.
func (c *Cargo) Validate(ctx context.Context) error {
	if c.Description == "" {
		return apperror.NewValidation("cargo requires a description").
			WithDetail("field", "description")
	}
	if c.Quantity < 0 {
		return apperror.NewValidation("cargo quantity cannot be negative").
			WithDetail("field", "quantity")
	}
	if c.WeightKg < 0 || c.VolumeM3 < 0 {
		return apperror.NewValidation("cargo measurements cannot be negative")
	}
	return nil
}
