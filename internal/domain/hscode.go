package domain

import (
	"context"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
)

// HSCode is a harmonized system tariff code catalog entry.
// Code is unique across the collection.
type HSCode struct {
	entity.Record

	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	DutyRate    float64 `json:"dutyRate,omitempty"`
}

// Validate implements entity.Validatable.
func (h *HSCode) Validate(ctx context.Context) error {
	if h.Code == "" {
		return apperror.NewValidation("hs code is required").
			WithDetail("field", "code")
	}
	if h.DutyRate < 0 {
		return apperror.NewValidation("duty rate cannot be negative").
			WithDetail("field", "dutyRate")
	}
	return nil
}
