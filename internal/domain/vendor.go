package domain

import (
	"context"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
)

// VendorStatus defines whether a vendor can be assigned to new orders.
type VendorStatus string

const (
	VendorActive   VendorStatus = "active"
	VendorInactive VendorStatus = "inactive"
)

// Vendor represents a carrier, trucker, or other service provider.
type Vendor struct {
	entity.Record

	Name        string       `json:"name"`
	ServiceType string       `json:"serviceType,omitempty"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Status      VendorStatus `json:"status"`
}

// Validate implements entity.Validatable.
func (v *Vendor) Validate(ctx context.Context) error {
	if v.Name == "" {
		return apperror.NewValidation("vendor name is required").
			WithDetail("field", "name")
	}
	if v.Status == "" {
		v.Status = VendorActive
	}
	if v.Status != VendorActive && v.Status != VendorInactive {
		return apperror.NewValidation("invalid vendor status").
			WithDetail("field", "status").
			WithDetail("value", string(v.Status))
	}
	if v.Email != "" && !emailRE.MatchString(v.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}
	return nil
}
