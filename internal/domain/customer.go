// Package domain defines the freight-forwarding entities managed by the
// sync engine. Entities are plain records keyed by opaque string ids; all
// cross-entity validity is enforced procedurally by the engine at mutation
// time, so Validate methods check internal invariants only.
package domain

import (
	"context"
	"regexp"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
	"cargodesk/internal/core/types"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// CustomerStatus defines whether a customer can be referenced by new orders.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// Customer represents a client company.
// Name is denormalized onto dependent records (sales orders, invoices,
// selling costs); every rename fans out through the engine.
type Customer struct {
	entity.Record

	Name          string         `json:"name"`
	Email         string         `json:"email,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	Address       string         `json:"address,omitempty"`
	ContactPerson string         `json:"contactPerson,omitempty"`
	CreditLimit   types.Money    `json:"creditLimit"`
	Status        CustomerStatus `json:"status"`
}

// Validate implements entity.Validatable.
func (c *Customer) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "name")
	}
	if c.Status == "" {
		c.Status = CustomerActive
	}
	if c.Status != CustomerActive && c.Status != CustomerInactive {
		return apperror.NewValidation("invalid customer status").
			WithDetail("field", "status").
			WithDetail("value", string(c.Status))
	}
	if c.Email != "" && !emailRE.MatchString(c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}
	if c.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit cannot be negative").
			WithDetail("field", "creditLimit")
	}
	return nil
}
