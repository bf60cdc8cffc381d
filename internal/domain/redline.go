package domain

import (
	"context"
	"time"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
)

// RedlineStatus is the change-request approval state machine:
// Draft → Pending → Approved | Rejected.
type RedlineStatus string

const (
	RedlineDraft    RedlineStatus = "Draft"
	RedlinePending  RedlineStatus = "Pending"
	RedlineApproved RedlineStatus = "Approved"
	RedlineRejected RedlineStatus = "Rejected"
)

// Fields a redline may target on a sales order.
const (
	RedlineFieldSellingPrice  = "sellingPrice"
	RedlineFieldEstimatedCost = "estimatedCost"
	RedlineFieldOrigin        = "origin"
	RedlineFieldDestination   = "destination"
	RedlineFieldServiceType   = "serviceType"
)

// RedlineChange is one append-only diff record in the redline history.
type RedlineChange struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	By     string    `json:"by,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Redline is a change request against a sales order, carrying the
// original/requested value pair for one field.
type Redline struct {
	entity.Record

	SalesOrderID   string          `json:"salesOrderId"`
	Field          string          `json:"field"`
	OriginalValue  string          `json:"originalValue"`
	RequestedValue string          `json:"requestedValue"`
	Reason         string          `json:"reason,omitempty"`
	Status         RedlineStatus   `json:"status"`
	Changes        []RedlineChange `json:"changes,omitempty"`
	ReviewedBy     string          `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time      `json:"reviewedAt,omitempty"`
}

// redlineFields is the set of targetable order fields.
var redlineFields = map[string]struct{}{
	RedlineFieldSellingPrice:  {},
	RedlineFieldEstimatedCost: {},
	RedlineFieldOrigin:        {},
	RedlineFieldDestination:   {},
	RedlineFieldServiceType:   {},
}

// Validate implements entity.Validatable.
func (r *Redline) Validate(ctx context.Context) error {
	if r.SalesOrderID == "" {
		return apperror.NewValidation("redline requires a sales order").
			WithDetail("field", "salesOrderId")
	}
	if _, ok := redlineFields[r.Field]; !ok {
		return apperror.NewValidation("redline targets an unknown order field").
			WithDetail("field", r.Field)
	}
	if r.Status == "" {
		r.Status = RedlineDraft
	}
	switch r.Status {
	case RedlineDraft, RedlinePending, RedlineApproved, RedlineRejected:
	default:
		return apperror.NewValidation("invalid redline status").
			WithDetail("field", "status").
			WithDetail("value", string(r.Status))
	}
	return nil
}

// AppendChange records an entry in the append-only change history.
func (r *Redline) AppendChange(action, by, note string, at time.Time) {
	r.Changes = append(r.Changes, RedlineChange{
		At:     at,
		Action: action,
		By:     by,
		Note:   note,
	})
}
