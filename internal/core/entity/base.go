package entity

import (
	"context"
	"time"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without store access); cross-entity
// references are validated by the sync engine at mutation time.
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Record contains common fields for all stored entities.
// IDs are opaque strings (UUIDv7 when generated by the engine) and
// timestamps are stamped by the engine on create/update.
type Record struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Stamp sets the id and creation timestamps on a new record.
func (r *Record) Stamp(id string, now time.Time) {
	if r.ID == "" {
		r.ID = id
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now
}

// Key returns the record id. Satisfies the store's Keyed constraint.
func (r *Record) Key() string { return r.ID }
