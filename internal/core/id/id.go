// Package id provides UUIDv7 generation for all entity identifiers.
// UUIDv7 is time-ordered, so ids sort naturally by creation time.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a new UUIDv7 string.
// Falls back to V4 if V7 generation fails (should never happen).
func New() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

// IsValid reports whether s parses as a UUID.
// Store ids are opaque strings, so callers use this only where a
// generated id is expected (seed checks, migrations).
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Short returns a compact uppercase fragment of a fresh UUID,
// used as the random part of synthesized tracking numbers.
func Short(n int) string {
	s := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
