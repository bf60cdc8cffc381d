// Package sequence provides document auto-numbering.
// Pattern: PREFIX-YEAR-XXXXX (e.g. SO-2026-00001). The counter backend is
// pluggable; the in-memory counter is seeded from existing records at
// startup so restarts never reuse a number within a period.
package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Counter allocates monotonically increasing numbers per key.
type Counter interface {
	Next(ctx context.Context, key string) (int64, error)
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g. "SO", "INV", "PO")
	Prefix string

	// IncludeYear adds the period year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
	}
}

// Service formats sequence numbers over a Counter.
type Service struct {
	counter Counter
}

// New creates a sequence service.
func New(counter Counter) *Service {
	return &Service{counter: counter}
}

// Next generates the next number for cfg within period's year.
func (s *Service) Next(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if s == nil || s.counter == nil {
		return "", fmt.Errorf("sequence service is not initialized")
	}

	key := buildKey(cfg, period)
	num, err := s.counter.Next(ctx, key)
	if err != nil {
		return "", fmt.Errorf("next %s: %w", key, err)
	}
	return formatNumber(cfg, period, num), nil
}

func buildKey(cfg Config, period time.Time) string {
	if cfg.IncludeYear {
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	}
	return cfg.Prefix
}

func formatNumber(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[^-]-%d",
	}
	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}
	return -1
}

// MemoryCounter is a mutex-guarded in-process Counter.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryCounter creates an empty counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int64)}
}

// Next returns the next value for key, starting at 1.
func (c *MemoryCounter) Next(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

// Seed raises the counter for key to at least val. Used at startup to skip
// past numbers already present in the store.
func (c *MemoryCounter) Seed(key string, val int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[key] < val {
		c.counts[key] = val
	}
}

// SeedFromNumber seeds from a formatted number if it parses.
func (c *MemoryCounter) SeedFromNumber(cfg Config, period time.Time, formatted string) {
	if n := ParseNumber(formatted); n > 0 {
		c.Seed(buildKey(cfg, period), n)
	}
}
