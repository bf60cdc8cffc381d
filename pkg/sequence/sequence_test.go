package sequence

import (
	"context"
	"sync"
	"testing"
	"time"
)

var period = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func TestNextFormatsNumbers(t *testing.T) {
	svc := New(NewMemoryCounter())
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"with year", DefaultConfig("SO"), "SO-2026-00001"},
		{"without year", Config{Prefix: "DOC", PadWidth: 3}, "DOC-001"},
		{"default pad", Config{Prefix: "X", IncludeYear: true}, "X-2026-00001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Next(ctx, tt.cfg, period)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if got != tt.want {
				t.Errorf("Next = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextIncrementsPerKey(t *testing.T) {
	svc := New(NewMemoryCounter())
	ctx := context.Background()
	cfg := DefaultConfig("SO")

	first, _ := svc.Next(ctx, cfg, period)
	second, _ := svc.Next(ctx, cfg, period)
	if first != "SO-2026-00001" || second != "SO-2026-00002" {
		t.Errorf("got %q then %q", first, second)
	}

	// A different prefix runs its own counter.
	inv, _ := svc.Next(ctx, DefaultConfig("INV"), period)
	if inv != "INV-2026-00001" {
		t.Errorf("INV counter = %q", inv)
	}

	// A different year opens a new period.
	nextYear, _ := svc.Next(ctx, cfg, period.AddDate(1, 0, 0))
	if nextYear != "SO-2027-00001" {
		t.Errorf("next-year counter = %q", nextYear)
	}
}

func TestParseNumber(t *testing.T) {
	if got := ParseNumber("SO-2026-00042"); got != 42 {
		t.Errorf("ParseNumber = %d, want 42", got)
	}
	if got := ParseNumber("DOC-007"); got != 7 {
		t.Errorf("ParseNumber = %d, want 7", got)
	}
	if got := ParseNumber("garbage"); got != -1 {
		t.Errorf("ParseNumber = %d, want -1", got)
	}
}

func TestSeedFromNumberSkipsTakenRange(t *testing.T) {
	counter := NewMemoryCounter()
	svc := New(counter)
	cfg := DefaultConfig("SO")

	counter.SeedFromNumber(cfg, period, "SO-2026-00041")
	got, err := svc.Next(context.Background(), cfg, period)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "SO-2026-00042" {
		t.Errorf("Next after seed = %q, want SO-2026-00042", got)
	}

	// Seeding lower never rewinds.
	counter.Seed("SO_2026", 10)
	got, _ = svc.Next(context.Background(), cfg, period)
	if got != "SO-2026-00043" {
		t.Errorf("Next after low seed = %q, want SO-2026-00043", got)
	}
}

func TestMemoryCounterConcurrency(t *testing.T) {
	counter := NewMemoryCounter()
	ctx := context.Background()

	const workers = 20
	const perWorker = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := counter.Next(ctx, "k"); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	final, _ := counter.Next(ctx, "k")
	if final != workers*perWorker+1 {
		t.Errorf("final = %d, want %d", final, workers*perWorker+1)
	}
}
