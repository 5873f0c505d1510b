package numerator

import (
	"context"
	"time"
)

// Generator hands out document codes and numbers.
type Generator interface {
	// GetNextNumber returns the next code, e.g. FAC-A-2026-00001.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next number value (data imports).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
