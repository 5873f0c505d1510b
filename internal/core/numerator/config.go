// Package numerator provides domain contracts for document auto-numbering.
package numerator

import "strings"

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPDATE ... RETURNING for every number.
	// Gapless; required for invoices.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// May leave gaps after a restart. Used for estimations, orders and
	// delivery notes.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved per round trip in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// StrictOptions returns gapless numbering options.
func StrictOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// CachedOptions returns range-allocating options.
func CachedOptions() *Options {
	return &Options{Strategy: StrategyCached, RangeSize: 50}
}

// Config holds numbering configuration for one document kind.
type Config struct {
	// Prefix added to all codes (e.g. "FAC", "PRE")
	Prefix string

	// Series is appended to the sequence key so each series numbers independently.
	Series string

	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns a yearly-resetting config for prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// SequencePart returns the trailing number of a code ("FAC-A-2026-00012" → "00012").
func SequencePart(code string) string {
	if i := strings.LastIndex(code, "-"); i >= 0 {
		return code[i+1:]
	}
	return code
}
