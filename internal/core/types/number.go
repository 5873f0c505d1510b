// Package types provides numeric helpers shared by the totals engine and registers.
package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of decimal places used for money when
// nothing else is configured.
const DefaultPrecision = 2

// Round rounds f to places decimal places, half away from zero.
//
// The value is taken at its shortest decimal representation before rounding,
// so 1.005 rounds to 1.01 even though its binary value is slightly below.
// Stored totals were produced this way and must keep matching.
// NaN and infinities round to 0; callers that care check IsFinite first.
func Round(f float64, places int) float64 {
	if !IsFinite(f) {
		return 0
	}
	return decimal.NewFromFloat(f).Round(int32(places)).InexactFloat64()
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float coerces a loosely typed input value (form fields, JSON) to float64.
// Malformed, unsupported and non-finite values ("NaN", "Inf", 1e999) become 0.
func Float(v any) float64 {
	f := coerce(v)
	if !IsFinite(f) {
		return 0
	}
	return f
}

func coerce(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// IsEmpty reports whether a loosely typed input counts as "not provided":
// nil, blank strings, "0" and numeric zero.
func IsEmpty(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(n)
		return s == "" || s == "0"
	case bool:
		return !n
	default:
		return Float(v) == 0
	}
}

// FormatRate renders a rate with the shortest representation ("21", "5.2").
func FormatRate(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
