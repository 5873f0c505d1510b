package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	huge := 1e200
	tests := []struct {
		name   string
		in     float64
		places int
		want   float64
	}{
		{"already rounded", 37.8, 2, 37.8},
		{"half up", 1.005, 2, 1.01},
		{"half away from zero negative", -1.005, 2, -1.01},
		{"binary noise", 0.1 + 0.2, 2, 0.3},
		{"zero places", 2.5, 0, 3},
		{"four places", 12.34565, 4, 12.3457},
		{"tax on discounted line", 180 * 21 / 100.0, 2, 37.8},
		{"nan", math.NaN(), 2, 0},
		{"positive infinity", math.Inf(1), 2, 0},
		{"negative infinity", math.Inf(-1), 2, 0},
		{"overflowed product", huge * huge, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(tt.in, tt.places))
		})
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 2.5, 2.5},
		{"int", 3, 3},
		{"numeric string", "21", 21},
		{"padded string", " 5.2 ", 5.2},
		{"malformed string", "abc", 0},
		{"empty string", "", 0},
		{"json number", json.Number("10.5"), 10.5},
		{"bool", true, 1},
		{"unsupported", []int{1}, 0},
		{"nan string", "NaN", 0},
		{"inf string", "Inf", 0},
		{"signed inf string", "+Inf", 0},
		{"negative infinity string", "-infinity", 0},
		{"out of range string", "1e999", 0},
		{"nan json number", json.Number("NaN"), 0},
		{"nan float", math.NaN(), 0},
		{"infinite float", math.Inf(-1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Float(tt.in))
		})
	}
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(0))
	assert.True(t, IsFinite(math.MaxFloat64))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(1)))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("0"))
	assert.True(t, IsEmpty(0))
	assert.True(t, IsEmpty(0.0))
	assert.False(t, IsEmpty("21"))
	assert.False(t, IsEmpty(10))
	assert.False(t, IsEmpty("IVA21"))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "21", FormatRate(21))
	assert.Equal(t, "5.2", FormatRate(5.2))
	assert.Equal(t, "0", FormatRate(0))
}

func TestQuantity(t *testing.T) {
	q := NewQuantityFromFloat64(2.5)
	assert.Equal(t, Quantity(25000), q)
	assert.Equal(t, "2.5000", q.String())
	assert.Equal(t, "-2.5000", q.Neg().String())
	assert.Equal(t, 2.5, q.Float64())

	var parsed Quantity
	assert.NoError(t, json.Unmarshal([]byte(`"1.25"`), &parsed))
	assert.Equal(t, Quantity(12500), parsed)
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &parsed))
}
