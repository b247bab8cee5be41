package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateDigits(t *testing.T) {
	tests := []struct {
		v    float64
		n    int
		want string
	}{
		{1.23456, 2, "1.23"},
		{1.239, 2, "1.23"},
		{2, 3, "2.000"},
		{2.0001, 3, "2.000"},
		{-0.5, 1, "-0.5"},
		{1.5, 0, "1."},
		{1e-7, 5, "0.00000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateDigits(tt.v, tt.n), "%v @ %d", tt.v, tt.n)
	}
}

func TestStabilizedDigitsIsTextual(t *testing.T) {
	rule := ByStabilizedDigits{Places: 3}

	// Numerically 1e-7 apart, but on either side of a digit boundary.
	_, ok := rule.stop(progress{c: 1.2349999, prev: 1.235, hasPrev: true})
	assert.False(t, ok)

	_, ok = rule.stop(progress{c: 1.2351, prev: 1.2359, hasPrev: true})
	assert.True(t, ok)

	_, ok = rule.stop(progress{c: 1.2351, prev: 1.2351})
	assert.False(t, ok, "no previous estimate")
}

func TestToleranceTreatsMissingErrorAsInfinite(t *testing.T) {
	rule := ByTolerance{Threshold: math.MaxFloat64, ErrorType: Absolute}
	_, ok := rule.stop(progress{absErr: math.Inf(1), pctErr: math.Inf(1)})
	assert.False(t, ok)

	_, ok = ByTolerance{Threshold: 0.5}.stop(progress{absErr: 0.1, pctErr: 0.4})
	assert.True(t, ok)
}

func TestMeasureJSON(t *testing.T) {
	b, err := Measure{}.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var m Measure
	assert.NoError(t, m.UnmarshalJSON([]byte("0.25")))
	assert.Equal(t, Some(0.25), m)
}
