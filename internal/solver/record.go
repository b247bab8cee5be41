package solver

import (
	"encoding/json"
	"math"
	"strconv"
)

// NotApplicable is how a missing Measure is displayed.
const NotApplicable = "N/A"

// displayPlaces is the rounding applied to every value stored in a Record.
const displayPlaces = 5

// Measure is an error metric that may be absent: there is no previous
// estimate yet, or the estimate is exactly zero for a percentage.
type Measure struct {
	Value float64
	Valid bool
}

// Some returns a present Measure.
func Some(v float64) Measure { return Measure{Value: v, Valid: true} }

// orInf returns the value, or +Inf when absent.
func (m Measure) orInf() float64 {
	if !m.Valid {
		return math.Inf(1)
	}
	return m.Value
}

func (m Measure) String() string {
	if !m.Valid {
		return NotApplicable
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// MarshalJSON encodes an absent Measure as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts a number or null.
func (m *Measure) UnmarshalJSON(b []byte) error {
	var v *float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		*m = Measure{}
		return nil
	}
	*m = Some(*v)
	return nil
}

// Record is the snapshot of one iteration. Values follow Method.Columns.
type Record struct {
	Iteration int       `json:"k"`
	Values    []float64 `json:"values"`
	Estimate  float64   `json:"c"`
	AbsError  Measure   `json:"absError"`
	PctError  Measure   `json:"pctError"`
}

// Result is the outcome of a finished run.
type Result struct {
	Method string     `json:"method"`
	Root   float64    `json:"root"`
	Trace  []Record   `json:"trace"`
	Reason StopReason `json:"reason"`
}

// Iterations is the number of iterations executed.
func (r *Result) Iterations() int { return len(r.Trace) }

// Round rounds v half away from zero to 5 decimal places.
func Round(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	scale := math.Pow10(displayPlaces)
	return math.Round(v*scale) / scale
}

func roundMeasure(m Measure) Measure {
	if !m.Valid {
		return m
	}
	return Some(Round(m.Value))
}

func roundAll(vs []float64) []float64 {
	for i, v := range vs {
		vs[i] = Round(v)
	}
	return vs
}
