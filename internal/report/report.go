// Package report renders solver traces as a text table or CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/adamehabm/Numerical-Project/internal/solver"
)

// ColumnWidth is the width every table cell is padded to.
const ColumnWidth = 15

const (
	iterationTitle = "Iteration"
	absErrorTitle  = "Absolute Error"
	pctErrorTitle  = "Percentage Error"
)

// DisplayName title-cases a method tag: "false_position" -> "False_Position".
func DisplayName(method string) string {
	parts := strings.Split(method, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
		}
	}
	return strings.Join(parts, "_")
}

// Titles lists the table columns for a method.
func Titles(m solver.Method) []string {
	titles := []string{iterationTitle}
	titles = append(titles, m.Columns()...)
	return append(titles, absErrorTitle, pctErrorTitle)
}

// WriteTable prints the method name, the root and the trace as
// left-aligned fixed-width columns. A nil result means no root was found.
func WriteTable(w io.Writer, m solver.Method, res *solver.Result) error {
	ew := &errWriter{w: w}
	ew.printf("\nMethod: %s\n", DisplayName(m.Name()))
	if res == nil {
		ew.printf("The method did not converge to a solution within the given tolerance or iterations.\n")
		return ew.err
	}

	ew.printf("Root found: %.5f\n\n", res.Root)

	titles := Titles(m)
	ew.printf("%s\n", row(titles))
	ew.printf("%s\n", strings.Repeat("-", len(titles)*ColumnWidth))
	for _, rec := range res.Trace {
		ew.printf("%s\n", row(cells(rec)))
	}
	return ew.err
}

// WriteCSV exports the trace, one row per iteration.
func WriteCSV(w io.Writer, m solver.Method, trace []solver.Record) error {
	cw := csv.NewWriter(w)

	header := []string{"k"}
	header = append(header, m.Columns()...)
	header = append(header, "abs_error", "pct_error")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range trace {
		if err := cw.Write(cells(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cells(rec solver.Record) []string {
	out := make([]string, 0, len(rec.Values)+3)
	out = append(out, strconv.Itoa(rec.Iteration))
	for _, v := range rec.Values {
		out = append(out, fmtFloat(v))
	}
	return append(out, measure(rec.AbsError), measure(rec.PctError))
}

func measure(m solver.Measure) string {
	if !m.Valid {
		return solver.NotApplicable
	}
	return fmtFloat(m.Value)
}

func row(cells []string) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = fmt.Sprintf("%-*s", ColumnWidth, c)
	}
	return strings.Join(padded, " ")
}

// fmtFloat writes the shortest text that reads back as v. Whole numbers keep
// a ".0" and very small or large magnitudes switch to exponent form, so 2
// prints as 2.0 and 0.00001 as 1e-05.
func fmtFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
