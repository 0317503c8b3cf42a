package detect

import (
	"math"

	"github.com/wonny/quantbt/internal/contracts"
)

// PriceFields selects which bar fields feed the composite scan price.
// Selected fields are averaged per bar.
type PriceFields uint8

const (
	FieldOpen PriceFields = 1 << iota
	FieldClose
	FieldHigh
	FieldLow
)

// Has reports whether f includes the given field.
func (f PriceFields) Has(field PriceFields) bool { return f&field != 0 }

func (f PriceFields) count() int {
	n := 0
	for _, field := range []PriceFields{FieldOpen, FieldClose, FieldHigh, FieldLow} {
		if f.Has(field) {
			n++
		}
	}
	return n
}

// compositePrices builds the per-bar scan price: the average of the selected
// bar fields.
func compositePrices(series contracts.PriceSeries, fields PriceFields) []float64 {
	out := make([]float64, len(series))
	n := float64(fields.count())
	for i, bar := range series {
		sum := 0.0
		if fields.Has(FieldOpen) {
			sum += bar.Open
		}
		if fields.Has(FieldClose) {
			sum += bar.Close
		}
		if fields.Has(FieldHigh) {
			sum += bar.High
		}
		if fields.Has(FieldLow) {
			sum += bar.Low
		}
		out[i] = sum / n
	}
	return out
}

// rollingMean applies a centered moving average. Partial windows at the
// edges shrink to the available samples instead of padding, and missing
// values are left out of each window's mean.
func rollingMean(vals []float64, window int) []float64 {
	if window <= 1 {
		return vals
	}

	out := make([]float64, len(vals))
	left := (window - 1) / 2
	right := window / 2
	for i := range vals {
		lo := i - left
		if lo < 0 {
			lo = 0
		}
		hi := i + right
		if hi >= len(vals) {
			hi = len(vals) - 1
		}

		sum := 0.0
		n := 0
		for j := lo; j <= hi; j++ {
			if math.IsNaN(vals[j]) {
				continue
			}
			sum += vals[j]
			n++
		}
		if n == 0 {
			out[i] = contracts.Missing()
		} else {
			out[i] = sum / float64(n)
		}
	}
	return out
}
