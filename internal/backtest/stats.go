package backtest

import (
	"math"
	"sort"
)

// statFunc aggregates one column, ignoring missing entries. An all-missing
// column yields NaN rather than an error.
type statFunc func([]float64) float64

// statFuncs maps statistic row codes to their aggregate, in the order the
// rows are appended to the result table.
var statFuncs = map[string]statFunc{
	StatMean:    nanMean,
	StatGeoMean: nanGeoMean,
	StatStdDev:  nanStdDev,
	StatMedian:  nanMedian,
}

func nanMean(vals []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// nanGeoMean is exp(mean(log x)) over the strictly positive, present values.
// Non-positive entries are excluded like missing ones; the geometric mean is
// undefined for them.
func nanGeoMean(vals []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range vals {
		if math.IsNaN(v) || v <= 0 {
			continue
		}
		sum += math.Log(v)
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return math.Exp(sum / float64(n))
}

// nanStdDev is the population standard deviation of the present values.
func nanStdDev(vals []float64) float64 {
	mean := nanMean(vals)
	if math.IsNaN(mean) {
		return math.NaN()
	}

	variance := 0.0
	n := 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		diff := v - mean
		variance += diff * diff
		n++
	}
	return math.Sqrt(variance / float64(n))
}

func nanMedian(vals []float64) float64 {
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}

	sort.Float64s(present)
	mid := len(present) / 2
	if len(present)%2 == 1 {
		return present[mid]
	}
	return (present[mid-1] + present[mid]) / 2
}
