package backtest

import (
	"math"
	"time"
)

// Statistic row codes. They occupy the code column of the result table in
// place of an instance id.
const (
	StatMean    = "mean"
	StatGeoMean = "g_mean"
	StatStdDev  = "stddev"
	StatMedian  = "median"
)

// statCodes lists the statistic rows appended per group, in table order.
var statCodes = []string{StatMean, StatGeoMean, StatStdDev, StatMedian}

// IsStatCode reports whether code names a statistic row.
func IsStatCode(code string) bool {
	for _, c := range statCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Row is one line of the unified result table. Observation rows hold one
// signal's normalized forward ratios; statistic rows hold a per-group
// aggregate with the non-aggregate fields left unset (zero date, NaN prices).
type Row struct {
	Group     string
	Code      string // instance id, or a statistic code
	Date      time.Time
	PrevPrice float64
	Price     float64
	Captured  float64   // capture-day price over previous close
	Days      []float64 // index k holds the day k+1 ratio
}

// IsStatistic reports whether this is an aggregate row.
func (r Row) IsStatistic() bool { return IsStatCode(r.Code) }

// Extremum locates one extreme cell in a group's day grid.
type Extremum struct {
	Code  string    // instance id of the row holding the extreme
	Date  time.Time // that observation's capture date
	Day   int       // 1-based day-offset column where the extreme sits
	Value float64
}

// Result is the aggregated backtest table: observation rows and statistic
// rows side by side, plus the group labels in first-seen order. Extremum
// lookups are memoized; the table is not mutated after construction.
type Result struct {
	Rows    []Row
	Groups  []string
	Horizon int

	maxByGroup map[string]Extremum
	minByGroup map[string]Extremum
}

// MaxByGroup returns, per group, the observation cell found by taking each
// day column's maximum and then the column whose maximum is largest.
func (r *Result) MaxByGroup() map[string]Extremum {
	if r.maxByGroup == nil {
		r.maxByGroup = r.extremes(true)
	}
	return r.maxByGroup
}

// MinByGroup returns, per group, the observation cell found by taking each
// day column's minimum and then the column whose minimum is LARGEST. The
// second stage deliberately mirrors the max search instead of inverting it;
// see the open question recorded in DESIGN.md before "fixing" this.
func (r *Result) MinByGroup() map[string]Extremum {
	if r.minByGroup == nil {
		r.minByGroup = r.extremes(false)
	}
	return r.minByGroup
}

// extremes runs the two-stage search over day columns, observation rows
// only. Stage one finds each column's extreme row; stage two picks the
// column whose extreme value is largest (for both directions).
func (r *Result) extremes(wantMax bool) map[string]Extremum {
	out := make(map[string]Extremum, len(r.Groups))

	for _, group := range r.Groups {
		bestRow := -1
		bestDay := 0
		bestVal := math.Inf(-1)

		for d := 0; d < r.Horizon; d++ {
			colRow := -1
			var colVal float64
			for i, row := range r.Rows {
				if row.Group != group || row.IsStatistic() {
					continue
				}
				v := row.Days[d]
				if math.IsNaN(v) {
					continue
				}
				if colRow < 0 || (wantMax && v > colVal) || (!wantMax && v < colVal) {
					colRow = i
					colVal = v
				}
			}
			if colRow < 0 {
				continue
			}
			// Stage two is an argmax in both directions.
			if colVal > bestVal {
				bestRow = colRow
				bestDay = d + 1
				bestVal = colVal
			}
		}

		if bestRow < 0 {
			continue
		}
		out[group] = Extremum{
			Code:  r.Rows[bestRow].Code,
			Date:  r.Rows[bestRow].Date,
			Day:   bestDay,
			Value: bestVal,
		}
	}

	return out
}

// StatRow returns the statistic row for a group and code.
func (r *Result) StatRow(group, code string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Group == group && row.Code == code {
			return row, true
		}
	}
	return Row{}, false
}

// StatSeries returns a statistic row's day columns, the slice renderers and
// the results API consume.
func (r *Result) StatSeries(group, code string) ([]float64, bool) {
	row, ok := r.StatRow(group, code)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(row.Days))
	copy(out, row.Days)
	return out, true
}

// ObservationCount returns the number of observation rows in a group.
func (r *Result) ObservationCount(group string) int {
	n := 0
	for _, row := range r.Rows {
		if row.Group == group && !row.IsStatistic() {
			n++
		}
	}
	return n
}
