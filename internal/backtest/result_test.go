package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoRowResult() *Result {
	date1 := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	date2 := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	return &Result{
		Groups:  []string{"A"},
		Horizon: 2,
		Rows: []Row{
			{Group: "A", Code: "005930_0", Date: date1, Days: []float64{1.5, 0.5}},
			{Group: "A", Code: "000660_0", Date: date2, Days: []float64{1.0, 2.0}},
			{Group: "A", Code: StatMean, Days: []float64{1.25, 1.25}},
		},
	}
}

func TestResult_MaxByGroup(t *testing.T) {
	res := twoRowResult()

	ext, ok := res.MaxByGroup()["A"]
	require.True(t, ok)
	assert.Equal(t, "000660_0", ext.Code)
	assert.Equal(t, 2, ext.Day)
	assert.InDelta(t, 2.0, ext.Value, 1e-12)
}

func TestResult_MinByGroup_PicksLargestColumnMinimum(t *testing.T) {
	// Column minima are 1.0 (day 1) and 0.5 (day 2). The second stage picks
	// the LARGER of the two, mirroring the max search; a true global minimum
	// search would land on 0.5 instead. This pins the documented behavior.
	res := twoRowResult()

	ext, ok := res.MinByGroup()["A"]
	require.True(t, ok)
	assert.Equal(t, "000660_0", ext.Code)
	assert.Equal(t, 1, ext.Day)
	assert.InDelta(t, 1.0, ext.Value, 1e-12)
}

func TestResult_ExtremesIgnoreStatRowsAndMissing(t *testing.T) {
	res := &Result{
		Groups:  []string{"A"},
		Horizon: 2,
		Rows: []Row{
			{Group: "A", Code: "005930_0", Days: []float64{math.NaN(), 1.2}},
			{Group: "A", Code: StatMean, Days: []float64{99, 99}},
		},
	}

	ext, ok := res.MaxByGroup()["A"]
	require.True(t, ok)
	assert.Equal(t, "005930_0", ext.Code)
	assert.Equal(t, 2, ext.Day)
	assert.InDelta(t, 1.2, ext.Value, 1e-12)
}

func TestResult_ExtremesOmitGroupsWithoutPricedCells(t *testing.T) {
	res := &Result{
		Groups:  []string{"A"},
		Horizon: 1,
		Rows: []Row{
			{Group: "A", Code: "005930_0", Days: []float64{math.NaN()}},
		},
	}

	_, ok := res.MaxByGroup()["A"]
	assert.False(t, ok)
	_, ok = res.MinByGroup()["A"]
	assert.False(t, ok)
}

func TestResult_StatSeriesReturnsCopy(t *testing.T) {
	res := twoRowResult()

	series, ok := res.StatSeries("A", StatMean)
	require.True(t, ok)
	series[0] = -1

	again, _ := res.StatSeries("A", StatMean)
	assert.InDelta(t, 1.25, again[0], 1e-12, "callers must not alias the table")
}

func TestResult_StatSeriesUnknownGroup(t *testing.T) {
	res := twoRowResult()

	_, ok := res.StatSeries("Z", StatMean)
	assert.False(t, ok)
}

func TestResult_ObservationCount(t *testing.T) {
	res := twoRowResult()
	assert.Equal(t, 2, res.ObservationCount("A"))
	assert.Equal(t, 0, res.ObservationCount("Z"))
}

func TestIsStatCode(t *testing.T) {
	for _, code := range []string{"mean", "g_mean", "stddev", "median"} {
		assert.True(t, IsStatCode(code), code)
	}
	assert.False(t, IsStatCode("005930_0"))
}
