package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantbt/internal/contracts"
)

func closeSeries(closes ...float64) contracts.PriceSeries {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	series := make(contracts.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = contracts.Bar{Date: base.AddDate(0, 0, i), Close: c}
	}
	return series
}

// vPattern dips to half and recovers, like the scaled window 10-8-6-8-10.
var vPattern = []float64{2, 1, 2}

func TestShapeScanner_FindsExactWindow(t *testing.T) {
	series := closeSeries(5, 5, 5, 5, 10, 8, 6, 8, 10)

	scanner := NewShapeScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, vPattern, ShapeOptions{
		Group:        "A",
		Threshold:    0.5,
		WindowSize:   5,
		WindowStride: 1,
	})
	require.NoError(t, err)

	// Only the trailing window rescales onto the pattern exactly
	require.Len(t, got, 1)
	assert.Equal(t, "005930", got[0].Code)
	assert.Equal(t, "A", got[0].Group)
	assert.Equal(t, series[8].Date, got[0].Date)
}

func TestShapeScanner_CandidatesInScanOrder(t *testing.T) {
	series := closeSeries(10, 8, 6, 8, 10, 10, 8, 6, 8, 10)

	scanner := NewShapeScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, vPattern, ShapeOptions{
		Group:        "A",
		Threshold:    0.5,
		WindowSize:   5,
		WindowStride: 5,
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, series[4].Date, got[0].Date)
	assert.Equal(t, series[9].Date, got[1].Date)
}

func TestShapeScanner_RangeRatioBand(t *testing.T) {
	// The matching window swings (10-6)/6*100 = 66.7%
	series := closeSeries(10, 8, 6, 8, 10)
	scanner := NewShapeScanner(zerolog.Nop())

	opts := ShapeOptions{
		Group:         "A",
		Threshold:     0.5,
		WindowSize:    5,
		MinRangeRatio: 70,
	}
	got, err := scanner.Scan(context.Background(), "005930", series, vPattern, opts)
	require.NoError(t, err)
	assert.Empty(t, got, "window below the minimum swing must be dropped")

	opts.MinRangeRatio = 0
	opts.MaxRangeRatio = 50
	got, err = scanner.Scan(context.Background(), "005930", series, vPattern, opts)
	require.NoError(t, err)
	assert.Empty(t, got, "window above the maximum swing must be dropped")

	opts.MaxRangeRatio = 0 // unbounded
	got, err = scanner.Scan(context.Background(), "005930", series, vPattern, opts)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestShapeScanner_SkipsWindowsWithMissingPrices(t *testing.T) {
	series := closeSeries(10, 8, 6, 8, 10)
	series[2].Close = contracts.Missing()

	scanner := NewShapeScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, vPattern, ShapeOptions{
		Group:      "A",
		Threshold:  0.5,
		WindowSize: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestShapeScanner_SkipsFlatWindows(t *testing.T) {
	series := closeSeries(7, 7, 7, 7, 7)

	scanner := NewShapeScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, vPattern, ShapeOptions{
		Group:      "A",
		Threshold:  100,
		WindowSize: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestShapeScanner_ShortSeriesYieldsNoWindows(t *testing.T) {
	series := closeSeries(10, 8, 6)

	scanner := NewShapeScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, vPattern, ShapeOptions{
		Group:      "A",
		Threshold:  0.5,
		WindowSize: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestShapeScanner_OptionErrors(t *testing.T) {
	scanner := NewShapeScanner(zerolog.Nop())
	series := closeSeries(10, 8, 6, 8, 10)

	t.Run("window too small", func(t *testing.T) {
		_, err := scanner.Scan(context.Background(), "005930", series, vPattern, ShapeOptions{
			WindowSize: 1,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, contracts.ErrInvalidArgument))
	})

	t.Run("pattern too short", func(t *testing.T) {
		_, err := scanner.Scan(context.Background(), "005930", series, []float64{1}, ShapeOptions{
			WindowSize: 5,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, contracts.ErrInvalidArgument))
	})
}

func TestShapeScanner_CancelledContext(t *testing.T) {
	series := closeSeries(10, 8, 6, 8, 10, 10, 8, 6, 8, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewShapeScanner(zerolog.Nop())
	_, err := scanner.Scan(ctx, "005930", series, vPattern, ShapeOptions{
		Threshold:  0.5,
		WindowSize: 5,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
