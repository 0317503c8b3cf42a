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

func flowSeries(foreign, institution []float64) contracts.PriceSeries {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	series := make(contracts.PriceSeries, len(foreign))
	for i := range foreign {
		series[i] = contracts.Bar{
			Date:           base.AddDate(0, 0, i),
			Close:          1000,
			ForeignNet:     foreign[i],
			InstitutionNet: institution[i],
		}
	}
	return series
}

func TestFlowScanner_EmitsOncePerRun(t *testing.T) {
	// 5 qualifying days in a row: the run emits exactly once, on day 3
	series := flowSeries(
		[]float64{500, 500, 500, 500, 500},
		[]float64{0, 0, 0, 0, 0},
	)

	scanner := NewFlowScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, FlowOptions{
		Group:            "A",
		ForeignThreshold: 100,
		ConsecutiveDays:  3,
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "005930", got[0].Code)
	assert.Equal(t, "A", got[0].Group)
	assert.Equal(t, series[2].Date, got[0].Date)
}

func TestFlowScanner_RunResetsAndReemits(t *testing.T) {
	// Two separate runs of 2, split by a failing day
	series := flowSeries(
		[]float64{500, 500, 50, 500, 500},
		[]float64{0, 0, 0, 0, 0},
	)

	scanner := NewFlowScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, FlowOptions{
		Group:            "A",
		ForeignThreshold: 100,
		ConsecutiveDays:  2,
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, series[1].Date, got[0].Date)
	assert.Equal(t, series[4].Date, got[1].Date)
}

func TestFlowScanner_BothModeRequiresBothFlows(t *testing.T) {
	series := flowSeries(
		[]float64{500, 500, 500},
		[]float64{300, 50, 300},
	)

	scanner := NewFlowScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, FlowOptions{
		Group:                "A",
		ForeignThreshold:     100,
		InstitutionThreshold: 100,
		ConsecutiveDays:      1,
	})
	require.NoError(t, err)

	// Day 2 fails on the institution side
	require.Len(t, got, 2)
	assert.Equal(t, series[0].Date, got[0].Date)
	assert.Equal(t, series[2].Date, got[1].Date)
}

func TestFlowScanner_ZeroAndMissingFlowNeverQualify(t *testing.T) {
	// Zero doubles as the missing sentinel in flow feeds
	series := flowSeries(
		[]float64{0, contracts.Missing(), 500},
		[]float64{0, 0, 0},
	)

	scanner := NewFlowScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, FlowOptions{
		Group:            "A",
		ForeignThreshold: -1000, // even a negative threshold cannot admit them
		ConsecutiveDays:  1,
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, series[2].Date, got[0].Date)
}

func TestFlowScanner_ThresholdIsInclusive(t *testing.T) {
	series := flowSeries(
		[]float64{100, 99},
		[]float64{0, 0},
	)

	scanner := NewFlowScanner(zerolog.Nop())
	got, err := scanner.Scan(context.Background(), "005930", series, FlowOptions{
		Group:            "A",
		ForeignThreshold: 100,
		ConsecutiveDays:  1,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, series[0].Date, got[0].Date)
}

func TestFlowScanner_OptionErrors(t *testing.T) {
	scanner := NewFlowScanner(zerolog.Nop())
	series := flowSeries([]float64{500}, []float64{500})

	t.Run("no thresholds", func(t *testing.T) {
		_, err := scanner.Scan(context.Background(), "005930", series, FlowOptions{
			ConsecutiveDays: 1,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, contracts.ErrInvalidArgument))
	})

	t.Run("consecutive days below one", func(t *testing.T) {
		_, err := scanner.Scan(context.Background(), "005930", series, FlowOptions{
			ForeignThreshold: 100,
			ConsecutiveDays:  0,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, contracts.ErrInvalidArgument))
	})
}

func TestFlowMode_Derivation(t *testing.T) {
	tests := []struct {
		name string
		opts FlowOptions
		want FlowMode
	}{
		{name: "both", opts: FlowOptions{ForeignThreshold: 1, InstitutionThreshold: 1}, want: ModeBoth},
		{name: "foreign only", opts: FlowOptions{ForeignThreshold: 1}, want: ModeForeign},
		{name: "institution only", opts: FlowOptions{InstitutionThreshold: 1}, want: ModeInstitution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flowMode(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
