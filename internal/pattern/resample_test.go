package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantbt/internal/contracts"
)

func TestResample_EvenSplit(t *testing.T) {
	// 2 segments over 6 steps: 3 steps each
	got, err := Resample([]float64{1, 3, 2}, 7)
	require.NoError(t, err)
	require.Len(t, got, 7)

	want := []float64{1, 1 + 2.0/3, 1 + 4.0/3, 3, 3 - 1.0/3, 3 - 2.0/3, 2}
	for i, p := range got {
		assert.Equal(t, float64(i), p.X, "X at %d", i)
		assert.InDelta(t, want[i], p.Y, 1e-12, "Y at %d", i)
	}
}

func TestResample_RemainderGoesToFirstSegments(t *testing.T) {
	// 5 steps over 2 segments: first segment takes 3, second takes 2
	got, err := Resample([]float64{0, 1, 0}, 6)
	require.NoError(t, err)
	require.Len(t, got, 6)

	want := []float64{0, 1.0 / 3, 2.0 / 3, 1, 0.5, 0}
	for i, p := range got {
		assert.InDelta(t, want[i], p.Y, 1e-12, "Y at %d", i)
	}
}

func TestResample_TargetEqualsPatternLength(t *testing.T) {
	got, err := Resample([]float64{1, 2, 3}, 3)
	require.NoError(t, err)

	assert.Equal(t, []Point{{X: 0, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 3}}, got)
}

func TestResample_Endpoints(t *testing.T) {
	got, err := Resample([]float64{5, 1, 4, 2}, 60)
	require.NoError(t, err)
	require.Len(t, got, 60)

	assert.Equal(t, 5.0, got[0].Y)
	assert.Equal(t, 2.0, got[59].Y)
	assert.Equal(t, 59.0, got[59].X)
}

func TestResample_Errors(t *testing.T) {
	tests := []struct {
		name   string
		pat    []float64
		target int
	}{
		{name: "pattern too short", pat: []float64{1}, target: 10},
		{name: "empty pattern", pat: nil, target: 10},
		{name: "target shorter than pattern", pat: []float64{1, 2, 3}, target: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resample(tt.pat, tt.target)
			require.Error(t, err)
			assert.True(t, errors.Is(err, contracts.ErrInvalidArgument))
		})
	}
}
