package pattern

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func line(ys ...float64) []Point {
	out := make([]Point, len(ys))
	for i, y := range ys {
		out[i] = Point{X: float64(i), Y: y}
	}
	return out
}

func TestDistance_IdenticalCurvesIsZero(t *testing.T) {
	a := line(1, 2, 3, 2, 1)
	assert.Equal(t, 0.0, Distance(a, a))
}

func TestDistance_Symmetric(t *testing.T) {
	a := line(0, 1, 0, 2)
	b := line(0, 2, 1, 0)
	assert.Equal(t, Distance(a, b), Distance(b, a))
}

func TestDistance_ParallelLines(t *testing.T) {
	a := line(0, 0, 0)
	b := line(1, 1, 1)
	assert.InDelta(t, 1.0, Distance(a, b), 1e-12)
}

func TestDistance_SinglePeakOffset(t *testing.T) {
	// Curves agree except at the peak, one unit apart
	a := line(0, 1, 0)
	b := line(0, 2, 0)
	assert.InDelta(t, 1.0, Distance(a, b), 1e-12)
}

func TestDistance_DifferentLengths(t *testing.T) {
	// The midpoint of b has no counterpart on a; the leash must span the
	// diagonal half-step to either endpoint.
	a := line(0, 1)
	b := []Point{{X: 0, Y: 0}, {X: 0.5, Y: 0.5}, {X: 1, Y: 1}}
	assert.InDelta(t, math.Sqrt(0.5), Distance(a, b), 1e-12)
}

func TestDistance_EmptyCurve(t *testing.T) {
	assert.True(t, math.IsInf(Distance(nil, line(1, 2)), 1))
	assert.True(t, math.IsInf(Distance(line(1, 2), nil), 1))
}
