package pattern

import (
	"fmt"

	"github.com/wonny/quantbt/internal/contracts"
)

// Point is one vertex of a sampled curve. X is the step index, Y the level.
type Point struct {
	X float64
	Y float64
}

// Resample stretches a reference pattern onto targetLength unit-spaced
// points. The targetLength-1 steps are split evenly across the pattern's
// segments; the first remainder segments take one extra step, and values are
// linearly interpolated inside each segment. The first and last points equal
// the first and last pattern levels exactly.
func Resample(pat []float64, targetLength int) ([]Point, error) {
	if len(pat) < 2 {
		return nil, fmt.Errorf("%w: pattern needs at least 2 levels, got %d",
			contracts.ErrInvalidArgument, len(pat))
	}
	if targetLength < len(pat) {
		return nil, fmt.Errorf("%w: target length %d is shorter than pattern length %d",
			contracts.ErrInvalidArgument, targetLength, len(pat))
	}

	segments := len(pat) - 1
	steps := targetLength - 1
	base := steps / segments
	extra := steps % segments

	out := make([]Point, 0, targetLength)
	out = append(out, Point{X: 0, Y: pat[0]})

	idx := 0
	for i := 0; i < segments; i++ {
		itv := base
		if i < extra {
			itv = base + 1
		}
		for j := 1; j <= itv; j++ {
			idx++
			val := pat[i] + (pat[i+1]-pat[i])*float64(j)/float64(itv)
			out = append(out, Point{X: float64(idx), Y: val})
		}
	}

	return out, nil
}
