package detect

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wonny/quantbt/internal/contracts"
	"github.com/wonny/quantbt/internal/pattern"
)

// ShapeOptions controls a chart-shape scan.
type ShapeOptions struct {
	Group string // backtest group attached to every emitted candidate

	Threshold    float64 // Fréchet distance below which a window matches
	WindowSize   int     // bars per window
	WindowStride int     // bars to advance per window; 0 means WindowSize/10

	Fields       PriceFields // bar fields averaged into the scan price; 0 means close only
	SmoothWindow int         // centered rolling-mean width; 0 disables smoothing

	MinRangeRatio float64 // minimum (max-min)/min*100 for a window to qualify
	MaxRangeRatio float64 // maximum range ratio; 0 means unbounded
}

// ShapeScanner slides a window across a price series and keeps windows whose
// shape tracks a reference pattern under the Fréchet distance. Windows are
// independent, so they are scored in parallel; emissions are re-sorted into
// ascending scan position before returning.
type ShapeScanner struct {
	log     zerolog.Logger
	workers int
}

// NewShapeScanner creates a shape scanner.
func NewShapeScanner(log zerolog.Logger) *ShapeScanner {
	return &ShapeScanner{
		log:     log.With().Str("component", "detect.shape").Logger(),
		workers: runtime.NumCPU(),
	}
}

// Scan returns a candidate for every window of series whose rescaled shape
// lies within opts.Threshold of the resampled reference pattern. Candidates
// are dated at their window's last bar, in scan order.
func (s *ShapeScanner) Scan(ctx context.Context, code string, series contracts.PriceSeries, pat []float64, opts ShapeOptions) ([]Candidate, error) {
	if opts.WindowSize < 2 {
		return nil, fmt.Errorf("%w: window size must be at least 2, got %d",
			contracts.ErrInvalidArgument, opts.WindowSize)
	}

	stride := opts.WindowStride
	if stride <= 0 {
		stride = opts.WindowSize / 10
		if stride < 1 {
			stride = 1
		}
	}

	fields := opts.Fields
	if fields == 0 {
		fields = FieldClose
	}

	maxRatio := opts.MaxRangeRatio
	if maxRatio <= 0 {
		maxRatio = math.Inf(1)
	}

	prices := compositePrices(series, fields)
	if opts.SmoothWindow > 1 {
		prices = rollingMean(prices, opts.SmoothWindow)
	}

	refCurve, err := pattern.Resample(pat, opts.WindowSize)
	if err != nil {
		return nil, err
	}

	patMin, patMax := pat[0], pat[0]
	for _, v := range pat[1:] {
		patMin = math.Min(patMin, v)
		patMax = math.Max(patMax, v)
	}
	patDiff := patMax - patMin

	// Window start positions, in scan order. The first partial window ends
	// the scan.
	var starts []int
	for i := 0; i+opts.WindowSize <= len(prices); i += stride {
		starts = append(starts, i)
	}

	type hit struct {
		start int
		cand  Candidate
	}

	var (
		mu   sync.Mutex
		hits []hit
		wg   sync.WaitGroup
	)
	jobs := make(chan int)

	workers := s.workers
	if workers > len(starts) {
		workers = len(starts)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				if !matchWindow(prices[i:i+opts.WindowSize], refCurve, patMin, patDiff, opts.Threshold, opts.MinRangeRatio, maxRatio) {
					continue
				}
				c := Candidate{
					Code:  code,
					Date:  series[i+opts.WindowSize-1].Date,
					Group: opts.Group,
				}
				mu.Lock()
				hits = append(hits, hit{start: i, cand: c})
				mu.Unlock()
			}
		}()
	}

	for _, i := range starts {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Parallel workers report out of order; restore scan order.
	sort.Slice(hits, func(a, b int) bool { return hits[a].start < hits[b].start })

	out := make([]Candidate, len(hits))
	for i, h := range hits {
		out[i] = h.cand
	}

	s.log.Info().
		Str("code", code).
		Int("windows", len(starts)).
		Int("matches", len(out)).
		Float64("threshold", opts.Threshold).
		Msg("shape scan completed")

	return out, nil
}

// matchWindow rescales one window onto the pattern's value range and scores
// it against the reference curve. Windows containing missing values, flat
// windows, and windows outside the range-ratio band are skipped.
func matchWindow(win []float64, ref []pattern.Point, patMin, patDiff, threshold, minRatio, maxRatio float64) bool {
	minV, maxV := win[0], win[0]
	for _, v := range win {
		if math.IsNaN(v) {
			return false
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}

	diff := maxV - minV
	if diff == 0 || minV == 0 {
		return false
	}

	ratio := diff / minV * 100
	if ratio < minRatio || ratio > maxRatio {
		return false
	}

	scale := patDiff / diff
	curve := make([]pattern.Point, len(win))
	for j, v := range win {
		curve[j] = pattern.Point{X: float64(j), Y: (v-minV)*scale + patMin}
	}

	return pattern.Distance(curve, ref) < threshold
}
