package detect

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/quantbt/internal/contracts"
)

// FlowMode selects which investor flows must clear their thresholds.
type FlowMode int

const (
	// ModeBoth requires foreign and institutional flow to qualify together.
	ModeBoth FlowMode = iota
	// ModeForeign screens foreign net buying only.
	ModeForeign
	// ModeInstitution screens institutional net buying only.
	ModeInstitution
)

// FlowOptions controls an investor-flow threshold scan. The mode is derived
// from which thresholds are nonzero.
type FlowOptions struct {
	Group string

	ForeignThreshold     float64
	InstitutionThreshold float64
	ConsecutiveDays      int
}

// FlowScanner screens a series for runs of sustained net buying.
type FlowScanner struct {
	log zerolog.Logger
}

// NewFlowScanner creates a flow scanner.
func NewFlowScanner(log zerolog.Logger) *FlowScanner {
	return &FlowScanner{
		log: log.With().Str("component", "detect.flow").Logger(),
	}
}

// Scan emits one candidate per run of opts.ConsecutiveDays qualifying days.
// The candidate is dated at the day the run length is first reached; longer
// runs do not re-emit until the counter resets and re-accumulates.
func (s *FlowScanner) Scan(ctx context.Context, code string, series contracts.PriceSeries, opts FlowOptions) ([]Candidate, error) {
	mode, err := flowMode(opts)
	if err != nil {
		return nil, err
	}
	if opts.ConsecutiveDays < 1 {
		return nil, fmt.Errorf("%w: consecutive days must be at least 1, got %d",
			contracts.ErrInvalidArgument, opts.ConsecutiveDays)
	}

	var out []Candidate
	run := 0
	for _, bar := range series {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if qualifies(mode, bar, opts) {
			run++
		} else {
			run = 0
		}
		if run == opts.ConsecutiveDays {
			out = append(out, Candidate{Code: code, Date: bar.Date, Group: opts.Group})
		}
	}

	s.log.Info().
		Str("code", code).
		Int("days", len(series)).
		Int("matches", len(out)).
		Msg("flow scan completed")

	return out, nil
}

// flowMode derives the scan mode from the nonzero thresholds.
func flowMode(opts FlowOptions) (FlowMode, error) {
	switch {
	case opts.ForeignThreshold != 0 && opts.InstitutionThreshold != 0:
		return ModeBoth, nil
	case opts.ForeignThreshold != 0:
		return ModeForeign, nil
	case opts.InstitutionThreshold != 0:
		return ModeInstitution, nil
	default:
		return 0, fmt.Errorf("%w: at least one of the foreign and institution thresholds must be nonzero",
			contracts.ErrInvalidArgument)
	}
}

// qualifies checks one day against the thresholds. A flow value counts only
// when present: zero doubles as the missing sentinel in KRX flow feeds, so
// zero days never qualify.
func qualifies(mode FlowMode, bar contracts.Bar, opts FlowOptions) bool {
	forePresent := !contracts.IsMissing(bar.ForeignNet) && bar.ForeignNet != 0
	instPresent := !contracts.IsMissing(bar.InstitutionNet) && bar.InstitutionNet != 0

	switch mode {
	case ModeBoth:
		return forePresent && instPresent &&
			bar.ForeignNet >= opts.ForeignThreshold &&
			bar.InstitutionNet >= opts.InstitutionThreshold
	case ModeForeign:
		return forePresent && bar.ForeignNet >= opts.ForeignThreshold
	case ModeInstitution:
		return instPresent && bar.InstitutionNet >= opts.InstitutionThreshold
	}
	return false
}
