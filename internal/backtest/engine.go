package backtest

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/quantbt/internal/contracts"
	"github.com/wonny/quantbt/pkg/logger"
)

// Engine turns stored observations into the aggregated profit-ratio table.
// ⭐ SSOT: 백테스트 집계는 여기서만
type Engine struct {
	history contracts.HistoryProvider
	logger  *logger.Logger

	// Cost knobs carried into run metadata. The ratio table itself is
	// cost-free; taxes and commissions apply at interpretation time.
	Tax        float64
	Commission float64
}

// NewEngine creates a new backtest engine.
func NewEngine(history contracts.HistoryProvider, log *logger.Logger) *Engine {
	return &Engine{
		history:    history,
		logger:     log,
		Tax:        0.3,
		Commission: 0.015,
	}
}

// Run evaluates every stored observation over horizonDays forward trading
// days. Day columns are normalized by the capture-day price and the captured
// column is the capture price over the previous close. Observations whose
// capture price is missing are excluded entirely. Per group, one statistic
// row per aggregate (mean, geometric mean, population stddev, median) is
// appended, computed per column over that group's observation rows. An empty
// store yields an empty result.
func (e *Engine) Run(ctx context.Context, store *Store, horizonDays int) (*Result, error) {
	if horizonDays < 1 {
		return nil, fmt.Errorf("%w: horizon must be at least 1 day, got %d",
			contracts.ErrInvalidArgument, horizonDays)
	}

	observations := store.Snapshot()
	e.logger.WithFields(map[string]interface{}{
		"observations": len(observations),
		"horizon_days": horizonDays,
	}).Info("Starting backtest")

	var (
		rows    []Row
		groups  []string
		seen    = make(map[string]bool)
		skipped = 0
	)

	for _, obs := range observations {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Group labels are registered before the skip check, so a group
		// whose observations all lack prices still shows up (with all-NaN
		// statistics) instead of vanishing silently.
		if !seen[obs.Group] {
			seen[obs.Group] = true
			groups = append(groups, obs.Group)
		}

		prices, err := e.history.GetForwardPrices(ctx, obs.BaseCode(), obs.Date, horizonDays)
		if err != nil {
			return nil, fmt.Errorf("forward prices for %s: %w", obs.ID, err)
		}
		// Tolerate short replies from the provider.
		for len(prices) < horizonDays+2 {
			prices = append(prices, contracts.Missing())
		}

		prev, price := prices[0], prices[1]
		if contracts.IsMissing(price) {
			skipped++
			e.logger.WithFields(map[string]interface{}{
				"id":   obs.ID,
				"date": obs.Date.Format("2006-01-02"),
			}).Debug("Capture price missing, observation excluded")
			continue
		}

		days := make([]float64, horizonDays)
		for k := 0; k < horizonDays; k++ {
			days[k] = prices[k+2] / price
		}

		rows = append(rows, Row{
			Group:     obs.Group,
			Code:      obs.ID,
			Date:      obs.Date,
			PrevPrice: prev,
			Price:     price,
			Captured:  price / prev,
			Days:      days,
		})
	}

	rows = appendStatRows(rows, groups, horizonDays)

	e.logger.WithFields(map[string]interface{}{
		"rows":    len(rows),
		"groups":  len(groups),
		"skipped": skipped,
	}).Info("Backtest completed")

	return &Result{Rows: rows, Groups: groups, Horizon: horizonDays}, nil
}

// appendStatRows computes the per-group statistic rows over the day columns
// plus the captured column and appends them to the table.
func appendStatRows(rows []Row, groups []string, horizon int) []Row {
	for _, group := range groups {
		var members []Row
		for _, row := range rows {
			if row.Group == group && !row.IsStatistic() {
				members = append(members, row)
			}
		}

		for _, code := range statCodes {
			fn := statFuncs[code]

			days := make([]float64, horizon)
			col := make([]float64, len(members))
			for d := 0; d < horizon; d++ {
				for i, m := range members {
					col[i] = m.Days[d]
				}
				days[d] = fn(col)
			}
			for i, m := range members {
				col[i] = m.Captured
			}

			rows = append(rows, Row{
				Group:     group,
				Code:      code,
				PrevPrice: math.NaN(),
				Price:     math.NaN(),
				Captured:  fn(col),
				Days:      days,
			})
		}
	}
	return rows
}
