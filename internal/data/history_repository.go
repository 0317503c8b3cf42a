package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/quantbt/internal/contracts"
	"github.com/wonny/quantbt/pkg/redis"
)

// HistoryRepository implements contracts.HistoryProvider on PostgreSQL
// ⭐ SSOT: 일별 시세/수급 조회는 여기서만
//
// Forward-price windows sit on the hot path of every backtest run, so they
// go through the Redis cache when one is wired. Cached values use pointers
// because JSON cannot carry the NaN sentinel.
type HistoryRepository struct {
	pool  *pgxpool.Pool
	cache *redis.Cache
}

// NewHistoryRepository creates a new history repository. cache may be nil.
func NewHistoryRepository(pool *pgxpool.Pool, cache *redis.Cache) *HistoryRepository {
	return &HistoryRepository{pool: pool, cache: cache}
}

const historyColumns = `
	dp.trade_date, dp.open_price, dp.high_price, dp.low_price, dp.close_price, dp.volume,
	f.foreign_net_value, f.inst_net_value, f.indiv_net_value
`

// GetAllHistory returns the full daily history for a stock code. Scans
// re-read full histories, so this path is cached; the savers invalidate the
// entry when new bars land.
func (r *HistoryRepository) GetAllHistory(ctx context.Context, code string) (contracts.PriceSeries, error) {
	cacheKey := redis.HistoryKey(code)
	var cached []cachedBar
	if found, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return fromCachedBars(cached), nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM data.daily_prices dp
		LEFT JOIN data.investor_flow f
			ON dp.stock_code = f.stock_code AND dp.trade_date = f.trade_date
		WHERE dp.stock_code = $1
		ORDER BY dp.trade_date ASC
	`, historyColumns)

	series, err := r.queryBars(ctx, query, code)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, cacheKey, toCachedBars(series), redis.TTLShort)
	return series, nil
}

// GetHistoryRange returns daily history within [from, to].
func (r *HistoryRepository) GetHistoryRange(ctx context.Context, code string, from, to time.Time) (contracts.PriceSeries, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM data.daily_prices dp
		LEFT JOIN data.investor_flow f
			ON dp.stock_code = f.stock_code AND dp.trade_date = f.trade_date
		WHERE dp.stock_code = $1 AND dp.trade_date BETWEEN $2 AND $3
		ORDER BY dp.trade_date ASC
	`, historyColumns)

	return r.queryBars(ctx, query, code, from, to)
}

func (r *HistoryRepository) queryBars(ctx context.Context, query string, args ...interface{}) (contracts.PriceSeries, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var series contracts.PriceSeries
	for rows.Next() {
		var bar contracts.Bar
		var open, high, low, close int64
		var fore, inst, indiv *int64
		if err := rows.Scan(&bar.Date, &open, &high, &low, &close, &bar.Volume,
			&fore, &inst, &indiv); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		// Prices are stored in whole won.
		bar.Open = float64(open)
		bar.High = float64(high)
		bar.Low = float64(low)
		bar.Close = float64(close)
		bar.ForeignNet = flowValue(fore)
		bar.InstitutionNet = flowValue(inst)
		bar.IndividualNet = flowValue(indiv)
		series = append(series, bar)
	}
	return series, rows.Err()
}

// flowValue maps an absent flow join to the missing sentinel.
func flowValue(v *int64) float64 {
	if v == nil {
		return contracts.Missing()
	}
	return float64(*v)
}

// GetForwardPrices returns horizon+2 closes anchored at date: the previous
// close, the capture-day close, then the following trading days. Missing
// days come back as the sentinel, and the slice is always full length.
func (r *HistoryRepository) GetForwardPrices(ctx context.Context, code string, date time.Time, horizon int) ([]float64, error) {
	cacheKey := redis.ForwardKey(code, date.Format("2006-01-02"), horizon)
	var cached []*float64
	if found, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return fromCacheable(cached), nil
	}

	out := make([]float64, 0, horizon+2)

	var prev int64
	err := r.pool.QueryRow(ctx, `
		SELECT close_price
		FROM data.daily_prices
		WHERE stock_code = $1 AND trade_date < $2
		ORDER BY trade_date DESC
		LIMIT 1
	`, code, date).Scan(&prev)
	prevClose, err := prevValue(prev, err)
	if err != nil {
		return nil, err
	}
	out = append(out, prevClose)

	rows, err := r.pool.Query(ctx, `
		SELECT close_price
		FROM data.daily_prices
		WHERE stock_code = $1 AND trade_date >= $2
		ORDER BY trade_date ASC
		LIMIT $3
	`, code, date, horizon+1)
	if err != nil {
		return nil, fmt.Errorf("failed to query forward prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var close int64
		if err := rows.Scan(&close); err != nil {
			return nil, fmt.Errorf("failed to scan forward price: %w", err)
		}
		out = append(out, float64(close))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for len(out) < horizon+2 {
		out = append(out, contracts.Missing())
	}

	_ = r.cache.Set(ctx, cacheKey, toCacheable(out), redis.TTLDaily)

	return out, nil
}

// prevValue classifies the prev-close lookup. No earlier bar exists is a
// normal condition and maps to the missing sentinel; any other failure must
// surface so the run aborts instead of completing on silently-wrong data.
func prevValue(prev int64, err error) (float64, error) {
	switch {
	case err == nil:
		return float64(prev), nil
	case errors.Is(err, pgx.ErrNoRows):
		return contracts.Missing(), nil
	default:
		return 0, fmt.Errorf("failed to query previous close: %w", err)
	}
}

func toCacheable(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		if contracts.IsMissing(v) {
			continue
		}
		c := v
		out[i] = &c
	}
	return out
}

func fromCacheable(vals []*float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = flowDeref(v)
	}
	return out
}

// cachedBar mirrors contracts.Bar for the cache. Flow fields use pointers
// because JSON cannot carry the NaN sentinel.
type cachedBar struct {
	Date   time.Time `json:"d"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume int64     `json:"v"`
	Fore   *float64  `json:"f,omitempty"`
	Inst   *float64  `json:"i,omitempty"`
	Indiv  *float64  `json:"n,omitempty"`
}

func toCachedBars(series contracts.PriceSeries) []cachedBar {
	out := make([]cachedBar, len(series))
	for i, bar := range series {
		out[i] = cachedBar{
			Date:   bar.Date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
			Fore:   flowPtr(bar.ForeignNet),
			Inst:   flowPtr(bar.InstitutionNet),
			Indiv:  flowPtr(bar.IndividualNet),
		}
	}
	return out
}

func fromCachedBars(cached []cachedBar) contracts.PriceSeries {
	series := make(contracts.PriceSeries, len(cached))
	for i, cb := range cached {
		series[i] = contracts.Bar{
			Date:           cb.Date,
			Open:           cb.Open,
			High:           cb.High,
			Low:            cb.Low,
			Close:          cb.Close,
			Volume:         cb.Volume,
			ForeignNet:     flowDeref(cb.Fore),
			InstitutionNet: flowDeref(cb.Inst),
			IndividualNet:  flowDeref(cb.Indiv),
		}
	}
	return series
}

func flowPtr(v float64) *float64 {
	if contracts.IsMissing(v) {
		return nil
	}
	return &v
}

func flowDeref(v *float64) float64 {
	if v == nil {
		return contracts.Missing()
	}
	return *v
}
