package data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantbt/pkg/redis"
)

// PriceRecord is one collected daily candle, prices in whole won.
type PriceRecord struct {
	Code   string
	Date   time.Time
	Open   int64
	High   int64
	Low    int64
	Close  int64
	Volume int64
}

// FlowRecord is one collected day of investor net buying.
type FlowRecord struct {
	Code           string
	Date           time.Time
	ForeignNet     int64
	InstitutionNet int64
	IndividualNet  int64
}

// SavePrices upserts collected daily candles.
func (r *HistoryRepository) SavePrices(ctx context.Context, records []PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_prices (stock_code, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	codes := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, err := r.pool.Exec(ctx, query,
			rec.Code, rec.Date, rec.Open, rec.High, rec.Low, rec.Close, rec.Volume,
		); err != nil {
			return fmt.Errorf("failed to save price %s/%s: %w",
				rec.Code, rec.Date.Format("2006-01-02"), err)
		}
		codes[rec.Code] = struct{}{}
	}
	r.invalidateHistory(ctx, codes)
	return nil
}

// SaveFlows upserts collected investor flow records.
func (r *HistoryRepository) SaveFlows(ctx context.Context, records []FlowRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.investor_flow (stock_code, trade_date, foreign_net_value, inst_net_value, indiv_net_value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			foreign_net_value = EXCLUDED.foreign_net_value,
			inst_net_value = EXCLUDED.inst_net_value,
			indiv_net_value = EXCLUDED.indiv_net_value
	`

	codes := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, err := r.pool.Exec(ctx, query,
			rec.Code, rec.Date, rec.ForeignNet, rec.InstitutionNet, rec.IndividualNet,
		); err != nil {
			return fmt.Errorf("failed to save flow %s/%s: %w",
				rec.Code, rec.Date.Format("2006-01-02"), err)
		}
		codes[rec.Code] = struct{}{}
	}
	r.invalidateHistory(ctx, codes)
	return nil
}

// invalidateHistory drops cached histories for codes that just received new
// bars. Cache eviction is best-effort; the TTL bounds staleness anyway.
func (r *HistoryRepository) invalidateHistory(ctx context.Context, codes map[string]struct{}) {
	for code := range codes {
		_ = r.cache.Delete(ctx, redis.HistoryKey(code))
	}
}

// EnsureSchema creates the data schema and source tables.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS data`,
		`CREATE TABLE IF NOT EXISTS data.daily_prices (
			stock_code  VARCHAR(10) NOT NULL,
			trade_date  DATE NOT NULL,
			open_price  BIGINT NOT NULL,
			high_price  BIGINT NOT NULL,
			low_price   BIGINT NOT NULL,
			close_price BIGINT NOT NULL,
			volume      BIGINT NOT NULL,
			PRIMARY KEY (stock_code, trade_date)
		)`,
		`CREATE TABLE IF NOT EXISTS data.investor_flow (
			stock_code        VARCHAR(10) NOT NULL,
			trade_date        DATE NOT NULL,
			foreign_net_value BIGINT NOT NULL,
			inst_net_value    BIGINT NOT NULL,
			indiv_net_value   BIGINT NOT NULL,
			PRIMARY KEY (stock_code, trade_date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure data schema: %w", err)
		}
	}
	return nil
}
