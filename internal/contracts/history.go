package contracts

import (
	"context"
	"math"
	"time"
)

// Bar is one daily candle with investor flow attached.
// Flow fields use NaN when the value is unknown for that day.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64

	ForeignNet     float64 // 외국인 순매수
	InstitutionNet float64 // 기관 순매수
	IndividualNet  float64 // 개인 순매수
}

// PriceSeries is a date-ascending sequence of bars. Read-only by convention:
// detectors and the backtest engine never mutate it.
type PriceSeries []Bar

// Missing is the sentinel for absent price or flow values.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// HistoryProvider serves daily price history. Implementations must be
// idempotent: repeated queries for the same code and range return identical
// data, which is what makes backtests reproducible.
type HistoryProvider interface {
	// GetAllHistory returns the full daily history for a stock code.
	GetAllHistory(ctx context.Context, code string) (PriceSeries, error)

	// GetHistoryRange returns daily history within [from, to].
	GetHistoryRange(ctx context.Context, code string, from, to time.Time) (PriceSeries, error)

	// GetForwardPrices returns horizon+2 closing prices anchored at date:
	// index 0 is the last close before date, index 1 the close at date
	// (capture day), indices 2..horizon+1 the following trading days.
	// Days that do not exist yet come back as the missing sentinel.
	GetForwardPrices(ctx context.Context, code string, date time.Time, horizon int) ([]float64, error)
}
