package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantbt/internal/collect"
	"github.com/wonny/quantbt/pkg/logger"
)

// DataCollectionJob refreshes daily candles and investor flow for the
// configured universe
// ⭐ SSOT: 데이터 수집 스케줄은 이 Job에서만
type DataCollectionJob struct {
	collector *collect.Collector
	codes     []string
	logger    *logger.Logger
}

// NewDataCollectionJob creates a new data collection job
func NewDataCollectionJob(col *collect.Collector, codes []string, log *logger.Logger) *DataCollectionJob {
	return &DataCollectionJob{
		collector: col,
		codes:     codes,
		logger:    log,
	}
}

// Name returns the job name
func (j *DataCollectionJob) Name() string {
	return "data_collection"
}

// Schedule returns the cron schedule (every weekday at 5 PM KST, after close)
func (j *DataCollectionJob) Schedule() string {
	return "0 0 17 * * MON-FRI"
}

// Run executes the data collection
func (j *DataCollectionJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled data collection")

	// Last 5 days covers holidays and late corrections
	to := time.Now()
	from := to.AddDate(0, 0, -5)

	if err := j.collector.Run(ctx, j.codes, from, to); err != nil {
		return fmt.Errorf("collect daily data: %w", err)
	}

	j.logger.Info("Scheduled data collection completed successfully")
	return nil
}
