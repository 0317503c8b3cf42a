package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantbt/internal/data"
	"github.com/wonny/quantbt/pkg/logger"
)

// Collector fetches daily candles and investor flow for a set of codes and
// stores them through the history repository.
type Collector struct {
	client *Client
	repo   *data.HistoryRepository
	logger *logger.Logger
}

// NewCollector creates a new collector.
func NewCollector(client *Client, repo *data.HistoryRepository, log *logger.Logger) *Collector {
	return &Collector{client: client, repo: repo, logger: log}
}

// Run collects [from, to] for every code. A failing code aborts the run;
// partial data from earlier codes stays saved (upserts are idempotent).
func (c *Collector) Run(ctx context.Context, codes []string, from, to time.Time) error {
	start := time.Now()

	for i, code := range codes {
		prices, err := c.client.FetchPrices(ctx, code, from, to)
		if err != nil {
			return fmt.Errorf("fetch prices for %s: %w", code, err)
		}
		if err := c.repo.SavePrices(ctx, prices); err != nil {
			return fmt.Errorf("save prices for %s: %w", code, err)
		}

		flows, err := c.client.FetchInvestorFlow(ctx, code, from, to)
		if err != nil {
			return fmt.Errorf("fetch investor flow for %s: %w", code, err)
		}
		if err := c.repo.SaveFlows(ctx, flows); err != nil {
			return fmt.Errorf("save investor flow for %s: %w", code, err)
		}

		c.logger.WithFields(map[string]interface{}{
			"code":     code,
			"prices":   len(prices),
			"flows":    len(flows),
			"progress": fmt.Sprintf("%d/%d", i+1, len(codes)),
		}).Info("Collected code")
	}

	c.logger.WithFields(map[string]interface{}{
		"codes":    len(codes),
		"duration": time.Since(start).Seconds(),
	}).Info("Collection completed")
	return nil
}
