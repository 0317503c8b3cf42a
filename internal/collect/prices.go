package collect

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/wonny/quantbt/internal/data"
)

// Daily chart rows come back as a loose JS array of
// ["YYYYMMDD", open, high, low, close, volume, ...] entries.
var chartRowRe = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)`)

// FetchPrices fetches daily candles for a stock from the Naver chart API
// ⭐ SSOT: 차트 API 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, code string, from, to time.Time) ([]data.PriceRecord, error) {
	url := fmt.Sprintf(
		"%s/siseJson.naver?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=day",
		c.chartBaseURL, code, from.Format("20060102"), to.Format("20060102"),
	)

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var records []data.PriceRecord
	for _, m := range chartRowRe.FindAllStringSubmatch(body, -1) {
		date, err := time.Parse("20060102", m[1])
		if err != nil {
			continue
		}

		open, _ := strconv.ParseInt(m[2], 10, 64)
		high, _ := strconv.ParseInt(m[3], 10, 64)
		low, _ := strconv.ParseInt(m[4], 10, 64)
		close, _ := strconv.ParseInt(m[5], 10, 64)
		volume, _ := strconv.ParseInt(m[6], 10, 64)

		records = append(records, data.PriceRecord{
			Code:   code,
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": code,
		"count":      len(records),
	}).Debug("Fetched prices")
	return records, nil
}
