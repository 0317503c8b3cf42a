package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/quantbt/pkg/config"
	"github.com/wonny/quantbt/pkg/httputil"
	"github.com/wonny/quantbt/pkg/logger"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	chartBaseURL string
}

// NewClient creates a new Naver Finance client. The shared HTTP client
// carries the rate limit, so every fetch path is paced together.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient:   httputil.New(log).WithRateLimit(cfg.Naver.RatePerSec),
		logger:       log,
		baseURL:      cfg.Naver.BaseURL,
		chartBaseURL: cfg.Naver.ChartBaseURL,
	}
}

// fetch performs one GET with the browser headers Naver expects and returns
// the body.
func (c *Client) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Referer", "https://finance.naver.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body failed: %w", err)
	}

	return string(body), nil
}
