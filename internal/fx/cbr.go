// Package fx supplies the CNY to RUB exchange rate.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Wisionflow/algora/internal/httputil"
)

const (
	// DefaultURL is the Central Bank of Russia daily rates mirror.
	DefaultURL = "https://www.cbr-xml-daily.ru/daily_json.js"
	// FallbackRate is used when the rate source is unreachable.
	FallbackRate = 12.5
	cacheTTL     = 24 * time.Hour
)

// RateProvider returns the CNY to RUB rate. It never fails.
type RateProvider interface {
	CNYToRUB(ctx context.Context) float64
}

// Fixed is a RateProvider with a constant rate.
type Fixed float64

func (f Fixed) CNYToRUB(context.Context) float64 { return float64(f) }

// CBR fetches the daily CBR rate and caches it for 24 hours.
type CBR struct {
	client   *http.Client
	url      string
	fallback float64
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	rate      float64
	fetchedAt time.Time
}

// NewCBR creates a provider. A zero fallback uses FallbackRate.
func NewCBR(client *http.Client, fallback float64, logger *slog.Logger) *CBR {
	if client == nil {
		client = httputil.NewHTTPClientWithTimeout(nil, 10*time.Second)
	}
	if fallback <= 0 {
		fallback = FallbackRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CBR{client: client, url: DefaultURL, fallback: fallback, logger: logger, now: time.Now}
}

type dailyResponse struct {
	Valute map[string]struct {
		Nominal float64 `json:"Nominal"`
		Value   float64 `json:"Value"`
	} `json:"Valute"`
}

// CNYToRUB returns the cached rate, refreshing it once a day.
func (c *CBR) CNYToRUB(ctx context.Context) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rate > 0 && c.now().Sub(c.fetchedAt) < cacheTTL {
		return c.rate
	}

	rate, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("exchange rate fetch failed, using fallback", "err", err, "fallback", c.fallback)
		if c.rate > 0 {
			return c.rate
		}
		return c.fallback
	}
	c.rate = rate
	c.fetchedAt = c.now()
	c.logger.Info("exchange rate updated", "cny_rub", rate)
	return rate
}

func (c *CBR) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("cbr status %d", resp.StatusCode)
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return 0, err
	}

	var daily dailyResponse
	if err := json.Unmarshal(body, &daily); err != nil {
		return 0, fmt.Errorf("decode cbr rates: %w", err)
	}
	cny, ok := daily.Valute["CNY"]
	if !ok || cny.Value <= 0 {
		return 0, fmt.Errorf("cbr response has no CNY rate")
	}
	nominal := cny.Nominal
	if nominal <= 0 {
		nominal = 1
	}
	return cny.Value / nominal, nil
}
