// Package wb queries the Wildberries public search API for reference prices
// and competitor counts.
package wb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Wisionflow/algora/internal/httputil"
	"github.com/Wisionflow/algora/internal/models"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public catalog search endpoint.
const DefaultBaseURL = "https://search.wb.ru/exactmatch/ru/common/v7/search"

// statsWindow is how many leading listings feed the price statistics.
const statsWindow = 50

// Options tunes a Client. Zero fields take the defaults below.
type Options struct {
	BaseURL     string
	MinInterval time.Duration // spacing between any two outbound requests
	BackoffBase time.Duration // first 429 backoff, doubled per attempt
	MaxAttempts int
	Timeout     time.Duration
	Clock       Clock
	Logger      *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 5 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Clock == nil {
		o.Clock = realClock{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Client fetches MarketSnapshots. It is safe for concurrent use: the
// limiter keeps the spacing across goroutines and concurrent lookups of
// one term share a single upstream fetch.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	flight  singleflight.Group

	mu    sync.Mutex
	cache map[string]models.MarketSnapshot
}

// NewClient creates a client. A zero MinInterval disables spacing.
func NewClient(httpClient *http.Client, opts Options) *Client {
	opts.applyDefaults()
	if httpClient == nil {
		httpClient = httputil.NewHTTPClient(nil)
	}
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Client{
		http:    httpClient,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		cache:   make(map[string]models.MarketSnapshot),
	}
}

// ResolveTerm picks the search term: the keyword when given, otherwise the
// first two words of the title.
func ResolveTerm(query, keyword string) string {
	if k := strings.TrimSpace(keyword); k != "" {
		return k
	}
	words := strings.Fields(query)
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}

// Fetch returns the snapshot for a product title and optional keyword.
// It never fails: every error path yields the empty snapshot, which callers
// treat as "use fallback pricing".
func (c *Client) Fetch(ctx context.Context, query, keyword string) models.MarketSnapshot {
	term := ResolveTerm(query, keyword)
	if term == "" {
		return models.MarketSnapshot{}
	}

	if snap, ok := c.cached(term); ok {
		return snap
	}

	// The fetch runs under the first caller's context; callers joining it
	// stop waiting when their own context ends.
	ch := c.flight.DoChan(term, func() (any, error) {
		if snap, ok := c.cached(term); ok {
			return snap, nil
		}
		snap := c.fetch(ctx, term)
		if ctx.Err() == nil {
			c.mu.Lock()
			c.cache[term] = snap
			c.mu.Unlock()
		}
		return snap, nil
	})
	select {
	case res := <-ch:
		return res.Val.(models.MarketSnapshot)
	case <-ctx.Done():
		return models.MarketSnapshot{}
	}
}

func (c *Client) cached(term string) (models.MarketSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.cache[term]
	return snap, ok
}

func (c *Client) fetch(ctx context.Context, term string) models.MarketSnapshot {
	log := c.opts.Logger.With("term", term)

	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		if err := c.waitTurn(ctx); err != nil {
			return models.MarketSnapshot{}
		}

		status, body, err := c.do(ctx, term)
		if err != nil {
			log.Warn("wb search failed", "err", err)
			return models.MarketSnapshot{}
		}

		switch {
		case status == http.StatusTooManyRequests:
			backoff := c.opts.BackoffBase << attempt
			log.Warn("wb rate limited", "attempt", attempt+1, "backoff", backoff)
			if err := c.opts.Clock.Sleep(ctx, backoff); err != nil {
				return models.MarketSnapshot{}
			}
			continue
		case status != http.StatusOK:
			log.Warn("wb search returned error status", "status", status)
			return models.MarketSnapshot{}
		}

		snap, err := parseSearch(body)
		if err != nil {
			log.Warn("wb response decode failed", "err", err)
			return models.MarketSnapshot{}
		}
		log.Debug("wb snapshot", "avg_price", snap.AvgPrice, "competitors", snap.Competitors)
		return snap
	}

	log.Warn("wb rate limit persisted, giving up", "attempts", c.opts.MaxAttempts)
	return models.MarketSnapshot{}
}

// waitTurn blocks until the spacing since the previous request has elapsed.
func (c *Client) waitTurn(ctx context.Context) error {
	now := c.opts.Clock.Now()
	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("wb limiter refused reservation")
	}
	return c.opts.Clock.Sleep(ctx, r.DelayFrom(now))
}

func (c *Client) do(ctx context.Context, term string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("ab_testing", "false")
	params.Set("appType", "1")
	params.Set("curr", "rub")
	params.Set("dest", "-1257786")
	params.Set("query", term)
	params.Set("resultset", "catalog")
	params.Set("sort", "popular")
	params.Set("spp", "30")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range httputil.WBHeaders() {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil, nil
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

type searchResponse struct {
	Data struct {
		Products []listing `json:"products"`
	} `json:"data"`
	Products []listing `json:"products"`
}

type listing struct {
	ID         int64   `json:"id"`
	SalePriceU float64 `json:"salePriceU"`
	Sizes      []struct {
		Price struct {
			Product float64 `json:"product"`
		} `json:"price"`
	} `json:"sizes"`
}

// priceRUB converts kopecks to roubles.
func (l listing) priceRUB() float64 {
	if l.SalePriceU > 0 {
		return l.SalePriceU / 100
	}
	if len(l.Sizes) > 0 {
		return l.Sizes[0].Price.Product / 100
	}
	return 0
}

func parseSearch(body []byte) (models.MarketSnapshot, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.MarketSnapshot{}, err
	}
	products := resp.Data.Products
	if len(products) == 0 {
		products = resp.Products
	}
	if len(products) == 0 {
		return models.MarketSnapshot{}, nil
	}

	var sum, lo, hi float64
	n := 0
	for _, p := range products[:min(len(products), statsWindow)] {
		price := p.priceRUB()
		if price <= 0 {
			continue
		}
		if n == 0 || price < lo {
			lo = price
		}
		if price > hi {
			hi = price
		}
		sum += price
		n++
	}
	if n == 0 {
		return models.MarketSnapshot{}, nil
	}

	snap := models.MarketSnapshot{
		AvgPrice:    math.Round(sum/float64(n)*100) / 100,
		Competitors: len(products),
		MinPrice:    lo,
		MaxPrice:    hi,
	}
	if id := products[0].ID; id > 0 {
		snap.ListingURL = fmt.Sprintf("https://www.wildberries.ru/catalog/%d/detail.aspx", id)
		snap.ImageURL = imageURL(id)
	}
	return snap, nil
}
