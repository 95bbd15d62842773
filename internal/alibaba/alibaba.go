// Package alibaba collects trending wholesale products from 1688.com.
package alibaba

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/platform"
	"github.com/Wisionflow/algora/internal/textnorm"
	"github.com/Wisionflow/algora/internal/translate"
	"golang.org/x/time/rate"
)

// CategoryKeywords maps catalog categories to 1688 search phrases.
var CategoryKeywords = map[string]string{
	"electronics":       "电子产品 爆款",
	"gadgets":           "智能小家电 新款",
	"home":              "家居用品 热销",
	"phone_accessories": "手机配件 爆款",
	"car_accessories":   "汽车用品 热卖",
	"led_lighting":      "LED灯 新款",
	"beauty_devices":    "美容仪器 爆款",
	"smart_home":        "智能家居 热销",
	"outdoor":           "户外用品 新款",
	"toys":              "玩具 爆款 新奇",
	"health":            "健康 按摩 爆款",
	"kitchen":           "厨房用品 爆款 小工具",
	"pet":               "宠物用品 爆款 智能",
	"sport":             "运动装备 健身 爆款",
	"office":            "办公用品 创意 桌面",
	"kids":              "儿童用品 益智 爆款",
}

// Keyword returns the search phrase for a category; unknown categories are
// searched verbatim.
func Keyword(category string) string {
	if kw, ok := CategoryKeywords[category]; ok {
		return kw
	}
	return category
}

// ErrNoItems is returned when every strategy came back empty.
var ErrNoItems = errors.New("alibaba: all strategies exhausted")

// Options configures a Collector.
type Options struct {
	// ScrapeClient fetches marketplace pages, usually through the stealth transport.
	ScrapeClient *http.Client
	// APIClient talks to the Apify API.
	APIClient   *http.Client
	ApifyToken  string
	ApifyActor  string
	Headless    bool
	RaceTimeout time.Duration
	Limiter     *rate.Limiter
	Translator  translate.Translator
	Logger      *slog.Logger
}

// Collector implements platform.Collector for 1688.
type Collector struct {
	fastStrategies []platform.Strategy // raced concurrently
	slowStrategies []platform.Strategy // tried sequentially as fallback
	limiter        *rate.Limiter
	raceTimeout    time.Duration
	translator     translate.Translator
	logger         *slog.Logger
	now            func() time.Time
}

// NewCollector wires the strategy chain from opts.
func NewCollector(opts Options) *Collector {
	c := newCollector(opts)
	if opts.ApifyToken != "" {
		c.fastStrategies = append(c.fastStrategies, NewApifyStrategy(opts.APIClient, opts.ApifyToken, opts.ApifyActor))
	}
	c.fastStrategies = append(c.fastStrategies, NewStaticPageStrategy(opts.ScrapeClient))
	if opts.Headless {
		c.slowStrategies = append(c.slowStrategies, NewHeadlessBrowserStrategy())
	}
	return c
}

// NewCollectorWithStrategies builds a collector over explicit strategies.
func NewCollectorWithStrategies(opts Options, fast, slow []platform.Strategy) *Collector {
	c := newCollector(opts)
	c.fastStrategies = fast
	c.slowStrategies = slow
	return c
}

func newCollector(opts Options) *Collector {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Translator == nil {
		opts.Translator = translate.Noop{}
	}
	if opts.RaceTimeout <= 0 {
		opts.RaceTimeout = 200 * time.Second
	}
	return &Collector{
		limiter:     opts.Limiter,
		raceTimeout: opts.RaceTimeout,
		translator:  opts.Translator,
		logger:      opts.Logger,
		now:         time.Now,
	}
}

func (c *Collector) Name() string { return models.SourceLive }

// Collect searches 1688 for the category and maps, translates and cleans
// up to limit items. Failures are logged and yield an empty slice.
func (c *Collector) Collect(ctx context.Context, category string, limit int) []models.RawProduct {
	if limit <= 0 {
		limit = 20
	}
	req := platform.Request{Category: category, Keyword: Keyword(category), Limit: limit}
	c.logger.Info("collecting from 1688", "category", category, "keyword", req.Keyword)

	result, err := c.executeWithFallback(ctx, req)
	if err != nil {
		c.logger.Error("1688 collection failed", "category", category, "err", err)
		return nil
	}

	items := result.Items
	if len(items) > limit {
		items = items[:limit]
	}
	now := c.now().UTC()
	products := make([]models.RawProduct, 0, len(items))
	for _, item := range items {
		p, ok := mapItem(item, category)
		if !ok {
			continue
		}
		c.localize(ctx, &p)
		p.CollectedAt = now
		products = append(products, p)
	}
	products = platform.Sanitize(products)
	c.logger.Info("collected from 1688", "category", category, "strategy", result.Strategy, "count", len(products))
	return products
}

// localize fills the Russian title and the reference-market keyword.
func (c *Collector) localize(ctx context.Context, p *models.RawProduct) {
	p.TitleRU = textnorm.CleanTitle(c.translator.Translate(ctx, p.TitleCN))
	p.WBKeyword = textnorm.SearchKeyword(p.TitleRU)
}

// executeWithFallback races fast strategies, then falls back to slow ones.
func (c *Collector) executeWithFallback(ctx context.Context, req platform.Request) (*platform.Result, error) {
	if r := c.race(ctx, req); r != nil {
		platform.ReportProgress(ctx, "Found %d items via %s", len(r.Items), r.Strategy)
		return r, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	for _, s := range c.slowStrategies {
		platform.ReportProgress(ctx, "Trying %s strategy...", s.Name())
		r, err := s.Execute(ctx, req)
		if err == nil && r != nil && len(r.Items) > 0 {
			platform.ReportProgress(ctx, "Found %d items via %s", len(r.Items), s.Name())
			return r, nil
		}
		if err != nil {
			c.logger.Warn("strategy failed", "strategy", s.Name(), "err", err)
		}
	}
	return nil, fmt.Errorf("%w for %q", ErrNoItems, req.Keyword)
}

func (c *Collector) race(ctx context.Context, req platform.Request) *platform.Result {
	if len(c.fastStrategies) == 0 {
		return nil
	}
	raceCtx, cancel := context.WithTimeout(ctx, c.raceTimeout)
	defer cancel()

	results := make(chan *platform.Result, len(c.fastStrategies))
	for _, s := range c.fastStrategies {
		go func(s platform.Strategy) {
			if c.limiter != nil {
				if err := c.limiter.Wait(raceCtx); err != nil {
					results <- nil
					return
				}
			}
			r, err := s.Execute(raceCtx, req)
			if err != nil {
				c.logger.Debug("strategy failed", "strategy", s.Name(), "err", err)
				results <- nil
				return
			}
			results <- r
		}(s)
	}

	for range c.fastStrategies {
		select {
		case r := <-results:
			if r != nil && len(r.Items) > 0 {
				return r
			}
		case <-raceCtx.Done():
			platform.ReportProgress(ctx, "Fast strategies timed out")
			return nil
		}
	}
	return nil
}
