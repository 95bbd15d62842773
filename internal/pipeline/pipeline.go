// Package pipeline runs collection, enrichment, scoring, selection and
// publishing as one batch.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/Wisionflow/algora/internal/fx"
	"github.com/Wisionflow/algora/internal/insight"
	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/platform"
	"github.com/Wisionflow/algora/internal/publish"
	"github.com/Wisionflow/algora/internal/scoring"
	"github.com/Wisionflow/algora/internal/selection"
	"github.com/Wisionflow/algora/internal/textnorm"
	"github.com/google/uuid"
)

// MarketClient looks up reference-market prices.
type MarketClient interface {
	Fetch(ctx context.Context, query, keyword string) models.MarketSnapshot
}

// Insighter writes commentary for a product; "" means none.
type Insighter interface {
	Insight(ctx context.Context, p models.AnalyzedProduct) string
}

// KeywordSuggester proposes marketplace search phrases.
type KeywordSuggester interface {
	SuggestKeywords(ctx context.Context, p models.RawProduct, n int) []string
}

// Store persists products and the publish ledger.
type Store interface {
	selection.Ledger
	SaveRaw(ctx context.Context, p models.RawProduct) error
	SaveAnalyzed(ctx context.Context, a models.AnalyzedProduct) error
	RecordPublished(ctx context.Context, p models.Post) (models.Post, error)
}

// Pacer inserts a pause between upstream-heavy steps.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Pipeline holds the collaborators of one run. Insight, Keywords and Pace
// are optional.
type Pipeline struct {
	Collector  platform.Collector
	Market     MarketClient
	Rates      fx.RateProvider
	Engine     *scoring.Engine
	Store      Store
	Insight    Insighter
	Keywords   KeywordSuggester
	Publishers []publish.Publisher
	Composer   publish.Composer

	CollectLimit int
	TopN         int
	RecentWindow time.Duration
	DryRun       bool
	Pace         Pacer
	PostPause    time.Duration
	Logger       *slog.Logger
}

// Summary reports what a run did.
type Summary struct {
	RunID     string                   `json:"run_id"`
	Category  string                   `json:"category"`
	Collected int                      `json:"collected"`
	Analyzed  int                      `json:"analyzed"`
	Selected  int                      `json:"selected"`
	Published int                      `json:"published"`
	Top       []models.AnalyzedProduct `json:"top"`
}

// Run executes one batch for category. It always returns the partial
// summary; the error is only the context's.
func (p *Pipeline) Run(ctx context.Context, category string) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), Category: category}
	logger := p.logger().With("run_id", sum.RunID)
	defer func() {
		logger.Info("pipeline finished",
			"summary", formatCounts(sum), "published", sum.Published, "category", category)
	}()

	logger.Info("pipeline started", "category", category, "dry_run", p.DryRun)

	limit := p.CollectLimit
	if limit <= 0 {
		limit = 20
	}
	raws := p.Collector.Collect(ctx, category, limit)
	sum.Collected = len(raws)
	if len(raws) == 0 {
		logger.Warn("no products collected")
		return sum, ctx.Err()
	}
	for _, r := range raws {
		if err := p.Store.SaveRaw(ctx, r); err != nil {
			logger.Error("save raw product", "err", err)
		}
	}

	analyzed := p.analyze(ctx, logger, raws)
	sum.Analyzed = len(analyzed)
	if ctx.Err() != nil {
		return sum, ctx.Err()
	}

	policy := selection.Policy{
		Ledger:       p.Store,
		Platform:     p.primaryPlatform(),
		TopN:         p.TopN,
		RecentWindow: p.RecentWindow,
		Logger:       logger,
	}
	top := policy.Select(ctx, analyzed)
	sum.Selected = len(top)

	for i := range top {
		if ctx.Err() != nil {
			break
		}
		sum.Published += p.post(ctx, logger, &top[i])
		if i < len(top)-1 && p.PostPause > 0 && !p.DryRun {
			if err := sleep(ctx, p.PostPause); err != nil {
				break
			}
		}
	}
	sum.Top = top
	return sum, ctx.Err()
}

func formatCounts(s Summary) string {
	return fmt.Sprintf("%d collected, %d analyzed, %d selected", s.Collected, s.Analyzed, s.Selected)
}

// analyze enriches and scores products in collection order.
func (p *Pipeline) analyze(ctx context.Context, logger *slog.Logger, raws []models.RawProduct) []models.AnalyzedProduct {
	rate := p.Rates.CNYToRUB(ctx)
	logger.Info("exchange rate", "cny_rub", rate)

	out := make([]models.AnalyzedProduct, 0, len(raws))
	for i, raw := range raws {
		if ctx.Err() != nil {
			break
		}
		a := p.Analyze(ctx, raw, rate)
		if err := p.Store.SaveAnalyzed(ctx, a); err != nil {
			logger.Error("save analyzed product", "err", err)
		}
		out = append(out, a)
		logger.Info("analyzed product",
			"n", i+1, "of", len(raws), "title", truncate(raw.TitleRU, 35),
			"score", a.TotalScore, "margin_pct", a.MarginPct, "pricing", a.PricingSource)

		if p.Pace != nil && i < len(raws)-1 {
			if err := p.Pace.Wait(ctx); err != nil {
				break
			}
		}
	}
	return out
}

// Analyze prices and scores one product.
func (p *Pipeline) Analyze(ctx context.Context, raw models.RawProduct, rate float64) models.AnalyzedProduct {
	var suggested []string
	if p.Keywords != nil {
		suggested = p.Keywords.SuggestKeywords(ctx, raw, 5)
	}
	keyword := insight.OptimizedKeyword(raw.TitleRU, suggested, raw.WBKeyword)

	query := truncate(raw.TitleRU, 50)
	if query == "" {
		query = truncate(raw.TitleCN, 30)
	}
	snap := p.Market.Fetch(ctx, query, keyword)

	landed := scoring.EstimateCosts(raw, rate, p.Engine.Costs).TotalLanded
	snap, source := Price(raw, snap, landed)
	if source != models.PricingWB {
		p.logger().Debug("using fallback market price", "price", snap.AvgPrice, "source", source, "category", raw.Category)
	}

	a := p.Engine.Analyze(raw, snap, rate)
	a.SearchKeyword = keyword
	a.PricingSource = source
	return a
}

// post sends one selected product to every platform it is new on and
// returns how many posts went out.
func (p *Pipeline) post(ctx context.Context, logger *slog.Logger, a *models.AnalyzedProduct) int {
	if ok, reason := textnorm.ImageURLAcceptable(a.Raw.ImageURL); !ok && a.Raw.ImageURL != "" {
		logger.Warn("dropping product image", "reason", reason, "image", a.Raw.ImageURL)
		a.Raw.ImageURL = ""
	}
	if p.Insight != nil {
		a.AIInsight = p.Insight.Insight(ctx, *a)
		if err := p.Store.SaveAnalyzed(ctx, *a); err != nil {
			logger.Error("save insight", "err", err)
		}
	}

	msg := p.Composer.Compose(*a)
	logger.Info("post composed", "source_url", a.Raw.SourceURL, "chars", utf8.RuneCountInString(msg.Text))

	published := 0
	for _, pub := range p.Publishers {
		done, err := p.Store.IsPublished(ctx, a.Raw.SourceURL, pub.Name())
		if err != nil || done {
			continue
		}
		if p.DryRun {
			logger.Info("dry run, skipping publish", "platform", pub.Name(), "preview", publish.PlainText(msg.Text))
			continue
		}
		id, err := pub.Publish(ctx, msg)
		if err != nil {
			logger.Error("publish failed", "platform", pub.Name(), "source_url", a.Raw.SourceURL, "err", err)
			continue
		}
		_, err = p.Store.RecordPublished(ctx, models.Post{
			SourceURL: a.Raw.SourceURL,
			Platform:  pub.Name(),
			PostType:  publish.PostTypeProduct,
			Category:  a.Raw.Category,
			Text:      msg.Text,
			ImageURL:  a.Raw.ImageURL,
			MessageID: id,
		})
		if err != nil {
			logger.Error("record published post", "platform", pub.Name(), "err", err)
		}
		logger.Info("published", "platform", pub.Name(), "message_id", id)
		published++
	}
	return published
}

func (p *Pipeline) primaryPlatform() string {
	if len(p.Publishers) > 0 {
		return p.Publishers[0].Name()
	}
	return "telegram"
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
