package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Wisionflow/algora/internal/filecache"
	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/platform"
	"golang.org/x/sync/errgroup"
)

// ErrNothingCollected is returned by Refresh when no category produced
// products; the existing cache file is left untouched.
var ErrNothingCollected = errors.New("pipeline: nothing collected, cache not updated")

// Refresher rebuilds the product cache file from a live collector.
type Refresher struct {
	Collector   platform.Collector
	Market      MarketClient // optional; fills missing price hints
	Path        string
	Concurrency int
	Logger      *slog.Logger
}

// Refresh collects up to perCategory products for every category, fills
// empty wb_est_price hints from the marketplace and writes the cache.
func (r *Refresher) Refresh(ctx context.Context, categories []string, perCategory int) ([]models.RawProduct, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := r.Concurrency
	if limit <= 0 {
		limit = 2
	}

	var (
		mu  sync.Mutex
		all []models.RawProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, cat := range categories {
		g.Go(func() error {
			got := r.Collector.Collect(gctx, cat, perCategory)
			logger.Info("collected for cache", "category", cat, "count", len(got))
			mu.Lock()
			all = append(all, got...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	all = platform.Sanitize(all)
	if len(all) == 0 {
		return nil, ErrNothingCollected
	}

	if r.Market != nil {
		for i := range all {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p := &all[i]
			if p.WBEstPrice > 0 {
				continue
			}
			snap := r.Market.Fetch(ctx, truncate(p.TitleRU, 50), p.WBKeyword)
			if !snap.IsEmpty() {
				p.WBEstPrice = snap.AvgPrice
			}
		}
	}

	if err := filecache.Save(r.Path, all); err != nil {
		return nil, err
	}
	logger.Info("product cache updated", "path", r.Path, "count", len(all))
	return all, nil
}
