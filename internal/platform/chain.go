package platform

import (
	"context"
	"log/slog"

	"github.com/Wisionflow/algora/internal/models"
)

// fallbackOrder lists, per primary source, the sources tried in turn.
var fallbackOrder = map[string][]string{
	"live":  {"live", "cache", "demo"},
	"cache": {"cache", "demo"},
	"demo":  {"demo"},
}

// FallbackOrder returns the ordered sources tried for a primary source.
func FallbackOrder(primary string) []string {
	if order, ok := fallbackOrder[primary]; ok {
		return append([]string(nil), order...)
	}
	return []string{primary}
}

// Chain tries collectors in order and returns the first non-empty result.
type Chain struct {
	collectors []Collector
	logger     *slog.Logger
}

// NewChain builds a chain over explicit collectors.
func NewChain(logger *slog.Logger, collectors ...Collector) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{collectors: collectors, logger: logger}
}

// ChainFor resolves the fallback order for primary from the registry,
// skipping sources that are not registered.
func ChainFor(primary string, logger *slog.Logger) *Chain {
	var cs []Collector
	for _, name := range FallbackOrder(primary) {
		if c, err := Get(name); err == nil {
			cs = append(cs, c)
		}
	}
	return NewChain(logger, cs...)
}

// Name reports the chain's members.
func (c *Chain) Name() string {
	name := "chain("
	for i, col := range c.collectors {
		if i > 0 {
			name += ">"
		}
		name += col.Name()
	}
	return name + ")"
}

// Collect runs the chain. The first collector with results wins.
func (c *Chain) Collect(ctx context.Context, category string, limit int) []models.RawProduct {
	for _, col := range c.collectors {
		if ctx.Err() != nil {
			return nil
		}
		ReportProgress(ctx, "Collecting from %s...", col.Name())
		products := Sanitize(col.Collect(ctx, category, limit))
		if len(products) > 0 {
			c.logger.Info("collected products", "source", col.Name(), "category", category, "count", len(products))
			return products
		}
		c.logger.Warn("source returned nothing, trying next", "source", col.Name(), "category", category)
	}
	return nil
}

// Sanitize drops unusable records and repeated source URLs, keeping the
// first occurrence and the original order.
func Sanitize(products []models.RawProduct) []models.RawProduct {
	seen := make(map[string]bool, len(products))
	out := products[:0:0]
	for _, p := range products {
		if !p.Usable() || seen[p.SourceURL] {
			continue
		}
		seen[p.SourceURL] = true
		out = append(out, p)
	}
	return out
}
