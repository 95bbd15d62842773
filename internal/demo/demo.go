// Package demo is a static product source for exercising the pipeline
// without network access.
package demo

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/Wisionflow/algora/internal/models"
)

// Collector samples the built-in catalog.
type Collector struct {
	rng *rand.Rand
	now func() time.Time
}

// NewCollector returns a collector that shuffles randomly.
func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

// NewSeededCollector returns a collector whose shuffles repeat for a seed.
func NewSeededCollector(seed uint64) *Collector {
	return &Collector{rng: rand.New(rand.NewPCG(seed, seed)), now: time.Now}
}

func (c *Collector) Name() string { return models.SourceDemo }

// Collect returns up to limit products of the category. An empty category,
// "all" or a category with no demo products yields the whole catalog.
func (c *Collector) Collect(ctx context.Context, category string, limit int) []models.RawProduct {
	if ctx.Err() != nil {
		return nil
	}

	pool := filter(catalog, category)

	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	shuffle := rand.Shuffle
	if c.rng != nil {
		shuffle = c.rng.Shuffle
	}
	shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	if limit > 0 && limit < len(idx) {
		idx = idx[:limit]
	}

	now := c.now().UTC()
	out := make([]models.RawProduct, 0, len(idx))
	for _, i := range idx {
		p := pool[i]
		p.Source = models.SourceDemo
		p.CollectedAt = now
		out = append(out, p)
	}
	return out
}

func filter(all []models.RawProduct, category string) []models.RawProduct {
	if category == "" || category == "all" {
		return all
	}
	var pool []models.RawProduct
	for _, p := range all {
		if p.Category == category {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		return all
	}
	return pool
}
