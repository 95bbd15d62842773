// Package filecache replays products from a local JSON cache file and
// writes that file when the cache is refreshed.
package filecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/platform"
)

// Collector reads a JSON array of products from Path.
type Collector struct {
	Path   string
	logger *slog.Logger
	rng    *rand.Rand
}

// NewCollector creates a collector for the cache file at path.
func NewCollector(path string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{Path: path, logger: logger}
}

// WithSeed makes shuffles repeatable.
func (c *Collector) WithSeed(seed uint64) *Collector {
	c.rng = rand.New(rand.NewPCG(seed, seed))
	return c
}

func (c *Collector) Name() string { return models.SourceCache }

// Collect returns up to limit cached products, preferring the category and
// falling back to the whole file when none match. Malformed entries are skipped.
func (c *Collector) Collect(ctx context.Context, category string, limit int) []models.RawProduct {
	if ctx.Err() != nil {
		return nil
	}
	products, err := Load(c.Path)
	if err != nil {
		c.logger.Warn("product cache unavailable", "path", c.Path, "err", err)
		return nil
	}
	if len(products) == 0 {
		c.logger.Warn("product cache is empty", "path", c.Path)
		return nil
	}

	if category != "" && category != "all" {
		var filtered []models.RawProduct
		for _, p := range products {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			products = filtered
		}
	}

	products = platform.Sanitize(products)
	swap := func(i, j int) { products[i], products[j] = products[j], products[i] }
	if c.rng != nil {
		c.rng.Shuffle(len(products), swap)
	} else {
		rand.Shuffle(len(products), swap)
	}

	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	c.logger.Info("loaded products from cache", "category", category, "count", len(products))
	return products
}

// Load reads every decodable product in the cache file. Entries that fail
// to decode are dropped; a missing collection time defaults to now.
func Load(path string) ([]models.RawProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}

	now := time.Now().UTC()
	products := make([]models.RawProduct, 0, len(raw))
	for _, item := range raw {
		var p models.RawProduct
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		if p.Source == "" {
			p.Source = models.SourceCache
		}
		if p.CollectedAt.IsZero() {
			p.CollectedAt = now
		}
		products = append(products, p)
	}
	return products, nil
}

// Save writes products to path atomically, creating parent directories.
func Save(path string, products []models.RawProduct) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".products-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
