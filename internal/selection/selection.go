// Package selection decides which analyzed products are worth publishing.
package selection

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/Wisionflow/algora/internal/models"
)

// DefaultRecentWindow is how long a published product stays off every platform.
const DefaultRecentWindow = 14 * 24 * time.Hour

// Ledger answers publish-history questions.
type Ledger interface {
	// IsPublished reports whether sourceURL was ever published on platform.
	IsPublished(ctx context.Context, sourceURL, platform string) (bool, error)
	// PublishedSince reports whether sourceURL was published anywhere at or after since.
	PublishedSince(ctx context.Context, sourceURL string, since time.Time) (bool, error)
	// IsImageUsed reports whether any published post carried imageURL.
	IsImageUsed(ctx context.Context, imageURL string) (bool, error)
}

// Policy filters, ranks and truncates scored candidates for one platform.
type Policy struct {
	Ledger       Ledger
	Platform     string
	TopN         int
	RecentWindow time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// Select returns at most TopN candidates that were never published on the
// platform and not published anywhere within the recent window, ordered by
// total score (descending) then source URL. Candidates whose image was
// already used keep their place with the image cleared. The input slice is
// not modified.
func (p Policy) Select(ctx context.Context, scored []models.AnalyzedProduct) []models.AnalyzedProduct {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := p.RecentWindow
	if window <= 0 {
		window = DefaultRecentWindow
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	since := now().Add(-window)

	kept := make([]models.AnalyzedProduct, 0, len(scored))
	for _, c := range scored {
		url := c.Raw.SourceURL
		if p.Ledger != nil {
			published, err := p.Ledger.IsPublished(ctx, url, p.Platform)
			if err != nil {
				logger.Warn("ledger lookup failed, skipping candidate", "source_url", url, "err", err)
				continue
			}
			if published {
				logger.Debug("already published on platform", "source_url", url, "platform", p.Platform)
				continue
			}
			recent, err := p.Ledger.PublishedSince(ctx, url, since)
			if err != nil {
				logger.Warn("ledger lookup failed, skipping candidate", "source_url", url, "err", err)
				continue
			}
			if recent {
				logger.Debug("published recently", "source_url", url)
				continue
			}
			if c.Raw.ImageURL != "" {
				used, err := p.Ledger.IsImageUsed(ctx, c.Raw.ImageURL)
				if err != nil {
					logger.Warn("ledger lookup failed, skipping candidate", "source_url", url, "err", err)
					continue
				}
				if used {
					c.Raw.ImageURL = ""
				}
			}
		}
		kept = append(kept, c)
	}

	Rank(kept)
	if p.TopN >= 0 && len(kept) > p.TopN {
		kept = kept[:p.TopN]
	}
	return kept
}

// Rank sorts in place by total score descending, then source URL ascending.
func Rank(products []models.AnalyzedProduct) {
	slices.SortStableFunc(products, func(a, b models.AnalyzedProduct) int {
		if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Raw.SourceURL, b.Raw.SourceURL)
	})
}
