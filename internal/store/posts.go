package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Wisionflow/algora/internal/models"
)

// RecordPublished appends a successful post to the ledger and returns it
// with its id and timestamp filled. Re-recording the same product on the
// same platform is a no-op.
func (s *Store) RecordPublished(ctx context.Context, p models.Post) (models.Post, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.PublishedAt.IsZero() {
		p.PublishedAt = s.now().UTC()
	}
	_, err := s.exec(ctx, `
INSERT INTO published_posts
  (id, source_url, platform, post_type, category, image_url, message_id, post_text, published_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_url, platform) DO NOTHING`,
		p.ID, p.SourceURL, p.Platform, p.PostType, p.Category, p.ImageURL, p.MessageID,
		p.Text, formatTime(p.PublishedAt))
	if err != nil {
		return p, fmt.Errorf("record published %s: %w", p.SourceURL, err)
	}
	return p, nil
}

// IsPublished reports whether sourceURL was published on platform.
func (s *Store) IsPublished(ctx context.Context, sourceURL, platform string) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM published_posts WHERE source_url = ? AND platform = ?`, sourceURL, platform)
}

// PublishedSince reports whether sourceURL was published on any platform
// at or after since.
func (s *Store) PublishedSince(ctx context.Context, sourceURL string, since time.Time) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM published_posts WHERE source_url = ? AND published_at >= ?`, sourceURL, formatTime(since))
}

// IsImageUsed reports whether any published post carried imageURL.
func (s *Store) IsImageUsed(ctx context.Context, imageURL string) (bool, error) {
	if imageURL == "" {
		return false, nil
	}
	return s.exists(ctx, `SELECT COUNT(*) FROM published_posts WHERE image_url = ?`, imageURL)
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var n int
	if err := s.get(ctx, &n, query, args...); err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return n > 0, nil
}

type postRow struct {
	ID          string         `db:"id"`
	SourceURL   string         `db:"source_url"`
	Platform    string         `db:"platform"`
	PostType    string         `db:"post_type"`
	Category    sql.NullString `db:"category"`
	ImageURL    sql.NullString `db:"image_url"`
	MessageID   sql.NullString `db:"message_id"`
	Text        string         `db:"post_text"`
	PublishedAt string         `db:"published_at"`
}

// ListPublished returns the newest posts first, optionally for one platform.
func (s *Store) ListPublished(ctx context.Context, platform string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, source_url, platform, post_type, category, image_url, message_id, post_text, published_at
FROM published_posts`
	var args []any
	if platform != "" {
		query += ` WHERE platform = ?`
		args = append(args, platform)
	}
	query += ` ORDER BY published_at DESC, id ASC LIMIT ?`
	args = append(args, limit)

	var rows []postRow
	if err := s.selectAll(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}
	posts := make([]models.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, models.Post{
			ID:          r.ID,
			SourceURL:   r.SourceURL,
			Platform:    r.Platform,
			PostType:    r.PostType,
			Category:    r.Category.String,
			Text:        r.Text,
			ImageURL:    r.ImageURL.String,
			MessageID:   r.MessageID.String,
			PublishedAt: parseTime(r.PublishedAt),
		})
	}
	return posts, nil
}

// CountPublished returns the number of ledger entries.
func (s *Store) CountPublished(ctx context.Context) (int, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM published_posts`); err != nil {
		return 0, fmt.Errorf("count published: %w", err)
	}
	return n, nil
}
