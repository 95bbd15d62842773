package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/selection"
)

var _ selection.Ledger = (*Store)(nil)

func memStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func analyzed(url, category string, score float64) models.AnalyzedProduct {
	return models.AnalyzedProduct{
		Raw: models.RawProduct{
			Source: models.SourceDemo, SourceURL: url, TitleRU: "Товар " + url,
			Category: category, PriceCNY: 10, CollectedAt: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		},
		PriceRUB:      125,
		TotalScore:    score,
		PricingSource: models.PricingWB,
		AIInsight:     "Хороший спрос",
		AnalyzedAt:    time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestSaveRawKeepsFirstSighting(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	p := models.RawProduct{Source: "1688", SourceURL: "u1", PriceCNY: 3, Specs: map[string]any{"color": "red"}, CollectedAt: time.Now()}
	if err := s.SaveRaw(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.PriceCNY = 99
	if err := s.SaveRaw(ctx, p); err != nil {
		t.Fatal(err)
	}
	n, err := s.CountRaw(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CountRaw = %d, %v", n, err)
	}
}

func TestAnalyzedRoundTripAndReplace(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	a := analyzed("u1", "home", 6.5)
	if err := s.SaveAnalyzed(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.TotalScore = 7.25
	if err := s.SaveAnalyzed(ctx, a); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetAnalyzed(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalScore != 7.25 || got.Raw.TitleRU != "Товар u1" || got.AIInsight != "Хороший спрос" || got.PricingSource != models.PricingWB {
		t.Errorf("GetAnalyzed = %+v", got)
	}
	if !got.AnalyzedAt.Equal(a.AnalyzedAt) {
		t.Errorf("analyzed_at = %v, want %v", got.AnalyzedAt, a.AnalyzedAt)
	}

	if _, err := s.GetAnalyzed(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing row error = %v", err)
	}
}

func TestTopProducts(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	for _, a := range []models.AnalyzedProduct{
		analyzed("a", "home", 5),
		analyzed("b", "toys", 9),
		analyzed("c", "home", 7),
	} {
		if err := s.SaveAnalyzed(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.TopProducts(ctx, TopQuery{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Raw.SourceURL != "b" || all[1].Raw.SourceURL != "c" {
		t.Errorf("TopProducts = %+v", all)
	}

	home, err := s.TopProducts(ctx, TopQuery{Category: "home"})
	if err != nil {
		t.Fatal(err)
	}
	if len(home) != 2 || home[0].Raw.SourceURL != "c" {
		t.Errorf("home TopProducts = %+v", home)
	}

	none, err := s.TopProducts(ctx, TopQuery{Since: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil || len(none) != 0 {
		t.Errorf("since filter = %d, %v", len(none), err)
	}
}

func TestLedger(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	at := time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)

	post, err := s.RecordPublished(ctx, models.Post{
		SourceURL: "u1", Platform: "telegram", PostType: "product", Category: "home",
		ImageURL: "https://img/1.jpg", MessageID: "42", Text: "text", PublishedAt: at,
	})
	if err != nil {
		t.Fatal(err)
	}
	if post.ID == "" {
		t.Error("post id not assigned")
	}
	if _, err := s.RecordPublished(ctx, models.Post{SourceURL: "u1", Platform: "telegram", PostType: "product", Text: "again"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		fn   func() (bool, error)
		want bool
	}{
		{"published on platform", func() (bool, error) { return s.IsPublished(ctx, "u1", "telegram") }, true},
		{"not on other platform", func() (bool, error) { return s.IsPublished(ctx, "u1", "vk") }, false},
		{"within window", func() (bool, error) { return s.PublishedSince(ctx, "u1", at.Add(-time.Hour)) }, true},
		{"at window edge", func() (bool, error) { return s.PublishedSince(ctx, "u1", at) }, true},
		{"before window", func() (bool, error) { return s.PublishedSince(ctx, "u1", at.Add(time.Hour)) }, false},
		{"image used", func() (bool, error) { return s.IsImageUsed(ctx, "https://img/1.jpg") }, true},
		{"image unused", func() (bool, error) { return s.IsImageUsed(ctx, "https://img/2.jpg") }, false},
		{"blank image", func() (bool, error) { return s.IsImageUsed(ctx, "") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	posts, err := s.ListPublished(ctx, "telegram", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].MessageID != "42" || !posts[0].PublishedAt.Equal(at) {
		t.Errorf("ListPublished = %+v", posts)
	}
	if n, _ := s.CountPublished(ctx); n != 1 {
		t.Errorf("CountPublished = %d", n)
	}
}

func TestSelectionAgainstStore(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	now := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	if _, err := s.RecordPublished(ctx, models.Post{SourceURL: "u1", Platform: "telegram", PostType: "product", Text: "t", PublishedAt: now.AddDate(0, -1, 0)}); err != nil {
		t.Fatal(err)
	}

	p := selection.Policy{Ledger: s, Platform: "telegram", TopN: 2, Now: func() time.Time { return now }}
	got := p.Select(ctx, []models.AnalyzedProduct{analyzed("u1", "home", 9), analyzed("u2", "home", 5)})
	if len(got) != 1 || got[0].Raw.SourceURL != "u2" {
		t.Errorf("Select = %+v", got)
	}
}
