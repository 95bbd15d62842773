package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Wisionflow/algora/internal/filecache"
	"github.com/Wisionflow/algora/internal/fx"
	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/publish"
	"github.com/Wisionflow/algora/internal/scoring"
	"github.com/Wisionflow/algora/internal/store"
)

type fixedCollector struct {
	products []models.RawProduct
}

func (f fixedCollector) Name() string { return "fixed" }

func (f fixedCollector) Collect(_ context.Context, category string, limit int) []models.RawProduct {
	var out []models.RawProduct
	for _, p := range f.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type fakeMarket struct {
	mu       sync.Mutex
	snaps    map[string]models.MarketSnapshot
	keywords []string
}

func (f *fakeMarket) Fetch(_ context.Context, query, keyword string) models.MarketSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywords = append(f.keywords, keyword)
	return f.snaps[query]
}

type fakePublisher struct {
	name string
	fail bool
	sent []publish.Message
}

func (f *fakePublisher) Name() string { return f.name }

func (f *fakePublisher) Publish(_ context.Context, m publish.Message) (string, error) {
	if f.fail {
		return "", errors.New("upstream down")
	}
	f.sent = append(f.sent, m)
	return "msg-1", nil
}

type staticInsight string

func (s staticInsight) Insight(context.Context, models.AnalyzedProduct) string { return string(s) }

func raw(url, title, category string, price float64, sales int) models.RawProduct {
	return models.RawProduct{
		Source: models.SourceDemo, SourceURL: url, TitleRU: title, Category: category,
		PriceCNY: price, SalesVolume: sales, Rating: 4.8, SupplierYears: 5,
		ImageURL: "https://cbu01.alicdn.com/img/" + url + ".jpg", CollectedAt: time.Now().UTC(),
	}
}

func memStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newPipeline(t *testing.T, st *store.Store, c fixedCollector, m *fakeMarket, pubs ...publish.Publisher) *Pipeline {
	return &Pipeline{
		Collector:    c,
		Market:       m,
		Rates:        fx.Fixed(12.5),
		Engine:       scoring.NewEngine(scoring.DefaultCostModel, scoring.DefaultWeights),
		Store:        st,
		Insight:      staticInsight("Хороший товар для старта."),
		Publishers:   pubs,
		Composer:     publish.Composer{HTML: true},
		CollectLimit: 10,
		TopN:         2,
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name       string
		raw        models.RawProduct
		snap       models.MarketSnapshot
		landed     float64
		wantPrice  float64
		wantComps  int
		wantSource string
	}{
		{"marketplace", models.RawProduct{Category: "toys"}, models.MarketSnapshot{AvgPrice: 999, Competitors: 7}, 100, 999, 7, models.PricingWB},
		{"hint", models.RawProduct{Category: "toys", WBEstPrice: 1200}, models.MarketSnapshot{}, 100, 1200, 30, models.PricingHint},
		{"markup", models.RawProduct{Category: "toys"}, models.MarketSnapshot{}, 168.75, 506.25, 50, models.PricingMarkup},
		{"category", models.RawProduct{Category: "kitchen"}, models.MarketSnapshot{}, 0, 1200, 45, models.PricingCategoryDefault},
		{"unknown category", models.RawProduct{Category: "boats"}, models.MarketSnapshot{}, 0, 1500, 35, models.PricingCategoryDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, src := Price(tt.raw, tt.snap, tt.landed)
			if snap.AvgPrice != tt.wantPrice || snap.Competitors != tt.wantComps || src != tt.wantSource {
				t.Errorf("Price = (%v, %d, %s), want (%v, %d, %s)",
					snap.AvgPrice, snap.Competitors, src, tt.wantPrice, tt.wantComps, tt.wantSource)
			}
		})
	}
}

func TestRunPublishesTopAndRecordsLedger(t *testing.T) {
	st := memStore(t)
	c := fixedCollector{products: []models.RawProduct{
		raw("a", "Светодиодная лампа настольная", "led_lighting", 10, 12000),
		raw("b", "Кабель зарядный быстрый", "led_lighting", 5, 300),
		raw("c", "Ночник детский проектор", "led_lighting", 20, 6000),
	}}
	m := &fakeMarket{snaps: map[string]models.MarketSnapshot{
		"Светодиодная лампа настольная": {AvgPrice: 1500, Competitors: 20},
	}}
	tg := &fakePublisher{name: "telegram"}
	p := newPipeline(t, st, c, m, tg)

	sum, err := p.Run(context.Background(), "led_lighting")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Collected != 3 || sum.Analyzed != 3 || sum.Selected != 2 || sum.Published != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.RunID == "" {
		t.Error("run id not set")
	}
	if len(tg.sent) != 2 {
		t.Fatalf("sent %d messages", len(tg.sent))
	}
	for _, a := range sum.Top {
		if a.AIInsight == "" {
			t.Errorf("insight missing for %s", a.Raw.SourceURL)
		}
	}

	got, err := st.GetAnalyzed(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.PricingSource != models.PricingWB || got.WBAvgPrice != 1500 {
		t.Errorf("stored analysis = %+v", got)
	}
	if n, _ := st.CountPublished(context.Background()); n != 2 {
		t.Errorf("ledger has %d posts, want 2", n)
	}

	// A second run must not repeat anything already posted.
	tg.sent = nil
	sum, _ = p.Run(context.Background(), "led_lighting")
	if sum.Selected != 1 || len(tg.sent) != 1 {
		t.Errorf("second run selected %d, sent %d", sum.Selected, len(tg.sent))
	}
}

func TestRunDryRunDoesNotRecord(t *testing.T) {
	st := memStore(t)
	c := fixedCollector{products: []models.RawProduct{raw("a", "Лампа", "home", 10, 5000)}}
	tg := &fakePublisher{name: "telegram"}
	p := newPipeline(t, st, c, &fakeMarket{}, tg)
	p.DryRun = true

	sum, _ := p.Run(context.Background(), "home")
	if sum.Published != 0 || len(tg.sent) != 0 {
		t.Errorf("dry run published: %+v", sum)
	}
	if n, _ := st.CountPublished(context.Background()); n != 0 {
		t.Errorf("dry run recorded %d posts", n)
	}
}

func TestRunPublishFailureIsNotRecorded(t *testing.T) {
	st := memStore(t)
	c := fixedCollector{products: []models.RawProduct{raw("a", "Лампа", "home", 10, 5000)}}
	tg := &fakePublisher{name: "telegram", fail: true}
	p := newPipeline(t, st, c, &fakeMarket{}, tg)

	sum, err := p.Run(context.Background(), "home")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Published != 0 {
		t.Errorf("published = %d", sum.Published)
	}
	if ok, _ := st.IsPublished(context.Background(), "a", "telegram"); ok {
		t.Error("failed publish was recorded")
	}
}

func TestRunEmptyCollection(t *testing.T) {
	st := memStore(t)
	p := newPipeline(t, st, fixedCollector{}, &fakeMarket{})
	sum, err := p.Run(context.Background(), "toys")
	if err != nil || sum.Collected != 0 || sum.Selected != 0 {
		t.Errorf("Run = %+v, %v", sum, err)
	}
}

func TestRunCancelledKeepsPartialSummary(t *testing.T) {
	st := memStore(t)
	c := fixedCollector{products: []models.RawProduct{raw("a", "Лампа", "home", 10, 5000)}}
	p := newPipeline(t, st, c, &fakeMarket{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := p.Run(ctx, "home")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if sum.Collected != 1 || sum.Analyzed != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestAnalyzeUsesExtractedKeyword(t *testing.T) {
	m := &fakeMarket{}
	p := newPipeline(t, memStore(t), fixedCollector{}, m)
	r := raw("a", "Беспроводные наушники спортивные", "electronics", 50, 1000)
	r.WBKeyword = "наушники"

	a := p.Analyze(context.Background(), r, 12.5)
	if a.SearchKeyword == "" || m.keywords[0] != a.SearchKeyword {
		t.Errorf("keyword %q not used for lookup %v", a.SearchKeyword, m.keywords)
	}
	if a.PricingSource != models.PricingMarkup {
		t.Errorf("pricing source = %s", a.PricingSource)
	}
}

func TestRefreshWritesCacheWithHints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_cache.json")
	c := fixedCollector{products: []models.RawProduct{
		raw("a", "Лампа", "home", 10, 5000),
		raw("b", "Кружка", "kitchen", 4, 800),
	}}
	m := &fakeMarket{snaps: map[string]models.MarketSnapshot{"Лампа": {AvgPrice: 990, Competitors: 3}}}
	r := &Refresher{Collector: c, Market: m, Path: path}

	got, err := r.Refresh(context.Background(), []string{"home", "kitchen"}, 5)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("refreshed %d products", len(got))
	}
	loaded, err := filecache.Load(path)
	if err != nil || len(loaded) != 2 {
		t.Fatalf("Load = %d, %v", len(loaded), err)
	}
	for _, p := range loaded {
		if p.SourceURL == "a" && p.WBEstPrice != 990 {
			t.Errorf("hint not filled: %+v", p)
		}
	}
}

func TestRefreshNothingCollected(t *testing.T) {
	r := &Refresher{Collector: fixedCollector{}, Path: filepath.Join(t.TempDir(), "c.json")}
	if _, err := r.Refresh(context.Background(), []string{"toys"}, 5); !errors.Is(err, ErrNothingCollected) {
		t.Errorf("err = %v", err)
	}
}
