package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/Wisionflow/algora/internal/models"
)

func TestEstimateCostsTotalIsFixedMultiple(t *testing.T) {
	prices := []float64{0.01, 1, 9.99, 28.5, 133.33, 1999}
	rates := []float64{0.5, 11.87, 12.5, 13.1}

	for _, p := range prices {
		for _, r := range rates {
			c := EstimateCosts(models.RawProduct{PriceCNY: p}, r, DefaultCostModel)
			want := p * r * 1.35
			if math.Abs(c.TotalLanded-want) > 0.006 {
				t.Errorf("EstimateCosts(%v, %v).TotalLanded = %v, want ~%v", p, r, c.TotalLanded, want)
			}
		}
	}
}

func TestEstimateCostsCustomModel(t *testing.T) {
	c := EstimateCosts(models.RawProduct{PriceCNY: 10}, 10, CostModel{DeliveryPct: 0.1, CustomsPct: 0.3})
	if c.DomesticPrice != 100 || c.Delivery != 10 || c.Customs != 30 || c.TotalLanded != 140 {
		t.Errorf("unexpected costs: %+v", c)
	}
}

func TestMarginZeroWhenEitherSideNonPositive(t *testing.T) {
	tests := []struct {
		landed, ref float64
	}{
		{0, 2500},
		{-5, 2500},
		{480, 0},
		{480, -1},
		{0, 0},
	}
	for _, tt := range tests {
		s := ComputeScores(models.RawProduct{SalesVolume: 500}, tt.landed, tt.ref, 10, DefaultWeights)
		if s.MarginPct != 0 || s.MarginAbs != 0 {
			t.Errorf("landed=%v ref=%v: margin = %v/%v, want 0/0", tt.landed, tt.ref, s.MarginPct, s.MarginAbs)
		}
		if s.Margin != 0 {
			t.Errorf("landed=%v ref=%v: margin score = %v, want 0", tt.landed, tt.ref, s.Margin)
		}
	}
}

func TestStepFunctions(t *testing.T) {
	trend := []struct {
		sales int
		want  float64
	}{
		{0, 1}, {99, 1}, {100, 2}, {499, 2}, {500, 4}, {999, 4},
		{1000, 6}, {4999, 6}, {5000, 8}, {9999, 8}, {10000, 10}, {250000, 10},
	}
	for _, tt := range trend {
		if got := TrendScore(tt.sales); got != tt.want {
			t.Errorf("TrendScore(%d) = %v, want %v", tt.sales, got, tt.want)
		}
	}

	competition := []struct {
		n    int
		want float64
	}{
		{0, 9}, {1, 8}, {5, 8}, {6, 6}, {20, 6}, {21, 4}, {50, 4}, {51, 2}, {100, 2}, {101, 1},
	}
	for _, tt := range competition {
		if got := CompetitionScore(tt.n); got != tt.want {
			t.Errorf("CompetitionScore(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}

	margin := []struct {
		pct  float64
		want float64
	}{
		{-20, 0}, {0, 0}, {0.1, 2}, {14.9, 2}, {15, 4}, {30, 6}, {44.9, 6}, {45, 8}, {59.9, 8}, {60, 10}, {95, 10},
	}
	for _, tt := range margin {
		if got := MarginScore(tt.pct); got != tt.want {
			t.Errorf("MarginScore(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}

	reliability := []struct {
		years  int
		rating float64
		want   float64
	}{
		{0, 0, 0}, {1, 2, 4.5}, {2, 3.3, 7.95}, {6, 4.7, 10}, {10, 0, 10},
	}
	for _, tt := range reliability {
		if got := ReliabilityScore(tt.years, tt.rating); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ReliabilityScore(%d, %v) = %v, want %v", tt.years, tt.rating, got, tt.want)
		}
	}
}

func TestTotalMonotonicInEachSubScore(t *testing.T) {
	base := [4]float64{5, 5, 5, 5}
	for i := 0; i < 4; i++ {
		prev := math.Inf(-1)
		for v := 0.0; v <= 10; v += 0.5 {
			s := base
			s[i] = v
			got := Total(s[0], s[1], s[2], s[3], DefaultWeights)
			if got < prev {
				t.Fatalf("total decreased when sub-score %d rose to %v: %v < %v", i, v, got, prev)
			}
			prev = got
		}
	}
}

func TestWeightsValidate(t *testing.T) {
	if err := DefaultWeights.Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
	if err := (Weights{Trend: 0.5, Competition: 0.5, Margin: 0.5}).Validate(); err == nil {
		t.Error("expected error for weights summing to 1.5")
	}
	if err := (Weights{Trend: 1.2, Competition: -0.2}).Validate(); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestAnalyzeEndToEndFixture(t *testing.T) {
	raw := models.RawProduct{
		Source:        models.SourceDemo,
		SourceURL:     "https://detail.1688.com/offer/demo-bt-earphones-001.html",
		Category:      "electronics",
		PriceCNY:      28.5,
		SalesVolume:   15200,
		Rating:        4.7,
		SupplierYears: 6,
	}
	snap := models.MarketSnapshot{AvgPrice: 2500, Competitors: 12}

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(DefaultCostModel, DefaultWeights)
	e.Now = func() time.Time { return fixed }

	got := e.Analyze(raw, snap, 12.5)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"price_rub", got.PriceRUB, 356.25},
		{"delivery", got.DeliveryCost, 71.25},
		{"customs", got.CustomsDuty, 53.44},
		{"total_landed", got.TotalLandedCost, 480.94},
		{"margin_rub", got.MarginRUB, 2019.06},
		{"margin_pct", got.MarginPct, 80.8},
		{"trend", got.TrendScore, 10},
		{"competition", got.CompetitionScore, 6},
		{"margin", got.MarginScore, 10},
		{"reliability", got.ReliabilityScore, 10},
		{"total", got.TotalScore, 9.0},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if got.TrendStatus != TrendingUp || got.MarketOpportunity != BlueOcean {
		t.Errorf("signals = %q/%q", got.TrendStatus, got.MarketOpportunity)
	}
	if got.TrendConfidence != 1.0 {
		t.Errorf("confidence = %v, want 1", got.TrendConfidence)
	}
	if !got.AnalyzedAt.Equal(fixed) {
		t.Errorf("AnalyzedAt = %v", got.AnalyzedAt)
	}
	if got.Raw.SourceURL != raw.SourceURL {
		t.Error("raw product not carried through")
	}
}

func TestDetectSignals(t *testing.T) {
	tests := []struct {
		sales, competitors int
		margin             float64
		trend, opp         string
	}{
		{0, 0, 0, "", ""},
		{8500, 12, 45, TrendingUp, BlueOcean},
		{500, 120, 25, Stable, Saturated},
		{700, 25, 10, Stable, Niche},
		{50, 40, 10, Declining, ""},
		{2000, 10, 20, Growing, Niche},
	}
	for _, tt := range tests {
		s := DetectSignals(tt.sales, tt.competitors, tt.margin)
		if s.TrendStatus != tt.trend || s.Opportunity != tt.opp {
			t.Errorf("DetectSignals(%d, %d, %v) = %q/%q, want %q/%q",
				tt.sales, tt.competitors, tt.margin, s.TrendStatus, s.Opportunity, tt.trend, tt.opp)
		}
	}
}
