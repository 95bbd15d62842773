// Package scoring estimates landed cost and ranks candidate products.
//
// Everything here is pure: no I/O, no errors. The cost model is a deliberate
// simplification (flat delivery and customs percentages of the converted
// price), not a tax-law calculation.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/Wisionflow/algora/internal/models"
)

// CostModel holds the flat percentages applied to the converted price.
type CostModel struct {
	DeliveryPct float64
	CustomsPct  float64
}

// DefaultCostModel is 20% logistics and 15% duty+VAT.
var DefaultCostModel = CostModel{DeliveryPct: 0.20, CustomsPct: 0.15}

// Weights combine the four sub-scores into the total score.
type Weights struct {
	Trend       float64
	Competition float64
	Margin      float64
	Reliability float64
}

// DefaultWeights favour demand, then margin, then competition.
var DefaultWeights = Weights{Trend: 0.35, Competition: 0.25, Margin: 0.30, Reliability: 0.10}

// Validate reports weights that are negative or do not sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"trend": w.Trend, "competition": w.Competition, "margin": w.Margin, "reliability": w.Reliability,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %v", name, v)
		}
	}
	sum := w.Trend + w.Competition + w.Margin + w.Reliability
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("weights sum to %v, want 1", sum)
	}
	return nil
}

// Costs is the landed-cost breakdown in the destination currency.
type Costs struct {
	DomesticPrice float64
	Delivery      float64
	Customs       float64
	TotalLanded   float64
}

// EstimateCosts converts the unit price and adds delivery and customs.
func EstimateCosts(raw models.RawProduct, rate float64, m CostModel) Costs {
	domestic := raw.PriceCNY * rate
	delivery := domestic * m.DeliveryPct
	customs := domestic * m.CustomsPct
	return Costs{
		DomesticPrice: round(domestic, 2),
		Delivery:      round(delivery, 2),
		Customs:       round(customs, 2),
		TotalLanded:   round(domestic+delivery+customs, 2),
	}
}

// Scores are the four 0-10 sub-scores, the weighted total and the margin.
type Scores struct {
	Trend       float64
	Competition float64
	Margin      float64
	Reliability float64
	Total       float64
	MarginPct   float64
	MarginAbs   float64
}

// ComputeScores scores a product against its reference market.
// Margin is zero unless both landed cost and reference price are positive.
func ComputeScores(raw models.RawProduct, landed, refPrice float64, competitors int, w Weights) Scores {
	var marginAbs, marginPct float64
	if landed > 0 && refPrice > 0 {
		marginAbs = refPrice - landed
		marginPct = marginAbs / refPrice * 100
	}

	s := Scores{
		Trend:       round(TrendScore(raw.SalesVolume), 1),
		Competition: round(CompetitionScore(competitors), 1),
		Margin:      round(MarginScore(marginPct), 1),
		Reliability: round(ReliabilityScore(raw.SupplierYears, raw.Rating), 1),
		MarginPct:   round(marginPct, 1),
		MarginAbs:   round(marginAbs, 2),
	}
	s.Total = round(Total(s.Trend, s.Competition, s.Margin, s.Reliability, w), 2)
	return s
}

// Total is the weighted linear combination of the sub-scores.
func Total(trend, competition, margin, reliability float64, w Weights) float64 {
	return trend*w.Trend + competition*w.Competition + margin*w.Margin + reliability*w.Reliability
}

// TrendScore steps on monthly sales volume.
func TrendScore(sales int) float64 {
	switch {
	case sales >= 10000:
		return 10
	case sales >= 5000:
		return 8
	case sales >= 1000:
		return 6
	case sales >= 500:
		return 4
	case sales >= 100:
		return 2
	default:
		return 1
	}
}

// CompetitionScore is inverted: fewer sellers score higher.
// Zero competitors means no data, not zero risk, so it scores 9.
func CompetitionScore(competitors int) float64 {
	switch {
	case competitors == 0:
		return 9
	case competitors <= 5:
		return 8
	case competitors <= 20:
		return 6
	case competitors <= 50:
		return 4
	case competitors <= 100:
		return 2
	default:
		return 1
	}
}

// MarginScore steps on margin percentage.
func MarginScore(marginPct float64) float64 {
	switch {
	case marginPct >= 60:
		return 10
	case marginPct >= 45:
		return 8
	case marginPct >= 30:
		return 6
	case marginPct >= 15:
		return 4
	case marginPct > 0:
		return 2
	default:
		return 0
	}
}

// ReliabilityScore is a linear proxy of supplier tenure and rating, capped at 10.
func ReliabilityScore(years int, rating float64) float64 {
	return math.Min(10, float64(years)*1.5+rating*1.5)
}

// Engine binds the cost model and weights for repeated analysis.
type Engine struct {
	Costs   CostModel
	Weights Weights
	Now     func() time.Time
}

// NewEngine returns an engine with the given model and weights.
func NewEngine(costs CostModel, weights Weights) *Engine {
	return &Engine{Costs: costs, Weights: weights, Now: time.Now}
}

// Analyze builds an AnalyzedProduct from one product, its market snapshot and the rate.
func (e *Engine) Analyze(raw models.RawProduct, snap models.MarketSnapshot, rate float64) models.AnalyzedProduct {
	c := EstimateCosts(raw, rate, e.Costs)
	s := ComputeScores(raw, c.TotalLanded, snap.AvgPrice, snap.Competitors, e.Weights)
	sig := DetectSignals(raw.SalesVolume, snap.Competitors, s.MarginPct)

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	return models.AnalyzedProduct{
		Raw:               raw,
		PriceRUB:          c.DomesticPrice,
		DeliveryCost:      c.Delivery,
		CustomsDuty:       c.Customs,
		TotalLandedCost:   c.TotalLanded,
		WBAvgPrice:        snap.AvgPrice,
		WBCompetitors:     snap.Competitors,
		MarginPct:         s.MarginPct,
		MarginRUB:         s.MarginAbs,
		TrendScore:        s.Trend,
		CompetitionScore:  s.Competition,
		MarginScore:       s.Margin,
		ReliabilityScore:  s.Reliability,
		TotalScore:        s.Total,
		TrendStatus:       sig.TrendStatus,
		MarketOpportunity: sig.Opportunity,
		TrendConfidence:   sig.Confidence,
		AnalyzedAt:        now(),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
