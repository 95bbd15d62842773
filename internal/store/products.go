package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Wisionflow/algora/internal/models"
)

// SaveRaw records a collected product. The first sighting of a source URL
// is kept.
func (s *Store) SaveRaw(ctx context.Context, p models.RawProduct) error {
	specs := ""
	if len(p.Specs) > 0 {
		b, err := json.Marshal(p.Specs)
		if err != nil {
			return fmt.Errorf("encode specs: %w", err)
		}
		specs = string(b)
	}
	_, err := s.exec(ctx, `
INSERT INTO raw_products
  (source_url, source, title_cn, title_ru, category, price_cny, min_order, sales_volume,
   sales_trend, rating, supplier_name, supplier_years, image_url, specs, wb_keyword,
   wb_est_price, collected_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_url) DO NOTHING`,
		p.SourceURL, p.Source, p.TitleCN, p.TitleRU, p.Category, p.PriceCNY, p.MinOrder,
		p.SalesVolume, p.SalesTrend, p.Rating, p.SupplierName, p.SupplierYears, p.ImageURL,
		specs, p.WBKeyword, p.WBEstPrice, formatTime(p.CollectedAt))
	if err != nil {
		return fmt.Errorf("save raw %s: %w", p.SourceURL, err)
	}
	return nil
}

// SaveAnalyzed stores or replaces the latest analysis of a product.
func (s *Store) SaveAnalyzed(ctx context.Context, a models.AnalyzedProduct) error {
	raw, err := json.Marshal(a.Raw)
	if err != nil {
		return fmt.Errorf("encode raw: %w", err)
	}
	analyzedAt := a.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = s.now()
	}
	_, err = s.exec(ctx, `
INSERT INTO analyzed_products
  (source_url, raw_json, category, price_rub, delivery_cost_est, customs_duty_est,
   total_landed_cost, wb_avg_price, wb_competitors, search_keyword, pricing_source,
   margin_pct, margin_rub, trend_score, competition_score, margin_score,
   reliability_score, total_score, trend_status, market_opportunity,
   trend_confidence, ai_insight, analyzed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_url) DO UPDATE SET
  raw_json = excluded.raw_json,
  category = excluded.category,
  price_rub = excluded.price_rub,
  delivery_cost_est = excluded.delivery_cost_est,
  customs_duty_est = excluded.customs_duty_est,
  total_landed_cost = excluded.total_landed_cost,
  wb_avg_price = excluded.wb_avg_price,
  wb_competitors = excluded.wb_competitors,
  search_keyword = excluded.search_keyword,
  pricing_source = excluded.pricing_source,
  margin_pct = excluded.margin_pct,
  margin_rub = excluded.margin_rub,
  trend_score = excluded.trend_score,
  competition_score = excluded.competition_score,
  margin_score = excluded.margin_score,
  reliability_score = excluded.reliability_score,
  total_score = excluded.total_score,
  trend_status = excluded.trend_status,
  market_opportunity = excluded.market_opportunity,
  trend_confidence = excluded.trend_confidence,
  ai_insight = excluded.ai_insight,
  analyzed_at = excluded.analyzed_at`,
		a.Raw.SourceURL, string(raw), a.Raw.Category, a.PriceRUB, a.DeliveryCost, a.CustomsDuty,
		a.TotalLandedCost, a.WBAvgPrice, a.WBCompetitors, a.SearchKeyword, a.PricingSource,
		a.MarginPct, a.MarginRUB, a.TrendScore, a.CompetitionScore, a.MarginScore,
		a.ReliabilityScore, a.TotalScore, a.TrendStatus, a.MarketOpportunity,
		a.TrendConfidence, a.AIInsight, formatTime(analyzedAt))
	if err != nil {
		return fmt.Errorf("save analyzed %s: %w", a.Raw.SourceURL, err)
	}
	return nil
}

type analyzedRow struct {
	SourceURL         string          `db:"source_url"`
	RawJSON           string          `db:"raw_json"`
	PriceRUB          float64         `db:"price_rub"`
	DeliveryCost      float64         `db:"delivery_cost_est"`
	CustomsDuty       float64         `db:"customs_duty_est"`
	TotalLandedCost   float64         `db:"total_landed_cost"`
	WBAvgPrice        float64         `db:"wb_avg_price"`
	WBCompetitors     int             `db:"wb_competitors"`
	SearchKeyword     sql.NullString  `db:"search_keyword"`
	PricingSource     sql.NullString  `db:"pricing_source"`
	MarginPct         float64         `db:"margin_pct"`
	MarginRUB         float64         `db:"margin_rub"`
	TrendScore        float64         `db:"trend_score"`
	CompetitionScore  float64         `db:"competition_score"`
	MarginScore       float64         `db:"margin_score"`
	ReliabilityScore  float64         `db:"reliability_score"`
	TotalScore        float64         `db:"total_score"`
	TrendStatus       sql.NullString  `db:"trend_status"`
	MarketOpportunity sql.NullString  `db:"market_opportunity"`
	TrendConfidence   sql.NullFloat64 `db:"trend_confidence"`
	AIInsight         sql.NullString  `db:"ai_insight"`
	AnalyzedAt        string          `db:"analyzed_at"`
}

const analyzedColumns = `source_url, raw_json, price_rub, delivery_cost_est, customs_duty_est,
  total_landed_cost, wb_avg_price, wb_competitors, search_keyword, pricing_source,
  margin_pct, margin_rub, trend_score, competition_score, margin_score,
  reliability_score, total_score, trend_status, market_opportunity,
  trend_confidence, ai_insight, analyzed_at`

func (r analyzedRow) product() (models.AnalyzedProduct, error) {
	var raw models.RawProduct
	if err := json.Unmarshal([]byte(r.RawJSON), &raw); err != nil {
		return models.AnalyzedProduct{}, fmt.Errorf("decode raw_json for %s: %w", r.SourceURL, err)
	}
	return models.AnalyzedProduct{
		Raw:               raw,
		PriceRUB:          r.PriceRUB,
		DeliveryCost:      r.DeliveryCost,
		CustomsDuty:       r.CustomsDuty,
		TotalLandedCost:   r.TotalLandedCost,
		WBAvgPrice:        r.WBAvgPrice,
		WBCompetitors:     r.WBCompetitors,
		SearchKeyword:     r.SearchKeyword.String,
		PricingSource:     r.PricingSource.String,
		MarginPct:         r.MarginPct,
		MarginRUB:         r.MarginRUB,
		TrendScore:        r.TrendScore,
		CompetitionScore:  r.CompetitionScore,
		MarginScore:       r.MarginScore,
		ReliabilityScore:  r.ReliabilityScore,
		TotalScore:        r.TotalScore,
		TrendStatus:       r.TrendStatus.String,
		MarketOpportunity: r.MarketOpportunity.String,
		TrendConfidence:   r.TrendConfidence.Float64,
		AIInsight:         r.AIInsight.String,
		AnalyzedAt:        parseTime(r.AnalyzedAt),
	}, nil
}

// GetAnalyzed returns the stored analysis of sourceURL.
func (s *Store) GetAnalyzed(ctx context.Context, sourceURL string) (models.AnalyzedProduct, error) {
	var row analyzedRow
	err := s.get(ctx, &row, `SELECT `+analyzedColumns+` FROM analyzed_products WHERE source_url = ?`, sourceURL)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AnalyzedProduct{}, ErrNotFound
	}
	if err != nil {
		return models.AnalyzedProduct{}, fmt.Errorf("get analyzed %s: %w", sourceURL, err)
	}
	return row.product()
}

// TopQuery filters TopProducts. Zero values mean no filter.
type TopQuery struct {
	Since    time.Time
	Category string
	Limit    int
}

// TopProducts lists analyzed products by total score, highest first.
func (s *Store) TopProducts(ctx context.Context, q TopQuery) ([]models.AnalyzedProduct, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	query := `SELECT ` + analyzedColumns + ` FROM analyzed_products WHERE 1=1`
	var args []any
	if !q.Since.IsZero() {
		query += ` AND analyzed_at >= ?`
		args = append(args, formatTime(q.Since))
	}
	if q.Category != "" {
		query += ` AND category = ?`
		args = append(args, q.Category)
	}
	query += ` ORDER BY total_score DESC, source_url ASC LIMIT ?`
	args = append(args, q.Limit)

	var rows []analyzedRow
	if err := s.selectAll(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	out := make([]models.AnalyzedProduct, 0, len(rows))
	for _, r := range rows {
		p, err := r.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CountRaw returns how many distinct products were ever collected.
func (s *Store) CountRaw(ctx context.Context) (int, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM raw_products`); err != nil {
		return 0, fmt.Errorf("count raw: %w", err)
	}
	return n, nil
}
