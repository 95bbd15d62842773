package models

import (
	"strings"
	"time"
)

// Source tags identify where a RawProduct came from.
const (
	SourceLive  = "1688"
	SourceDemo  = "demo"
	SourceCache = "cache"
)

// RawProduct is a candidate product as collected, before economic analysis.
// SourceURL identifies the product for its whole lifetime.
type RawProduct struct {
	Source        string         `json:"source"`
	SourceURL     string         `json:"source_url"`
	TitleCN       string         `json:"title_cn"`
	TitleRU       string         `json:"title_ru"`
	Category      string         `json:"category"`
	PriceCNY      float64        `json:"price_cny"`
	MinOrder      int            `json:"min_order"`
	SalesVolume   int            `json:"sales_volume"`
	SalesTrend    float64        `json:"sales_trend"`
	Rating        float64        `json:"rating"`
	SupplierName  string         `json:"supplier_name"`
	SupplierYears int            `json:"supplier_years"`
	ImageURL      string         `json:"image_url"`
	Specs         map[string]any `json:"specs,omitempty"`
	CollectedAt   time.Time      `json:"collected_at"`

	// Optional hints carried by cache files and the demo set.
	WBKeyword  string  `json:"wb_keyword,omitempty"`
	WBEstPrice float64 `json:"wb_est_price,omitempty"`
}

// Usable reports whether the record can be scored: it needs a link, a
// positive price and a title in at least one language.
func (p RawProduct) Usable() bool {
	if p.SourceURL == "" || p.PriceCNY <= 0 {
		return false
	}
	return strings.TrimSpace(p.TitleCN) != "" || strings.TrimSpace(p.TitleRU) != ""
}

// MarketSnapshot is the result of one reference-market query.
// The zero value means "no usable data".
type MarketSnapshot struct {
	AvgPrice    float64 `json:"avg_price"`
	Competitors int     `json:"competitors"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	ImageURL    string  `json:"image_url,omitempty"`
	ListingURL  string  `json:"listing_url,omitempty"`
}

// IsEmpty reports whether the snapshot carries no usable price data.
func (s MarketSnapshot) IsEmpty() bool {
	return s.AvgPrice <= 0
}

// Pricing sources recorded on AnalyzedProduct.
const (
	PricingWB              = "wb"
	PricingHint            = "hint"
	PricingMarkup          = "markup"
	PricingCategoryDefault = "category_default"
)

// AnalyzedProduct is a RawProduct combined with computed economics and scores.
type AnalyzedProduct struct {
	Raw RawProduct `json:"raw"`

	PriceRUB        float64 `json:"price_rub"`
	DeliveryCost    float64 `json:"delivery_cost_est"`
	CustomsDuty     float64 `json:"customs_duty_est"`
	TotalLandedCost float64 `json:"total_landed_cost"`

	WBAvgPrice    float64 `json:"wb_avg_price"`
	WBCompetitors int     `json:"wb_competitors"`
	SearchKeyword string  `json:"search_keyword,omitempty"`
	PricingSource string  `json:"pricing_source,omitempty"`

	MarginPct float64 `json:"margin_pct"`
	MarginRUB float64 `json:"margin_rub"`

	TrendScore       float64 `json:"trend_score"`
	CompetitionScore float64 `json:"competition_score"`
	MarginScore      float64 `json:"margin_score"`
	ReliabilityScore float64 `json:"reliability_score"`
	TotalScore       float64 `json:"total_score"`

	TrendStatus       string  `json:"trend_status,omitempty"`
	MarketOpportunity string  `json:"market_opportunity,omitempty"`
	TrendConfidence   float64 `json:"trend_confidence"`

	AIInsight  string    `json:"ai_insight,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Post is a composed social post and, once sent, its publish record.
type Post struct {
	ID          string    `json:"id"`
	SourceURL   string    `json:"source_url"`
	Platform    string    `json:"platform"`
	PostType    string    `json:"post_type"`
	Category    string    `json:"category"`
	Text        string    `json:"text"`
	ImageURL    string    `json:"image_url,omitempty"`
	MessageID   string    `json:"message_id,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
