package pipeline

import (
	"math"

	"github.com/Wisionflow/algora/internal/models"
)

// categoryMarket is a typical reference price and competitor count used when
// the marketplace returns nothing.
type categoryMarket struct {
	AvgPrice    float64
	Competitors int
}

var categoryDefaults = map[string]categoryMarket{
	"electronics":       {3500, 40},
	"gadgets":           {2000, 35},
	"home":              {1500, 50},
	"phone_accessories": {800, 60},
	"car_accessories":   {1200, 30},
	"led_lighting":      {900, 40},
	"beauty_devices":    {2500, 25},
	"smart_home":        {2000, 30},
	"outdoor":           {1800, 35},
	"toys":              {1000, 50},
	"health":            {2000, 30},
	"kitchen":           {1200, 45},
	"pet":               {1800, 35},
	"sport":             {2200, 40},
	"office":            {800, 50},
	"kids":              {1200, 45},
	"bags":              {2500, 50},
	"jewelry":           {600, 60},
	"tools":             {1500, 35},
	"stationery":        {400, 45},
}

var defaultMarket = categoryMarket{1500, 35}

const (
	hintCompetitors = 30
	markupFactor    = 3.0
)

func categoryDefault(category string) categoryMarket {
	if m, ok := categoryDefaults[category]; ok {
		return m
	}
	return defaultMarket
}

// Price returns the snapshot to score against and where it came from. A
// non-empty marketplace snapshot wins; otherwise the product's own price
// hint, then a markup on landed cost, then the category table.
func Price(raw models.RawProduct, snap models.MarketSnapshot, landed float64) (models.MarketSnapshot, string) {
	if !snap.IsEmpty() {
		return snap, models.PricingWB
	}
	if raw.WBEstPrice > 0 {
		return models.MarketSnapshot{AvgPrice: raw.WBEstPrice, Competitors: hintCompetitors}, models.PricingHint
	}
	def := categoryDefault(raw.Category)
	if landed > 0 {
		return models.MarketSnapshot{
			AvgPrice:    math.Round(landed*markupFactor*100) / 100,
			Competitors: def.Competitors,
		}, models.PricingMarkup
	}
	return models.MarketSnapshot{AvgPrice: def.AvgPrice, Competitors: def.Competitors}, models.PricingCategoryDefault
}
