package alibaba

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/platform"
	"github.com/Wisionflow/algora/internal/textnorm"
)

// mapItem converts one upstream record to a RawProduct. Records without a
// title, a detail URL or a positive price are rejected. The Russian title
// and keyword are filled in later.
func mapItem(item platform.Item, category string) (models.RawProduct, bool) {
	title := str(item, "title", "subject")
	if title == "" {
		return models.RawProduct{}, false
	}
	sourceURL := textnorm.AbsoluteURL(str(item, "detail_url", "detailUrl"))
	if sourceURL == "" {
		return models.RawProduct{}, false
	}

	var tiers []map[string]any
	if raw, ok := item["quantity_prices"].([]any); ok {
		for _, t := range raw {
			if m, ok := t.(map[string]any); ok {
				tiers = append(tiers, m)
			}
		}
	}

	price := joinedPrice(item)
	if price == 0 {
		price = textnorm.ParsePrice(item["price"])
	}
	if price == 0 && len(tiers) > 0 {
		price = textnorm.ParsePrice(tiers[0]["price"])
	}
	if price <= 0 {
		return models.RawProduct{}, false
	}

	minOrder := 1
	if len(tiers) > 0 {
		minOrder = textnorm.FirstInt(fmt.Sprint(tiers[0]["quantity"]), 1)
	}

	return models.RawProduct{
		Source:       models.SourceLive,
		SourceURL:    sourceURL,
		TitleCN:      title,
		Category:     category,
		PriceCNY:     price,
		MinOrder:     minOrder,
		SalesVolume:  textnorm.ParseSales(item["order_count"]),
		Rating:       textnorm.RatingFromPercent(item["repurchase_rate"]),
		SupplierName: str(item, "shop_name", "shopName"),
		ImageURL:     textnorm.AbsoluteURL(str(item, "image_url", "imageUrl")),
	}, true
}

// joinedPrice reads the split "price_integer" + "price_decimal" form.
func joinedPrice(item platform.Item) float64 {
	whole, ok := item["price_integer"]
	if !ok || whole == nil {
		return 0
	}
	s := fmt.Sprint(whole)
	if frac, ok := item["price_decimal"]; ok && frac != nil {
		s += fmt.Sprint(frac)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// str returns the first non-empty string value among keys.
func str(item platform.Item, keys ...string) string {
	for _, k := range keys {
		if s, ok := item[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
