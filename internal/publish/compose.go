package publish

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Wisionflow/algora/internal/models"
)

// PostTypeProduct is the single-product spotlight post.
const PostTypeProduct = "product"

// CaptionLimit is Telegram's photo caption length in characters.
const CaptionLimit = 1024

// CategoryNames are display names per category.
var CategoryNames = map[string]string{
	"electronics":       "Электроника",
	"gadgets":           "Гаджеты",
	"home":              "Дом и быт",
	"phone_accessories": "Аксессуары для телефона",
	"car_accessories":   "Автотовары",
	"led_lighting":      "LED-освещение",
	"beauty_devices":    "Красота и уход",
	"smart_home":        "Умный дом",
	"outdoor":           "Отдых и туризм",
	"toys":              "Игрушки",
	"health":            "Здоровье",
	"kitchen":           "Кухня",
	"pet":               "Товары для питомцев",
	"sport":             "Спорт",
	"office":            "Офис",
	"kids":              "Детские товары",
	"bags":              "Сумки и рюкзаки",
	"jewelry":           "Украшения",
	"tools":             "Инструменты",
	"stationery":        "Канцелярия",
}

func categoryName(c string) string {
	if n, ok := CategoryNames[c]; ok {
		return n
	}
	return c
}

// Message is a composed post ready for a Publisher.
type Message struct {
	Text     string
	ImageURL string
	LinkURL  string
}

// Composer renders analyzed products as channel posts.
type Composer struct {
	// HTML selects Telegram markup; otherwise plain text is produced.
	HTML bool
}

// Compose builds a product spotlight. With an image the compact layout is
// used when it fits a photo caption.
func (c Composer) Compose(p models.AnalyzedProduct) Message {
	msg := Message{ImageURL: p.Raw.ImageURL, LinkURL: p.Raw.SourceURL}
	if p.Raw.ImageURL != "" {
		if text := c.compact(p); utf8.RuneCountInString(text) <= CaptionLimit {
			msg.Text = text
			return msg
		}
	}
	msg.Text = c.full(p)
	return msg
}

func (c Composer) bold(s string) string {
	if c.HTML {
		return "<b>" + html.EscapeString(s) + "</b>"
	}
	return s
}

func (c Composer) esc(s string) string {
	if c.HTML {
		return html.EscapeString(s)
	}
	return s
}

func (c Composer) link(url, label string) string {
	if c.HTML {
		return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), label)
	}
	return label + " " + url
}

func title(r models.RawProduct) string {
	if r.TitleRU != "" {
		return r.TitleRU
	}
	return r.TitleCN
}

func (c Composer) compact(p models.AnalyzedProduct) string {
	r := p.Raw
	lines := []string{
		c.bold("ALGORA ▸ Находка дня"),
		"",
		c.bold(truncate(title(r), 50)),
		c.esc(categoryName(r.Category)),
		"",
		fmt.Sprintf("Закупка: ¥%.0f (~%.0f₽)", r.PriceCNY, p.PriceRUB),
		fmt.Sprintf("Себестоимость в РФ: ~%.0f₽", p.TotalLandedCost),
	}
	if p.WBCompetitors > 0 {
		lines = append(lines, fmt.Sprintf("WB: %d продавцов · ~%.0f₽", p.WBCompetitors, p.WBAvgPrice))
	}
	lines = append(lines, fmt.Sprintf("Маржа: %.0f%% %s · %s %.1f/10", p.MarginPct, marginIcon(p.MarginPct), scoreBar(p.TotalScore), p.TotalScore))
	if p.AIInsight != "" {
		lines = append(lines, "", c.esc(truncate(p.AIInsight, 120)))
	}
	if r.SourceURL != "" {
		lines = append(lines, "", c.link(r.SourceURL, "Смотреть на фабрике →"))
	}
	return strings.Join(lines, "\n")
}

func (c Composer) full(p models.AnalyzedProduct) string {
	r := p.Raw
	lines := []string{c.bold("ALGORA ▸ Находка дня"), "", c.bold(title(r))}
	if r.Category != "" {
		lines = append(lines, c.esc(categoryName(r.Category)))
	}
	lines = append(lines, "", "─ ─ ─ ─ ─ ─ ─ ─ ─ ─", "", c.bold("Экономика:"),
		fmt.Sprintf("FOB Китай: ¥%.0f (~%.0f₽)", r.PriceCNY, p.PriceRUB))
	if dc := p.DeliveryCost + p.CustomsDuty; dc > 0 {
		lines = append(lines, fmt.Sprintf("Доставка + таможня: ~%.0f₽", dc))
	}
	lines = append(lines, fmt.Sprintf("Себестоимость в РФ: ~%.0f₽", p.TotalLandedCost))
	if p.WBAvgPrice > 0 {
		lines = append(lines, fmt.Sprintf("Цена на WB: ~%.0f₽", p.WBAvgPrice))
	}
	margin := fmt.Sprintf("Чистая маржа: ~%.0f%%", p.MarginPct)
	if p.MarginRUB != 0 {
		margin += fmt.Sprintf(" (%.0f₽/шт)", p.MarginRUB)
	}
	lines = append(lines, c.bold(margin)+" "+marginIcon(p.MarginPct))
	if r.MinOrder > 1 {
		lines = append(lines, fmt.Sprintf("Мин. вход: %d шт × %.0f₽ = %.0f₽", r.MinOrder, p.TotalLandedCost, float64(r.MinOrder)*p.TotalLandedCost))
	}
	lines = append(lines, "", c.bold("Рынок:"),
		fmt.Sprintf("Тренд: %s %.1f/10", trendIcon(p.TrendScore), p.TrendScore),
		fmt.Sprintf("Конкуренция: %.1f/10", p.CompetitionScore),
		fmt.Sprintf("Итог: %s %.1f/10", scoreBar(p.TotalScore), p.TotalScore))
	if p.AIInsight != "" {
		lines = append(lines, "", c.esc(p.AIInsight))
	}
	if r.SourceURL != "" {
		lines = append(lines, "", c.link(r.SourceURL, "Смотреть на фабрике →"))
	}
	return strings.Join(lines, "\n")
}

func trendIcon(score float64) string {
	switch {
	case score >= 8:
		return "🔥"
	case score >= 5:
		return "📈"
	default:
		return "→"
	}
}

func marginIcon(pct float64) string {
	switch {
	case pct >= 40:
		return "✅"
	case pct >= 20:
		return "▲"
	case pct > 0:
		return "⚠️"
	default:
		return "✕"
	}
}

// scoreBar draws a ten-cell bar such as ████░░░░░░.
func scoreBar(score float64) string {
	filled := int(score + 0.5)
	filled = max(0, min(10, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// PlainText strips Telegram markup for platforms that take plain text.
func PlainText(s string) string {
	return html.UnescapeString(tagRe.ReplaceAllString(s, ""))
}
