package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Wisionflow/algora/internal/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printRawTable prints collected products as cards.
func printRawTable(w io.Writer, products []models.RawProduct) {
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, " %d. %s\n", i+1, truncate(displayTitle(p), 70))
		line := fmt.Sprintf("    Price: ¥%.2f  |  MOQ: %d  |  Sales: %d", p.PriceCNY, p.MinOrder, p.SalesVolume)
		if p.SupplierName != "" {
			line += "  |  Shop: " + p.SupplierName
		}
		fmt.Fprintln(w, line)
		if p.Category != "" {
			fmt.Fprintf(w, "    Category: %s  [%s]\n", p.Category, p.Source)
		}
		fmt.Fprintf(w, "    %s\n", cleanURL(p.SourceURL))
	}
}

// printAnalyzedTable prints scored products, best first as given.
func printAnalyzedTable(w io.Writer, products []models.AnalyzedProduct) {
	for i, a := range products {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, " %d. %s  (score %.1f)\n", i+1, truncate(displayTitle(a.Raw), 60), a.TotalScore)
		fmt.Fprintf(w, "    Landed: %s  |  WB: %s (%d sellers, %s)  |  Margin: %.0f%% / %s\n",
			formatRUB(a.TotalLandedCost), formatRUB(a.WBAvgPrice), a.WBCompetitors, a.PricingSource,
			a.MarginPct, formatRUB(a.MarginRUB))
		fmt.Fprintf(w, "    Trend %.1f  Competition %.1f  Margin %.1f  Reliability %.1f",
			a.TrendScore, a.CompetitionScore, a.MarginScore, a.ReliabilityScore)
		if a.TrendStatus != "" {
			fmt.Fprintf(w, "  |  %s, %s", a.TrendStatus, a.MarketOpportunity)
		}
		fmt.Fprintln(w)
		if a.AIInsight != "" {
			fmt.Fprintf(w, "    %s\n", truncate(a.AIInsight, 160))
		}
		fmt.Fprintf(w, "    %s\n", cleanURL(a.Raw.SourceURL))
	}
}

func displayTitle(p models.RawProduct) string {
	if p.TitleRU != "" {
		return p.TitleRU
	}
	return p.TitleCN
}

// formatRUB formats a rouble amount as "1 234 ₽".
func formatRUB(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, " ") + " ₽"
	if neg {
		out = "-" + out
	}
	return out
}

// cleanURL drops tracking query parameters from product links.
func cleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
