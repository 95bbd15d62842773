package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Wisionflow/algora/internal/models"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [title]",
	Short: "Price and score a single product described by flags",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.Float64("price", 0, "Unit price in CNY (required)")
	f.Int("sales", 0, "Monthly sales volume")
	f.Float64("rating", 0, "Supplier rating 0-5")
	f.Int("years", 0, "Supplier years on the platform")
	f.Float64("wb-price", 0, "Known Wildberries price hint in RUB")
	f.String("url", "", "Product URL")
	f.String("format", "table", "Output format: json, table")
	analyzeCmd.MarkFlagRequired("price")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	price, _ := f.GetFloat64("price")
	sales, _ := f.GetInt("sales")
	rating, _ := f.GetFloat64("rating")
	years, _ := f.GetInt("years")
	hint, _ := f.GetFloat64("wb-price")
	url, _ := f.GetString("url")
	format, _ := f.GetString("format")

	raw, err := manualProduct(args[0], price, url)
	if err != nil {
		return err
	}
	raw.Category = cfg.Category
	raw.SalesVolume = sales
	raw.Rating = rating
	raw.SupplierYears = years
	raw.WBEstPrice = hint

	ctx, stop := signalContext()
	defer stop()

	p := newAnalyzer()
	a := p.Analyze(ctx, raw, p.Rates.CNYToRUB(ctx))

	if format == "json" {
		return printJSON(os.Stdout, a)
	}
	printAnalyzedTable(os.Stdout, []models.AnalyzedProduct{a})
	return nil
}

// manualProduct builds a record from command-line input, rejecting input
// the collectors would drop.
func manualProduct(title string, price float64, url string) (models.RawProduct, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.RawProduct{}, fmt.Errorf("title must not be empty")
	}
	if price <= 0 {
		return models.RawProduct{}, fmt.Errorf("--price must be positive, got %v", price)
	}
	if url == "" {
		url = "manual://" + title
	}
	return models.RawProduct{
		Source:      "manual",
		SourceURL:   url,
		TitleRU:     title,
		PriceCNY:    price,
		MinOrder:    1,
		CollectedAt: time.Now().UTC(),
	}, nil
}
