package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Wisionflow/algora/internal/store"
	"github.com/spf13/cobra"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "List the best-scored products from the database",
	RunE:  runTop,
}

func init() {
	topCmd.Flags().Int("days", 7, "Only products analyzed in the last N days (0 = all)")
	topCmd.Flags().Int("limit", 10, "Maximum products")
	topCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	ctx, stop := signalContext()
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	q := store.TopQuery{Category: cfg.Category, Limit: limit}
	if days > 0 {
		q.Since = time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	}
	products, err := st.TopProducts(ctx, q)
	if err != nil {
		return err
	}
	if format == "json" {
		return printJSON(os.Stdout, products)
	}
	if len(products) == 0 {
		fmt.Println("No analyzed products yet. Run `algora run` first.")
		return nil
	}
	printAnalyzedTable(os.Stdout, products)
	return nil
}
