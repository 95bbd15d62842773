package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Wisionflow/algora/internal/wb"
	"github.com/spf13/cobra"
)

var marketCmd = &cobra.Command{
	Use:   "market [query]",
	Short: "Look up Wildberries prices and competitor count for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMarket,
}

func init() {
	marketCmd.Flags().String("keyword", "", "Preferred short search keyword")
	marketCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(marketCmd)
}

func runMarket(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	keyword, _ := cmd.Flags().GetString("keyword")
	format, _ := cmd.Flags().GetString("format")

	ctx, stop := signalContext()
	defer stop()

	snap := newMarketClient().Fetch(ctx, query, keyword)
	if format == "json" {
		return printJSON(os.Stdout, snap)
	}
	if snap.IsEmpty() {
		fmt.Printf("No Wildberries data for %q.\n", wb.ResolveTerm(query, keyword))
		return nil
	}
	fmt.Printf("Wildberries: %q\n", wb.ResolveTerm(query, keyword))
	fmt.Printf("    Average: %s  (min %s, max %s)\n", formatRUB(snap.AvgPrice), formatRUB(snap.MinPrice), formatRUB(snap.MaxPrice))
	fmt.Printf("    Competitors: %d\n", snap.Competitors)
	if snap.ListingURL != "" {
		fmt.Printf("    %s\n", snap.ListingURL)
	}
	return nil
}
