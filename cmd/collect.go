package cmd

import (
	"fmt"
	"os"

	"github.com/Wisionflow/algora/internal/platform"
	"github.com/Wisionflow/algora/internal/ui"
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect candidate products without scoring or publishing",
	RunE:  runCollect,
}

func init() {
	collectCmd.Flags().Int("limit", 20, "Maximum products")
	collectCmd.Flags().String("format", "table", "Output format: json, table")
	collectCmd.Flags().Bool("save", false, "Store collected products in the database")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	initCollectors()

	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	ctx, stop := signalContext()
	defer stop()

	collector := platform.ChainFor(cfg.Source, logger)

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Collecting %s products via %s...", categoryLabel(), collector.Name()))
	products := collector.Collect(platform.WithProgress(ctx, spin.Update), cfg.Category, limit)
	spin.Stop()

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		for _, p := range products {
			if err := st.SaveRaw(ctx, p); err != nil {
				return err
			}
		}
	}

	if format == "json" {
		return printJSON(os.Stdout, products)
	}
	if len(products) == 0 {
		fmt.Println("No products found.")
		return nil
	}
	printRawTable(os.Stdout, products)
	return nil
}
