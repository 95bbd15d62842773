package cmd

import (
	"fmt"
	"os"

	"github.com/Wisionflow/algora/internal/platform"
	"github.com/Wisionflow/algora/internal/ui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once: collect, price, score, select, publish",
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().Int("top", 0, "Products to publish (default from config)")
	runCmd.Flags().Int("limit", 0, "Products to collect (default from config)")
	runCmd.Flags().String("format", "table", "Summary format: table, json")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetInt("top"); v > 0 {
		cfg.TopN = v
	}
	if v, _ := cmd.Flags().GetInt("limit"); v > 0 {
		cfg.CollectLimit = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	p := newPipeline(st)

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Collecting %s products from %s...", categoryLabel(), cfg.Source))
	ctx = platform.WithProgress(ctx, spin.Update)
	sum, err := p.Run(ctx, cfg.Category)
	spin.Stop()

	if format, _ := cmd.Flags().GetString("format"); format == "json" {
		if perr := printJSON(os.Stdout, sum); perr != nil {
			return perr
		}
		return err
	}
	fmt.Fprintf(os.Stdout, "Run %s: %d collected, %d analyzed, %d selected, %d published\n\n",
		sum.RunID, sum.Collected, sum.Analyzed, sum.Selected, sum.Published)
	printAnalyzedTable(os.Stdout, sum.Top)
	return err
}

func categoryLabel() string {
	if cfg.Category == "" {
		return "all"
	}
	return cfg.Category
}
