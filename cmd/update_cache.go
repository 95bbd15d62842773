package cmd

import (
	"fmt"
	"sort"

	"github.com/Wisionflow/algora/config"
	"github.com/Wisionflow/algora/internal/alibaba"
	"github.com/Wisionflow/algora/internal/pipeline"
	"github.com/spf13/cobra"
)

var updateCacheCmd = &cobra.Command{
	Use:   "update-cache [category...]",
	Short: "Refresh the product cache file from live 1688 collection",
	Long: "Collects products for each category (all known categories when none are given),\n" +
		"fills missing Wildberries price hints and rewrites the cache file.",
	RunE: runUpdateCache,
}

func init() {
	updateCacheCmd.Flags().Int("per-category", 15, "Products to collect per category")
	updateCacheCmd.Flags().Bool("no-prices", false, "Skip Wildberries price hints")
	rootCmd.AddCommand(updateCacheCmd)
}

func runUpdateCache(cmd *cobra.Command, args []string) error {
	perCategory, _ := cmd.Flags().GetInt("per-category")
	noPrices, _ := cmd.Flags().GetBool("no-prices")

	categories := args
	if len(categories) == 0 {
		for c := range alibaba.CategoryKeywords {
			categories = append(categories, c)
		}
		sort.Strings(categories)
	}

	cfg.Source = config.SourceLive
	live, err := newLiveCollector()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	r := &pipeline.Refresher{
		Collector:   live,
		Path:        cfg.CacheFile,
		Concurrency: cfg.MaxConcurrent,
		Logger:      logger,
	}
	if !noPrices {
		r.Market = newMarketClient()
	}
	products, err := r.Refresh(ctx, categories, perCategory)
	if err != nil {
		return err
	}
	fmt.Printf("Cache %s updated with %d products across %d categories.\n", cfg.CacheFile, len(products), len(categories))
	return nil
}
