package cmd

import (
	"fmt"
	"sort"

	"github.com/Wisionflow/algora/internal/alibaba"
	"github.com/Wisionflow/algora/internal/publish"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories and their 1688 search phrases",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	names := make([]string, 0, len(alibaba.CategoryKeywords))
	for c := range alibaba.CategoryKeywords {
		names = append(names, c)
	}
	sort.Strings(names)

	for i, c := range names {
		fmt.Printf(" %2d. %-18s %-22s %s\n", i+1, c, publish.CategoryNames[c], alibaba.Keyword(c))
	}
	return nil
}
