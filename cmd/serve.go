package cmd

import (
	"fmt"

	"github.com/Wisionflow/algora/internal/store"
	mcpserver "github.com/Wisionflow/algora/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newTools wires the MCP tool dependencies against st.
func newTools(st *store.Store) *mcpserver.Tools {
	initCollectors()
	a := newAnalyzer()
	return &mcpserver.Tools{
		Source:   cfg.Source,
		Market:   a.Market,
		Rates:    a.Rates,
		Analyzer: a,
		Store:    st,
		Logger:   logger,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting Algora MCP server on stdio...")
	return mcpserver.Serve(newTools(st))
}
