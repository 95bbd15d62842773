package cmd

import (
	"fmt"

	"github.com/Wisionflow/algora/internal/api"
	"github.com/spf13/cobra"
)

var serveAPICmd = &cobra.Command{
	Use:   "serve-api",
	Short: "Start the read-only JSON API over the product store",
	RunE:  runServeAPI,
}

func init() {
	serveAPICmd.Flags().String("port", "", "HTTP port (default from ALGORA_API_PORT or 8081)")
	serveAPICmd.Flags().Int("rpm", 60, "Requests per minute per client")
	rootCmd.AddCommand(serveAPICmd)
}

func runServeAPI(cmd *cobra.Command, args []string) error {
	port := cfg.APIPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	rpm, _ := cmd.Flags().GetInt("rpm")

	ctx, stop := signalContext()
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	app := api.New(st, api.Options{APIKey: cfg.APIKey, RequestsPerMinute: rpm, Logger: logger})
	go func() {
		<-ctx.Done()
		app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", port)
	logger.Info("api listening", "addr", addr, "auth", cfg.APIKey != "")
	return app.Listen(addr)
}
