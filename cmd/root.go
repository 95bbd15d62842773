package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Wisionflow/algora/config"
	"github.com/Wisionflow/algora/internal/alibaba"
	"github.com/Wisionflow/algora/internal/demo"
	"github.com/Wisionflow/algora/internal/filecache"
	"github.com/Wisionflow/algora/internal/fx"
	"github.com/Wisionflow/algora/internal/httputil"
	"github.com/Wisionflow/algora/internal/insight"
	"github.com/Wisionflow/algora/internal/logging"
	"github.com/Wisionflow/algora/internal/pipeline"
	"github.com/Wisionflow/algora/internal/platform"
	"github.com/Wisionflow/algora/internal/publish"
	"github.com/Wisionflow/algora/internal/scoring"
	"github.com/Wisionflow/algora/internal/stealth"
	"github.com/Wisionflow/algora/internal/store"
	"github.com/Wisionflow/algora/internal/translate"
	"github.com/Wisionflow/algora/internal/wb"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "algora",
	Short: "Algora - 1688 product discovery and marketing bot",
	Long: "Collects trending products from 1688, prices them against Wildberries,\n" +
		"scores margin and demand, and publishes the best finds to Telegram and VK.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("source", "", "Product source: live, cache, demo")
	pf.String("category", "", "Product category (default: all)")
	pf.Bool("dry-run", false, "Compose posts without publishing")
	pf.String("db", "", "Database DSN (sqlite path or postgres URL)")
	pf.String("db-driver", "", "Database driver: sqlite, pgx")
	pf.String("delay-profile", "", "Delay profile: cautious, normal, aggressive, off")
	pf.Bool("respect-robots", true, "Respect robots.txt rules")
	pf.String("proxy-file", "", "Path to proxy list file")
	pf.Bool("headless", false, "Allow the headless browser strategy for 1688")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text, json")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	pf := rootCmd.PersistentFlags()
	if v, _ := pf.GetString("source"); v != "" {
		cfg.Source = v
	}
	if v, _ := pf.GetString("category"); v != "" {
		cfg.Category = v
	}
	if v, _ := pf.GetBool("dry-run"); v {
		cfg.DryRun = true
	}
	if v, _ := pf.GetString("db"); v != "" {
		cfg.DBDSN = v
	}
	if v, _ := pf.GetString("db-driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := pf.GetString("delay-profile"); v != "" {
		cfg.DelayProfile = v
	}
	if v, _ := pf.GetBool("respect-robots"); !v {
		cfg.RespectRobots = false
	}
	if v, _ := pf.GetString("proxy-file"); v != "" {
		cfg.ProxyFile = v
	}
	if v, _ := pf.GetBool("headless"); v {
		cfg.Headless = true
	}
	if v, _ := pf.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := pf.GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
}

func setupLogger() error {
	l, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	logger = l
	slog.SetDefault(l)
	if err != nil {
		logger.Warn("falling back to info level", "err", err)
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildScrapeClient returns the stealth-wrapped client used for 1688 pages.
func buildScrapeClient() (*http.Client, error) {
	profile, err := stealth.ParseDelayProfile(cfg.DelayProfile)
	if err != nil {
		return nil, err
	}
	t, err := stealth.NewTransport(stealth.Options{
		RespectRobots: cfg.RespectRobots,
		Profile:       profile,
		RatePerSecond: cfg.RatePerSecond,
		RateBurst:     cfg.RateBurst,
		ProxyFile:     cfg.ProxyFile,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	return httputil.NewHTTPClientWithTimeout(t, 45*time.Second), nil
}

// newLiveCollector builds the 1688 collector.
func newLiveCollector() (*alibaba.Collector, error) {
	scrape, err := buildScrapeClient()
	if err != nil {
		return nil, err
	}
	return alibaba.NewCollector(alibaba.Options{
		ScrapeClient: scrape,
		APIClient:    httputil.NewHTTPClientWithTimeout(nil, 4*time.Minute),
		ApifyToken:   cfg.ApifyToken,
		ApifyActor:   cfg.ApifyActor,
		Headless:     cfg.Headless,
		Limiter:      scrapeLimiter(),
		Translator:   translate.NewGoogle(nil, 300*time.Millisecond, logger),
		Logger:       logger,
	}), nil
}

func scrapeLimiter() *rate.Limiter {
	if cfg.RatePerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(cfg.RateBurst, 1))
}

// initCollectors registers every product source. A live collector that
// cannot be built is logged and skipped so the chain still has cache and demo.
func initCollectors() {
	platform.Reset()
	platform.Register(config.SourceDemo, demo.NewCollector())
	platform.Register(config.SourceCache, filecache.NewCollector(cfg.CacheFile, logger))
	if cfg.Source == config.SourceLive {
		live, err := newLiveCollector()
		if err != nil {
			logger.Error("live collector unavailable", "err", err)
			return
		}
		platform.Register(config.SourceLive, live)
	}
}

func newMarketClient() *wb.Client {
	return wb.NewClient(nil, wb.Options{
		MinInterval: cfg.WBMinInterval,
		BackoffBase: cfg.WBBackoffBase,
		MaxAttempts: cfg.WBMaxAttempts,
		Timeout:     cfg.WBTimeout,
		Logger:      logger,
	})
}

func newRates() fx.RateProvider {
	if cfg.CNYRate > 0 {
		return fx.Fixed(cfg.CNYRate)
	}
	return fx.NewCBR(nil, cfg.CNYFallbackRate, logger)
}

func newEngine() *scoring.Engine {
	return scoring.NewEngine(
		scoring.CostModel{DeliveryPct: cfg.DeliveryPct, CustomsPct: cfg.CustomsPct},
		scoring.Weights{
			Trend:       cfg.TrendWeight,
			Competition: cfg.CompetitionWeight,
			Margin:      cfg.MarginWeight,
			Reliability: cfg.ReliabilityWeight,
		},
	)
}

func newInsight() *insight.Generator {
	return insight.New(insight.Options{
		APIKey: cfg.AnthropicAPIKey,
		Model:  cfg.AnthropicModel,
		Logger: logger,
	})
}

func newPublishers() []publish.Publisher {
	var pubs []publish.Publisher
	for _, p := range cfg.Platforms {
		if cfg.DryRun {
			pubs = append(pubs, publish.DryRun{Platform: p, Logger: logger})
			continue
		}
		switch p {
		case "telegram":
			pubs = append(pubs, publish.NewTelegram(cfg.TelegramToken, cfg.TelegramChannel, nil, logger))
		case "vk":
			pubs = append(pubs, publish.NewVK(cfg.VKToken, cfg.VKGroupID, nil))
		}
	}
	return pubs
}

func openStore(ctx context.Context) (*store.Store, error) {
	if cfg.DBDriver == store.DriverSQLite && cfg.DBDSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
}

// productPacer spaces out per-product marketplace lookups: a fixed second
// for offline sources, the configured profile for live collection.
func productPacer() pipeline.Pacer {
	if cfg.Source != config.SourceLive {
		return stealth.FixedDelay(time.Second)
	}
	profile, err := stealth.ParseDelayProfile(cfg.DelayProfile)
	if err != nil {
		profile = stealth.ProfileNormal
	}
	return stealth.NewHumanDelay(profile)
}

// newAnalyzer returns a pipeline that can only price and score products.
func newAnalyzer() *pipeline.Pipeline {
	p := &pipeline.Pipeline{
		Market: newMarketClient(),
		Rates:  newRates(),
		Engine: newEngine(),
		Logger: logger,
	}
	if gen := newInsight(); gen.Enabled() {
		p.Insight = gen
		p.Keywords = gen
	}
	return p
}

// newPipeline wires a full pipeline against st.
func newPipeline(st *store.Store) *pipeline.Pipeline {
	initCollectors()
	p := newAnalyzer()
	p.Collector = platform.ChainFor(cfg.Source, logger)
	p.Store = st
	p.Publishers = newPublishers()
	p.Composer = publish.Composer{HTML: true}
	p.CollectLimit = cfg.CollectLimit
	p.TopN = cfg.TopN
	p.RecentWindow = cfg.RecentWindow()
	p.DryRun = cfg.DryRun
	p.Pace = productPacer()
	p.PostPause = 3 * time.Second
	return p
}
