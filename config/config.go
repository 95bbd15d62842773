package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Data sources for product collection.
const (
	SourceLive  = "live"
	SourceDemo  = "demo"
	SourceCache = "cache"
)

// Config holds all application configuration.
type Config struct {
	// Pipeline
	Source           string // "live", "demo", "cache"
	Category         string
	CollectLimit     int
	TopN             int
	RecentWindowDays int
	Platforms        []string // "telegram", "vk"
	PostType         string
	DryRun           bool
	CacheFile        string
	ScheduleSpec     string

	// Cost model and scoring
	CNYRate           float64 // fixed override; 0 means fetch from CBR
	CNYFallbackRate   float64
	DeliveryPct       float64
	CustomsPct        float64
	TrendWeight       float64
	CompetitionWeight float64
	MarginWeight      float64
	ReliabilityWeight float64

	// WB market data
	WBMinInterval time.Duration
	WBBackoffBase time.Duration
	WBMaxAttempts int
	WBTimeout     time.Duration

	// Scraping
	RespectRobots bool
	DelayProfile  string // "cautious", "normal", "aggressive"
	RatePerSecond float64
	RateBurst     int
	MaxConcurrent int
	ProxyFile     string
	Headless      bool
	ApifyToken    string
	ApifyActor    string

	// Insight
	AnthropicAPIKey string
	AnthropicModel  string

	// Publishing
	TelegramToken   string
	TelegramChannel string
	VKToken         string
	VKGroupID       string

	// Storage
	DBDriver string // "sqlite" or "pgx"
	DBDSN    string

	// HTTP servers
	HTTPPort string
	APIPort  string
	APIKey   string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source:            SourceDemo,
		CollectLimit:      20,
		TopN:              2,
		RecentWindowDays:  14,
		Platforms:         []string{"telegram"},
		PostType:          "product",
		CacheFile:         "data/products_cache.json",
		ScheduleSpec:      "0 9,18 * * *",
		CNYFallbackRate:   12.5,
		DeliveryPct:       0.20,
		CustomsPct:        0.15,
		TrendWeight:       0.35,
		CompetitionWeight: 0.25,
		MarginWeight:      0.30,
		ReliabilityWeight: 0.10,
		WBMinInterval:     10 * time.Second,
		WBBackoffBase:     5 * time.Second,
		WBMaxAttempts:     3,
		WBTimeout:         15 * time.Second,
		RespectRobots:     true,
		DelayProfile:      "normal",
		RatePerSecond:     0.5,
		RateBurst:         1,
		MaxConcurrent:     3,
		ApifyActor:        "devcake~1688-com-products-scraper",
		AnthropicModel:    "claude-sonnet-4-5-20250929",
		DBDriver:          "sqlite",
		DBDSN:             "data/algora.db",
		HTTPPort:          "8080",
		APIPort:           "8081",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	_ = godotenv.Load()

	setString(&c.Source, "ALGORA_SOURCE")
	setString(&c.Category, "ALGORA_CATEGORY")
	setInt(&c.CollectLimit, "ALGORA_COLLECT_LIMIT")
	setInt(&c.TopN, "ALGORA_TOP_N")
	setInt(&c.RecentWindowDays, "ALGORA_RECENT_WINDOW_DAYS")
	if v := os.Getenv("ALGORA_PLATFORMS"); v != "" {
		c.Platforms = splitList(v)
	}
	setString(&c.PostType, "ALGORA_POST_TYPE")
	setBool(&c.DryRun, "ALGORA_DRY_RUN")
	setString(&c.CacheFile, "ALGORA_CACHE_FILE")
	setString(&c.ScheduleSpec, "ALGORA_SCHEDULE")

	setFloat(&c.CNYRate, "ALGORA_CNY_RATE")
	setFloat(&c.DeliveryPct, "ALGORA_DELIVERY_PCT")
	setFloat(&c.CustomsPct, "ALGORA_CUSTOMS_PCT")
	setFloat(&c.TrendWeight, "ALGORA_WEIGHT_TREND")
	setFloat(&c.CompetitionWeight, "ALGORA_WEIGHT_COMPETITION")
	setFloat(&c.MarginWeight, "ALGORA_WEIGHT_MARGIN")
	setFloat(&c.ReliabilityWeight, "ALGORA_WEIGHT_RELIABILITY")

	setDuration(&c.WBMinInterval, "ALGORA_WB_MIN_INTERVAL")
	setDuration(&c.WBBackoffBase, "ALGORA_WB_BACKOFF_BASE")
	setInt(&c.WBMaxAttempts, "ALGORA_WB_MAX_ATTEMPTS")

	setBool(&c.RespectRobots, "ALGORA_RESPECT_ROBOTS")
	setString(&c.DelayProfile, "ALGORA_DELAY_PROFILE")
	setFloat(&c.RatePerSecond, "ALGORA_RATE_PER_SECOND")
	setInt(&c.RateBurst, "ALGORA_RATE_BURST")
	setInt(&c.MaxConcurrent, "ALGORA_MAX_CONCURRENT")
	setString(&c.ProxyFile, "ALGORA_PROXIES")
	setBool(&c.Headless, "ALGORA_HEADLESS")
	setString(&c.ApifyToken, "APIFY_TOKEN")
	setString(&c.ApifyActor, "APIFY_ACTOR")

	setString(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&c.AnthropicModel, "ANTHROPIC_MODEL")

	setString(&c.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.TelegramChannel, "TELEGRAM_CHANNEL_ID")
	setString(&c.VKToken, "VK_TOKEN")
	setString(&c.VKGroupID, "VK_GROUP_ID")

	setString(&c.DBDriver, "ALGORA_DB_DRIVER")
	setString(&c.DBDSN, "ALGORA_DB_DSN")
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DBDriver = "pgx"
		c.DBDSN = v
	}

	setString(&c.HTTPPort, "PORT")
	setString(&c.APIPort, "ALGORA_API_PORT")
	setString(&c.APIKey, "ALGORA_API_KEY")

	setString(&c.LogLevel, "ALGORA_LOG_LEVEL")
	setString(&c.LogFormat, "ALGORA_LOG_FORMAT")
}

// Validate checks settings that would make a run meaningless.
// Missing credentials for optional capabilities (insight, apify) are not errors.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceLive, SourceDemo, SourceCache:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalid, c.Source)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("%w: top-n must be positive", ErrInvalid)
	}
	if c.RecentWindowDays <= 0 {
		return fmt.Errorf("%w: recent window must be at least one day", ErrInvalid)
	}
	if c.DeliveryPct < 0 || c.CustomsPct < 0 {
		return fmt.Errorf("%w: cost percentages must not be negative", ErrInvalid)
	}
	sum := c.TrendWeight + c.CompetitionWeight + c.MarginWeight + c.ReliabilityWeight
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: score weights sum to %.4f, want 1", ErrInvalid, sum)
	}
	switch c.DBDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("%w: unknown db driver %q", ErrInvalid, c.DBDriver)
	}
	if c.DryRun {
		return nil
	}
	for _, p := range c.Platforms {
		switch p {
		case "telegram":
			if c.TelegramToken == "" || c.TelegramChannel == "" {
				return fmt.Errorf("%w: telegram publishing needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHANNEL_ID", ErrInvalid)
			}
		case "vk":
			if c.VKToken == "" || c.VKGroupID == "" {
				return fmt.Errorf("%w: vk publishing needs VK_TOKEN and VK_GROUP_ID", ErrInvalid)
			}
		default:
			return fmt.Errorf("%w: unknown platform %q", ErrInvalid, p)
		}
	}
	return nil
}

// RecentWindow returns the recency dedup window as a duration.
func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.RecentWindowDays) * 24 * time.Hour
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
