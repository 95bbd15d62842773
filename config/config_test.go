package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("ALGORA_SOURCE", "cache")
	t.Setenv("ALGORA_TOP_N", "5")
	t.Setenv("ALGORA_PLATFORMS", "telegram, vk")
	t.Setenv("ALGORA_WB_MIN_INTERVAL", "8s")
	t.Setenv("ALGORA_DELIVERY_PCT", "0.25")
	t.Setenv("ALGORA_DRY_RUN", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/algora")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	if cfg.Source != SourceCache {
		t.Errorf("Source = %q, want cache", cfg.Source)
	}
	if cfg.TopN != 5 {
		t.Errorf("TopN = %d, want 5", cfg.TopN)
	}
	if len(cfg.Platforms) != 2 || cfg.Platforms[1] != "vk" {
		t.Errorf("Platforms = %v", cfg.Platforms)
	}
	if cfg.WBMinInterval != 8*time.Second {
		t.Errorf("WBMinInterval = %v", cfg.WBMinInterval)
	}
	if cfg.DeliveryPct != 0.25 {
		t.Errorf("DeliveryPct = %v", cfg.DeliveryPct)
	}
	if !cfg.DryRun {
		t.Error("DryRun not set")
	}
	if cfg.DBDriver != "pgx" {
		t.Errorf("DBDriver = %q, want pgx", cfg.DBDriver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults dry run", func(c *Config) { c.DryRun = true }, false},
		{"unknown source", func(c *Config) { c.DryRun = true; c.Source = "ftp" }, true},
		{"weights off", func(c *Config) { c.DryRun = true; c.TrendWeight = 0.5 }, true},
		{"zero top n", func(c *Config) { c.DryRun = true; c.TopN = 0 }, true},
		{"zero recent window", func(c *Config) { c.DryRun = true; c.RecentWindowDays = 0 }, true},
		{"negative recent window", func(c *Config) { c.DryRun = true; c.RecentWindowDays = -1 }, true},
		{"telegram without token", func(c *Config) {}, true},
		{"telegram configured", func(c *Config) {
			c.TelegramToken = "t"
			c.TelegramChannel = "@chan"
		}, false},
		{"vk without group", func(c *Config) { c.Platforms = []string{"vk"}; c.VKToken = "x" }, true},
		{"bad driver", func(c *Config) { c.DryRun = true; c.DBDriver = "mysql" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}
