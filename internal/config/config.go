package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/varoOP/scrycache/internal/domain"
	"github.com/varoOP/scrycache/internal/ratelimit"
	"github.com/varoOP/scrycache/internal/scryfall"
)

const (
	DefaultCacheDir    = "cache"
	DefaultHTTPTimeout = "30s"
	DefaultLogLevel    = "info"
)

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server_url", scryfall.DefaultServerURL)
	v.SetDefault("cache_dir", DefaultCacheDir)
	v.SetDefault("user_agent", scryfall.DefaultUserAgent)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("burst_size", ratelimit.DefaultBurstSize)
	v.SetDefault("request_delay", ratelimit.DefaultDelay.String())
	v.SetDefault("burst_delay", ratelimit.DefaultBurstDelay.String())
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("index", true)
}

// Load loads configuration from the global viper instance:
// 1. Command line flags bound by the CLI
// 2. Environment variables (SCRYCACHE_*)
// 3. Config file (config.yaml, optional)
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{
		ServerURL:         strings.TrimRight(strings.TrimSpace(v.GetString("server_url")), "/"),
		CacheDir:          strings.TrimSpace(v.GetString("cache_dir")),
		UserAgent:         strings.TrimSpace(v.GetString("user_agent")),
		HTTPTimeout:       v.GetDuration("http_timeout"),
		BurstSize:         v.GetInt("burst_size"),
		RequestDelay:      v.GetDuration("request_delay"),
		BurstDelay:        v.GetDuration("burst_delay"),
		DiscordWebhookURL: strings.TrimSpace(v.GetString("discord_webhook_url")),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		Index:             v.GetBool("index"),
	}

	u, err := url.Parse(cfg.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server_url: %q (must be an http or https url)", cfg.ServerURL)
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("cache_dir is required (set via config.yaml or SCRYCACHE_CACHE_DIR environment variable)")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("invalid http_timeout: %s (must be positive)", cfg.HTTPTimeout)
	}
	if cfg.BurstSize < 0 {
		return nil, fmt.Errorf("invalid burst_size: %d (must be 0 or more)", cfg.BurstSize)
	}
	if cfg.RequestDelay < 0 || cfg.BurstDelay < 0 {
		return nil, fmt.Errorf("request_delay and burst_delay must not be negative")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log_level: %s (must be 'trace', 'debug', 'info', 'warn' or 'error')", cfg.LogLevel)
	}

	return cfg, nil
}

// RateLimit returns the limiter settings held by cfg
func RateLimit(cfg *domain.Config) ratelimit.Config {
	return ratelimit.Config{
		BurstSize:  cfg.BurstSize,
		Delay:      cfg.RequestDelay,
		BurstDelay: cfg.BurstDelay,
	}
}
