package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/varoOP/scrycache/internal/ratelimit"
	"github.com/varoOP/scrycache/internal/scryfall"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.ServerURL != scryfall.DefaultServerURL {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.CacheDir != DefaultCacheDir {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %s", cfg.HTTPTimeout)
	}
	if got := RateLimit(cfg); got != ratelimit.DefaultConfig() {
		t.Errorf("RateLimit = %+v, want %+v", got, ratelimit.DefaultConfig())
	}
	if cfg.LogLevel != "info" || !cfg.Index {
		t.Errorf("LogLevel = %q, Index = %v", cfg.LogLevel, cfg.Index)
	}
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("server_url", "http://localhost:8080/")
	v.Set("cache_dir", " /tmp/cards ")
	v.Set("burst_size", 0)
	v.Set("request_delay", "250ms")
	v.Set("log_level", "DEBUG")
	v.Set("index", false)

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.CacheDir != "/tmp/cards" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.BurstSize != 0 || cfg.RequestDelay != 250*time.Millisecond {
		t.Errorf("BurstSize = %d, RequestDelay = %s", cfg.BurstSize, cfg.RequestDelay)
	}
	if cfg.LogLevel != "debug" || cfg.Index {
		t.Errorf("LogLevel = %q, Index = %v", cfg.LogLevel, cfg.Index)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"bad scheme", "server_url", "ftp://example.com", "server_url"},
		{"no host", "server_url", "https://", "server_url"},
		{"empty cache", "cache_dir", "  ", "cache_dir"},
		{"zero timeout", "http_timeout", "0s", "http_timeout"},
		{"negative burst", "burst_size", -1, "burst_size"},
		{"negative delay", "request_delay", "-1s", "request_delay"},
		{"bad level", "log_level", "loud", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := LoadFrom(v)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}
