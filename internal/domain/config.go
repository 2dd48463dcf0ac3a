package domain

import "time"

type Config struct {
	ServerURL         string        `toml:"server_url" mapstructure:"server_url"`
	CacheDir          string        `toml:"cache_dir" mapstructure:"cache_dir"`
	UserAgent         string        `toml:"user_agent" mapstructure:"user_agent"`
	HTTPTimeout       time.Duration `toml:"http_timeout" mapstructure:"http_timeout"`
	BurstSize         int           `toml:"burst_size" mapstructure:"burst_size"`
	RequestDelay      time.Duration `toml:"request_delay" mapstructure:"request_delay"`
	BurstDelay        time.Duration `toml:"burst_delay" mapstructure:"burst_delay"`
	DiscordWebhookURL string        `toml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
	LogLevel          string        `toml:"log_level" mapstructure:"log_level"`

	// Index enables the SQLite mirror of the cache directory.
	Index bool `toml:"index" mapstructure:"index"`
}
