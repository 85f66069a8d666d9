// Package config handles configuration loading for the one-pager service.
// It supports YAML config files, .env files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ONEPAGER_SERVER_PORT.
const EnvPrefix = "ONEPAGER"

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Search  SearchConfig  `mapstructure:"search"  yaml:"search"`
	Data    DataConfig    `mapstructure:"data"    yaml:"data"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP/WebSocket server settings.
type ServerConfig struct {
	Host              string   `mapstructure:"host"                yaml:"host"`
	Port              int      `mapstructure:"port"                yaml:"port"`
	CORSOrigins       []string `mapstructure:"cors_origins"        yaml:"cors_origins"`
	RequestTimeoutSec int      `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// SearchConfig tunes the incremental catalog search.
type SearchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	TimeoutMS  int `mapstructure:"timeout_ms"  yaml:"timeout_ms"`
	MaxResults int `mapstructure:"max_results" yaml:"max_results"` // 0 = unlimited
}

// Debounce returns the debounce window as a duration.
func (s SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// Timeout returns the per-lookup timeout as a duration.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// DataConfig selects where company records come from.
type DataConfig struct {
	FixturesPath string `mapstructure:"fixtures_path" yaml:"fixtures_path"` // empty = built-in sample dataset
	Catalog      string `mapstructure:"catalog"       yaml:"catalog"`       // "static" or "sqlite"
	SQLitePath   string `mapstructure:"sqlite_path"   yaml:"sqlite_path"`
	CacheTTL     int    `mapstructure:"cache_ttl"     yaml:"cache_ttl"`    // seconds
	LoadTimeout  int    `mapstructure:"load_timeout"  yaml:"load_timeout"` // seconds
}

// NewsConfig selects and tunes the news collaborator.
type NewsConfig struct {
	Provider     string   `mapstructure:"provider"      yaml:"provider"` // "fixture", "rss" or "alpaca"
	Feeds        []string `mapstructure:"feeds"         yaml:"feeds"`
	RateLimit    float64  `mapstructure:"rate_limit"    yaml:"rate_limit"` // requests per second
	Limit        int      `mapstructure:"limit"         yaml:"limit"`
	LookbackDays int      `mapstructure:"lookback_days" yaml:"lookback_days"`
	AlpacaKey    string   `mapstructure:"alpaca_key"    yaml:"alpaca_key"`
	AlpacaSecret string   `mapstructure:"alpaca_secret" yaml:"alpaca_secret"`
}

// ReportConfig holds export settings.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // "text" or "html"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.onepager/config.yaml (home directory)
//  3. /etc/onepager/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: ONEPAGER_<SECTION>_<KEY>, e.g., ONEPAGER_NEWS_ALPACA_KEY
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".onepager"))
	v.AddConfigPath("/etc/onepager")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Search.DebounceMS < 0 || c.Search.TimeoutMS < 0 || c.Search.MaxResults < 0 {
		return fmt.Errorf("search settings must not be negative")
	}
	switch c.Data.Catalog {
	case "static", "sqlite":
	default:
		return fmt.Errorf("data.catalog %q: want static or sqlite", c.Data.Catalog)
	}
	switch c.News.Provider {
	case "fixture", "rss", "alpaca":
	default:
		return fmt.Errorf("news.provider %q: want fixture, rss or alpaca", c.News.Provider)
	}
	switch c.Report.Format {
	case "text", "html":
	default:
		return fmt.Errorf("report.format %q: want text or html", c.Report.Format)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.request_timeout_sec", 30)

	// Search defaults
	v.SetDefault("search.debounce_ms", 150)
	v.SetDefault("search.timeout_ms", 5000)
	v.SetDefault("search.max_results", 10)

	// Data defaults
	v.SetDefault("data.fixtures_path", "")
	v.SetDefault("data.catalog", "static")
	v.SetDefault("data.sqlite_path", filepath.Join(homeDir(), ".onepager", "catalog.db"))
	v.SetDefault("data.cache_ttl", 300) // 5 minutes
	v.SetDefault("data.load_timeout", 30)

	// News defaults
	v.SetDefault("news.provider", "fixture")
	v.SetDefault("news.feeds", []string{
		"https://feeds.a.dj.com/rss/RSSMarketsMain.xml",
		"https://www.cnbc.com/id/100003114/device/rss/rss.html",
	})
	v.SetDefault("news.rate_limit", 2.0)
	v.SetDefault("news.limit", 20)
	v.SetDefault("news.lookback_days", 7)

	// Report defaults
	v.SetDefault("report.format", "text")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// The unprefixed APCA_* names match the ones the Alpaca SDK documents.
func overrideFromEnv(cfg *Config) {
	if key := firstEnv(EnvPrefix+"_NEWS_ALPACA_KEY", "APCA_API_KEY_ID"); key != "" {
		cfg.News.AlpacaKey = key
	}
	if secret := firstEnv(EnvPrefix+"_NEWS_ALPACA_SECRET", "APCA_API_SECRET_KEY"); secret != "" {
		cfg.News.AlpacaSecret = secret
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// loadDotEnv loads ./.env when present. Existing environment variables win.
func loadDotEnv() {
	_ = godotenv.Load()
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
