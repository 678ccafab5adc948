// Package config defines the top-level configuration for riftcast and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by RIFTCAST_* environment
// variables.
type Config struct {
	Twitch   TwitchConfig   `toml:"twitch"`
	Riot     RiotConfig     `toml:"riot"`
	Tracker  TrackerConfig  `toml:"tracker"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// TwitchConfig holds Twitch application credentials and API endpoints.
type TwitchConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	HelixURL     string `toml:"helix_url"`
	OAuthURL     string `toml:"oauth_url"`

	// TokenSecret, when set, encrypts stored refresh tokens at rest.
	TokenSecret string `toml:"token_secret"`
}

// RiotConfig holds Riot Games API credentials and per-region endpoints.
type RiotConfig struct {
	APIKey string `toml:"api_key"`

	// PlatformURL serves platform-routed endpoints (spectator), e.g.
	// "https://na1.api.riotgames.com".
	PlatformURL string `toml:"platform_url"`

	// RegionalURL serves regionally-routed endpoints (account, match
	// history), e.g. "https://americas.api.riotgames.com".
	RegionalURL string `toml:"regional_url"`

	Region string `toml:"region"`

	// RateLimitPerSecond caps outgoing Riot API calls when Redis is
	// available. Zero disables the limiter.
	RateLimitPerSecond int `toml:"rate_limit_per_second"`
}

// TrackerConfig holds poll-loop and tracker-store parameters.
type TrackerConfig struct {
	// PollInterval is the delay between poll cycles.
	PollInterval duration `toml:"poll_interval"`

	// Probe selects the game-status probe implementation: "live" or
	// "simulated".
	Probe string `toml:"probe"`

	// Store selects where tracker entries live: "memory" (lost on restart)
	// or "redis" (survives restarts).
	Store string `toml:"store"`

	// Concurrency bounds how many accounts are processed in parallel within
	// one cycle.
	Concurrency int `toml:"concurrency"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig holds cold-storage archival parameters for settled
// predictions.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Port    int    `toml:"port"`
	APIKey  string `toml:"api_key"`

	// RateLimitPerMinute caps requests per client IP when Redis is
	// available. Zero disables the limiter.
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`

	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "60s", "5m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "60s" or "5m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Twitch: TwitchConfig{
			HelixURL: "https://api.twitch.tv/helix",
			OAuthURL: "https://id.twitch.tv/oauth2",
		},
		Riot: RiotConfig{
			PlatformURL:        "https://na1.api.riotgames.com",
			RegionalURL:        "https://americas.api.riotgames.com",
			Region:             "na1",
			RateLimitPerSecond: 20,
		},
		Tracker: TrackerConfig{
			PollInterval: duration{60 * time.Second},
			Probe:        "live",
			Store:        "memory",
			Concurrency:  8,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "riftcast",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "riftcast-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:            true,
			Port:               8000,
			RateLimitPerMinute: 120,
			CORSOrigins:        []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"prediction_created", "prediction_resolved", "ambiguous_resolution", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"poll":   true,
	"server": true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: poll, server, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Twitch credentials are needed in every mode: the poll loop drives the
	// predictions API and the server exposes the OAuth flow.
	if c.Twitch.ClientID == "" {
		errs = append(errs, "twitch: client_id must not be empty")
	}
	if c.Twitch.ClientSecret == "" {
		errs = append(errs, "twitch: client_secret must not be empty")
	}
	if c.Twitch.HelixURL == "" {
		errs = append(errs, "twitch: helix_url must not be empty")
	}
	if c.Twitch.OAuthURL == "" {
		errs = append(errs, "twitch: oauth_url must not be empty")
	}

	// Riot credentials are only needed when the live probe is selected.
	if strings.ToLower(c.Tracker.Probe) == "live" {
		if c.Riot.APIKey == "" {
			errs = append(errs, "riot: api_key is required when tracker.probe is \"live\"")
		}
		if c.Riot.PlatformURL == "" {
			errs = append(errs, "riot: platform_url must not be empty")
		}
		if c.Riot.RegionalURL == "" {
			errs = append(errs, "riot: regional_url must not be empty")
		}
	}

	switch strings.ToLower(c.Tracker.Probe) {
	case "live", "simulated":
	default:
		errs = append(errs, fmt.Sprintf("tracker: unknown probe %q (valid: live, simulated)", c.Tracker.Probe))
	}
	switch strings.ToLower(c.Tracker.Store) {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("tracker: unknown store %q (valid: memory, redis)", c.Tracker.Store))
	}
	if c.Tracker.PollInterval.Duration <= 0 {
		errs = append(errs, "tracker: poll_interval must be positive")
	}
	if c.Tracker.Concurrency < 1 {
		errs = append(errs, "tracker: concurrency must be >= 1")
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	needsRedis := strings.ToLower(c.Tracker.Store) == "redis" ||
		c.Riot.RateLimitPerSecond > 0 ||
		(c.Server.Enabled && c.Server.RateLimitPerMinute > 0)
	if needsRedis && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be positive")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
