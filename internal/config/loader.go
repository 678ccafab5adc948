package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies RIFTCAST_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known RIFTCAST_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Twitch ──
	setStr(&cfg.Twitch.ClientID, "RIFTCAST_TWITCH_CLIENT_ID")
	setStr(&cfg.Twitch.ClientSecret, "RIFTCAST_TWITCH_CLIENT_SECRET")
	setStr(&cfg.Twitch.RedirectURI, "RIFTCAST_TWITCH_REDIRECT_URI")
	setStr(&cfg.Twitch.HelixURL, "RIFTCAST_TWITCH_HELIX_URL")
	setStr(&cfg.Twitch.OAuthURL, "RIFTCAST_TWITCH_OAUTH_URL")
	setStr(&cfg.Twitch.TokenSecret, "RIFTCAST_TWITCH_TOKEN_SECRET")

	// ── Riot ──
	setStr(&cfg.Riot.APIKey, "RIFTCAST_RIOT_API_KEY")
	setStr(&cfg.Riot.PlatformURL, "RIFTCAST_RIOT_PLATFORM_URL")
	setStr(&cfg.Riot.RegionalURL, "RIFTCAST_RIOT_REGIONAL_URL")
	setStr(&cfg.Riot.Region, "RIFTCAST_RIOT_REGION")
	setInt(&cfg.Riot.RateLimitPerSecond, "RIFTCAST_RIOT_RATE_LIMIT_PER_SECOND")

	// ── Tracker ──
	setDuration(&cfg.Tracker.PollInterval, "RIFTCAST_TRACKER_POLL_INTERVAL")
	setStr(&cfg.Tracker.Probe, "RIFTCAST_TRACKER_PROBE")
	setStr(&cfg.Tracker.Store, "RIFTCAST_TRACKER_STORE")
	setInt(&cfg.Tracker.Concurrency, "RIFTCAST_TRACKER_CONCURRENCY")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "RIFTCAST_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "RIFTCAST_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "RIFTCAST_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "RIFTCAST_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "RIFTCAST_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "RIFTCAST_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "RIFTCAST_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "RIFTCAST_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "RIFTCAST_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "RIFTCAST_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "RIFTCAST_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "RIFTCAST_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "RIFTCAST_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "RIFTCAST_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "RIFTCAST_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "RIFTCAST_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "RIFTCAST_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "RIFTCAST_S3_REGION")
	setStr(&cfg.S3.Bucket, "RIFTCAST_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "RIFTCAST_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "RIFTCAST_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "RIFTCAST_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "RIFTCAST_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "RIFTCAST_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "RIFTCAST_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "RIFTCAST_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "RIFTCAST_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "RIFTCAST_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "RIFTCAST_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimitPerMinute, "RIFTCAST_SERVER_RATE_LIMIT_PER_MINUTE")
	setStringSlice(&cfg.Server.CORSOrigins, "RIFTCAST_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "RIFTCAST_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "RIFTCAST_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "RIFTCAST_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "RIFTCAST_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "RIFTCAST_MODE")
	setStr(&cfg.LogLevel, "RIFTCAST_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
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

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
