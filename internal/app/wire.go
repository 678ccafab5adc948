package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	s3blob "github.com/riftcast/riftcast/internal/blob/s3"
	"github.com/riftcast/riftcast/internal/cache/redis"
	"github.com/riftcast/riftcast/internal/config"
	"github.com/riftcast/riftcast/internal/crypto"
	"github.com/riftcast/riftcast/internal/domain"
	"github.com/riftcast/riftcast/internal/notify"
	"github.com/riftcast/riftcast/internal/platform/riot"
	"github.com/riftcast/riftcast/internal/platform/twitch"
	"github.com/riftcast/riftcast/internal/poller"
	"github.com/riftcast/riftcast/internal/probe"
	"github.com/riftcast/riftcast/internal/service"
	"github.com/riftcast/riftcast/internal/store/postgres"
	"github.com/riftcast/riftcast/internal/tracker"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	AccountStore    domain.AccountStore
	PredictionStore domain.PredictionStore
	TemplateStore   domain.TemplateStore
	TokenStore      domain.TokenStore
	SessionStore    domain.SessionStore

	// TrackerStore holds per-account tracking state; backed by memory or
	// Redis depending on configuration.
	TrackerStore domain.TrackerStore

	// RateLimiter is nil when Redis is not configured.
	RateLimiter domain.RateLimiter

	// Services
	TokenService      *service.TokenService
	PredictionService *service.PredictionService
	AccountService    *service.AccountService
	TemplateService   *service.TemplateService
	SessionService    *service.SessionService

	// Tracker and poll loop
	Tracker *tracker.Tracker
	Poller  *poller.Poller

	// Archiver is nil unless archival is enabled.
	Archiver *s3blob.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// needsRedis returns true when any configured feature depends on Redis.
func needsRedis(cfg *config.Config) bool {
	return strings.ToLower(cfg.Tracker.Store) == "redis" ||
		cfg.Riot.RateLimitPerSecond > 0 ||
		(cfg.Server.Enabled && cfg.Server.RateLimitPerMinute > 0) ||
		cfg.Archive.Enabled
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	var cipher *crypto.TokenCipher
	if cfg.Twitch.TokenSecret != "" {
		cipher, err = crypto.NewTokenCipher(cfg.Twitch.TokenSecret)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: token cipher: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.AccountStore = postgres.NewAccountStore(pool)
	deps.PredictionStore = postgres.NewPredictionStore(pool)
	deps.TemplateStore = postgres.NewTemplateStore(pool)
	deps.TokenStore = postgres.NewTokenStore(pool, cipher)
	deps.SessionStore = postgres.NewSessionStore(pool)

	// --- Redis (only when a configured feature depends on it) ---
	var redisClient *redis.Client
	if needsRedis(cfg) {
		redisClient, err = redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	switch strings.ToLower(cfg.Tracker.Store) {
	case "redis":
		deps.TrackerStore = redis.NewTrackerStore(redisClient)
	default:
		deps.TrackerStore = tracker.NewMemoryStore()
	}

	// --- Platform clients ---
	helix := twitch.NewClient(cfg.Twitch.HelixURL, cfg.Twitch.ClientID)
	auth := twitch.NewAuthClient(cfg.Twitch.OAuthURL, cfg.Twitch.ClientID, cfg.Twitch.ClientSecret, cfg.Twitch.RedirectURI)

	riotClient := riot.NewClient(cfg.Riot.PlatformURL, cfg.Riot.RegionalURL, cfg.Riot.APIKey)
	if deps.RateLimiter != nil && cfg.Riot.RateLimitPerSecond > 0 {
		riotClient = riotClient.WithRateLimiter(deps.RateLimiter, cfg.Riot.RateLimitPerSecond)
	}

	// --- Services ---
	deps.TokenService = service.NewTokenService(deps.TokenStore, auth, helix, logger)
	deps.PredictionService = service.NewPredictionService(helix, deps.TokenService, deps.PredictionStore, logger)
	deps.AccountService = service.NewAccountService(deps.AccountStore, deps.TrackerStore, riotClient, logger)
	deps.TemplateService = service.NewTemplateService(deps.TemplateStore, logger)
	deps.SessionService = service.NewSessionService(deps.SessionStore, deps.PredictionStore, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Tracker and poll loop ---
	var gameProbe tracker.Probe
	switch strings.ToLower(cfg.Tracker.Probe) {
	case "simulated":
		gameProbe = probe.NewSimulated()
	default:
		gameProbe = probe.NewLive(riotClient)
	}

	deps.Tracker = tracker.New(
		deps.TrackerStore,
		gameProbe,
		deps.PredictionService,
		deps.TemplateStore,
		deps.AccountStore,
		logger,
	).WithAnnouncer(deps.Notifier)

	deps.Poller = poller.New(
		deps.AccountStore,
		deps.Tracker,
		cfg.Tracker.PollInterval.Duration,
		cfg.Tracker.Concurrency,
		logger,
	).WithAnnouncer(deps.Notifier)

	// --- S3 blob storage + archiver ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		var lock s3blob.Locker
		if redisClient != nil {
			lock = redis.NewLock(redisClient)
		}
		retention := time.Duration(cfg.Archive.RetentionDays) * 24 * time.Hour
		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client),
			deps.PredictionStore,
			lock,
			retention,
			cfg.Archive.Interval.Duration,
			logger,
		)
	}

	return deps, cleanup, nil
}
