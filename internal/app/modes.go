package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/riftcast/riftcast/internal/server"
	"github.com/riftcast/riftcast/internal/server/handler"
	"github.com/riftcast/riftcast/internal/server/ws"
	"github.com/riftcast/riftcast/internal/tracker"
)

// shutdownTimeout bounds how long in-flight HTTP requests may drain.
const shutdownTimeout = 5 * time.Second

// fanout broadcasts tracker events to several sinks.
type fanout []tracker.Announcer

func (f fanout) Announce(ctx context.Context, event, title, message string) {
	for _, a := range f {
		a.Announce(ctx, event, title, message)
	}
}

// PollMode runs the poll loop (and the archiver, when enabled) without the
// HTTP API.
func (a *App) PollMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting poll mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Poller.Run(ctx)
	})
	if deps.Archiver != nil {
		g.Go(func() error {
			return deps.Archiver.Run(ctx)
		})
	}

	return g.Wait()
}

// ServerMode runs the HTTP + WebSocket API without the scheduled poll loop.
// Poll cycles can still be triggered manually through the API.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the poll loop, the HTTP + WebSocket API, and the archiver.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps)
	}
	g.Go(func() error {
		return deps.Poller.Run(ctx)
	})
	if deps.Archiver != nil {
		g.Go(func() error {
			return deps.Archiver.Run(ctx)
		})
	}

	return g.Wait()
}

// startServer builds the handlers, hub, and HTTP server, launches them on the
// group, and fans tracker events out to the WebSocket hub alongside the
// configured notifiers.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(a.logger)
	deps.Tracker.WithAnnouncer(fanout{deps.Notifier, hub})

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(a.logger),
		Auth:        handler.NewAuthHandler(deps.TokenService, a.logger),
		Accounts:    handler.NewAccountHandler(deps.AccountService, a.logger),
		Templates:   handler.NewTemplateHandler(deps.TemplateService, a.logger),
		Predictions: handler.NewPredictionHandler(deps.PredictionService, a.logger),
		Sessions:    handler.NewSessionHandler(deps.SessionService, a.logger),
		Poller:      handler.NewPollerHandler(deps.Poller, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimiter:     deps.RateLimiter,
		RateLimit:       a.cfg.Server.RateLimitPerMinute,
		RateLimitWindow: time.Minute,
	}, handlers, hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		hub.Close()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
