package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/riftcast/riftcast/internal/domain"
)

// AccountLister yields the accounts that have tracking enabled.
type AccountLister interface {
	ListAutoCreate(ctx context.Context) ([]domain.Account, error)
	ListAutoResolve(ctx context.Context) ([]domain.Account, error)
}

// Processor advances one account through its tracking lifecycle.
type Processor interface {
	Process(ctx context.Context, acc domain.Account) error
}

// Announcer receives cycle-level failure events for operator channels.
// Implementations must not block.
type Announcer interface {
	Announce(ctx context.Context, event, title, message string)
}

type noopAnnouncer struct{}

func (noopAnnouncer) Announce(context.Context, string, string, string) {}

// Poller drives the tracker on a fixed interval. Cycles never overlap:
// if a cycle is still running when the next tick fires, the tick is
// skipped.
type Poller struct {
	accounts    AccountLister
	processor   Processor
	interval    time.Duration
	concurrency int
	announcer   Announcer
	logger      *slog.Logger

	cycleMu sync.Mutex
}

func New(accounts AccountLister, processor Processor, interval time.Duration, concurrency int, logger *slog.Logger) *Poller {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Poller{
		accounts:    accounts,
		processor:   processor,
		interval:    interval,
		concurrency: concurrency,
		announcer:   noopAnnouncer{},
		logger:      logger.With(slog.String("component", "poller")),
	}
}

// WithAnnouncer installs an event sink. Must be called before Run.
func (p *Poller) WithAnnouncer(a Announcer) *Poller {
	p.announcer = a
	return p
}

// Run polls until ctx is canceled. The first cycle starts immediately.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "poller started",
		slog.Duration("interval", p.interval),
		slog.Int("concurrency", p.concurrency))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// RunOnce triggers a single cycle outside the schedule. It reports
// domain.ErrCycleInProgress when a cycle is already running.
func (p *Poller) RunOnce(ctx context.Context) error {
	if !p.cycleMu.TryLock() {
		return domain.ErrCycleInProgress
	}
	defer p.cycleMu.Unlock()
	return p.cycle(ctx)
}

func (p *Poller) tick(ctx context.Context) {
	if !p.cycleMu.TryLock() {
		p.logger.WarnContext(ctx, "previous cycle still running, skipping tick")
		return
	}
	defer p.cycleMu.Unlock()

	started := time.Now()
	if err := p.cycle(ctx); err != nil {
		p.logger.ErrorContext(ctx, "poll cycle failed", slog.String("error", err.Error()))
		return
	}
	p.logger.DebugContext(ctx, "poll cycle finished",
		slog.Duration("took", time.Since(started)))
}

// cycle lists every account with either automation flag on, dedupes the
// two lists and fans processing out across workers. A failing account
// is logged and never blocks the others.
func (p *Poller) cycle(ctx context.Context) error {
	accounts, err := p.listTracked(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, acc := range accounts {
		g.Go(func() error {
			if err := p.processor.Process(gctx, acc); err != nil {
				p.logger.ErrorContext(gctx, "account processing failed",
					slog.String("account", acc.SummonerName),
					slog.String("user_id", acc.UserID),
					slog.String("error", err.Error()))
				p.announcer.Announce(gctx, "error",
					fmt.Sprintf("Tracking failed for %s", acc.SummonerName),
					err.Error())
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Poller) listTracked(ctx context.Context) ([]domain.Account, error) {
	creators, err := p.accounts.ListAutoCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("poller: list auto-create accounts: %w", err)
	}
	resolvers, err := p.accounts.ListAutoResolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("poller: list auto-resolve accounts: %w", err)
	}

	seen := make(map[string]struct{}, len(creators)+len(resolvers))
	merged := make([]domain.Account, 0, len(creators)+len(resolvers))
	for _, acc := range append(creators, resolvers...) {
		if _, dup := seen[acc.ID.String()]; dup {
			continue
		}
		seen[acc.ID.String()] = struct{}{}
		merged = append(merged, acc)
	}
	return merged, nil
}
