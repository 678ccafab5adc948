// Package notify fans tracker events out to operator channels (Telegram,
// Discord webhook), filtered by event type.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// announceTimeout bounds background delivery triggered by Announce.
const announceTimeout = 30 * time.Second

// Event names emitted by the tracker and poller.
const (
	EventPredictionCreated   = "prediction_created"
	EventPredictionResolved  = "prediction_resolved"
	EventAmbiguousResolution = "ambiguous_resolution"
	EventError               = "error"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier dispatches notifications to all senders. When an allow list of
// event types is configured, Notify drops everything outside it.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. An empty events slice allows every event.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the message when the event type passes the filter.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// dispatch sends to every sender; one failing sender never blocks the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// Announce adapts the notifier to the tracker's fire-and-forget event sink.
// Delivery runs in the background so a slow sender never stalls the
// caller. Failures are already logged by dispatch.
func (n *Notifier) Announce(ctx context.Context, event, title, message string) {
	bg := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(bg, announceTimeout)
		defer cancel()
		_ = n.Notify(ctx, event, title, message)
	}()
}
