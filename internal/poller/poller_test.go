package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/riftcast/riftcast/internal/domain"
)

type fakeLister struct {
	autoCreate  []domain.Account
	autoResolve []domain.Account
	err         error
}

func (f *fakeLister) ListAutoCreate(context.Context) ([]domain.Account, error) {
	return f.autoCreate, f.err
}

func (f *fakeLister) ListAutoResolve(context.Context) ([]domain.Account, error) {
	return f.autoResolve, f.err
}

type fakeProcessor struct {
	mu        sync.Mutex
	processed []string
	failFor   map[string]error
	block     chan struct{} // when set, Process waits until closed
}

func (f *fakeProcessor) Process(_ context.Context, acc domain.Account) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.processed = append(f.processed, acc.SummonerName)
	f.mu.Unlock()
	if err, ok := f.failFor[acc.SummonerName]; ok {
		return err
	}
	return nil
}

func (f *fakeProcessor) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.processed...)
}

type fakeAnnouncer struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeAnnouncer) Announce(_ context.Context, event, _, _ string) {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func account(name string) domain.Account {
	return domain.Account{ID: uuid.New(), UserID: "u-" + name, SummonerName: name}
}

func TestRunOnceProcessesEveryAccount(t *testing.T) {
	a, b, c := account("a"), account("b"), account("c")
	lister := &fakeLister{autoCreate: []domain.Account{a, b}, autoResolve: []domain.Account{c}}
	proc := &fakeProcessor{}
	p := New(lister, proc, time.Minute, 4, testLogger())

	if err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if got := proc.names(); len(got) != 3 {
		t.Errorf("processed %v, want all 3 accounts", got)
	}
}

func TestRunOnceDeduplicatesAccounts(t *testing.T) {
	a := account("a")
	b := account("b")
	lister := &fakeLister{
		autoCreate:  []domain.Account{a, b},
		autoResolve: []domain.Account{a}, // enabled for both automations
	}
	proc := &fakeProcessor{}
	p := New(lister, proc, time.Minute, 4, testLogger())

	if err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if got := proc.names(); len(got) != 2 {
		t.Errorf("processed %v, want each account exactly once", got)
	}
}

func TestRunOnceIsolatesAccountFailures(t *testing.T) {
	a, b := account("a"), account("b")
	lister := &fakeLister{autoCreate: []domain.Account{a, b}}
	proc := &fakeProcessor{failFor: map[string]error{"a": errors.New("riot 503")}}
	p := New(lister, proc, time.Minute, 1, testLogger())

	if err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v, account failures must not fail the cycle", err)
	}
	if got := proc.names(); len(got) != 2 {
		t.Errorf("processed %v, want the failing account not to block the other", got)
	}
}

func TestRunOnceAnnouncesAccountFailures(t *testing.T) {
	a, b := account("a"), account("b")
	lister := &fakeLister{autoCreate: []domain.Account{a, b}}
	proc := &fakeProcessor{failFor: map[string]error{"a": errors.New("riot 503")}}
	sink := &fakeAnnouncer{}
	p := New(lister, proc, time.Minute, 1, testLogger()).WithAnnouncer(sink)

	if err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(sink.events) != 1 || sink.events[0] != "error" {
		t.Errorf("announced %v, want one error event for the failing account", sink.events)
	}
}

func TestRunOnceFailsWhenListingFails(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	p := New(lister, &fakeProcessor{}, time.Minute, 1, testLogger())

	if err := p.RunOnce(context.Background()); err == nil {
		t.Fatal("RunOnce() error = nil, want listing failure surfaced")
	}
}

func TestRunOnceRejectsOverlappingCycles(t *testing.T) {
	a := account("a")
	block := make(chan struct{})
	lister := &fakeLister{autoCreate: []domain.Account{a}}
	proc := &fakeProcessor{block: block}
	p := New(lister, proc, time.Minute, 1, testLogger())

	done := make(chan error, 1)
	go func() { done <- p.RunOnce(context.Background()) }()

	// Wait for the first cycle to be inside Process.
	deadline := time.After(2 * time.Second)
	for {
		if !p.cycleMu.TryLock() {
			break
		}
		p.cycleMu.Unlock()
		select {
		case <-deadline:
			t.Fatal("first cycle never started")
		case <-time.After(time.Millisecond):
		}
	}

	if err := p.RunOnce(context.Background()); !errors.Is(err, domain.ErrCycleInProgress) {
		t.Errorf("concurrent RunOnce() error = %v, want ErrCycleInProgress", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Errorf("first RunOnce() error = %v", err)
	}
}
