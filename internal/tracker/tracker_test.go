package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/riftcast/riftcast/internal/domain"
)

type fakeProbe struct {
	live      domain.ProbeResult
	liveErr   error
	liveCalls int

	result    domain.MatchResult
	resultOK  bool
	resultErr error
	gotSince  time.Time
}

func (f *fakeProbe) LiveStatus(_ context.Context, _ domain.Account) (domain.ProbeResult, error) {
	f.liveCalls++
	return f.live, f.liveErr
}

func (f *fakeProbe) LatestResult(_ context.Context, _ domain.Account, since time.Time) (domain.MatchResult, bool, error) {
	f.gotSince = since
	return f.result, f.resultOK, f.resultErr
}

type createCall struct {
	title    string
	outcomes []string
	window   int
}

type fakePredictions struct {
	created    []createCall
	createErr  error
	prediction domain.Prediction
	getErr     error
	resolved   []string // winning outcome ids
}

func (f *fakePredictions) Create(_ context.Context, _ string, title string, outcomes []string, windowSeconds int) (domain.Prediction, error) {
	if f.createErr != nil {
		return domain.Prediction{}, f.createErr
	}
	f.created = append(f.created, createCall{title: title, outcomes: outcomes, window: windowSeconds})
	return domain.Prediction{ID: "pred-1", Title: title}, nil
}

func (f *fakePredictions) Get(_ context.Context, _ string, _ string) (domain.Prediction, error) {
	return f.prediction, f.getErr
}

func (f *fakePredictions) Resolve(_ context.Context, _ string, _ string, winningOutcomeID string) (domain.Prediction, error) {
	f.resolved = append(f.resolved, winningOutcomeID)
	return f.prediction, nil
}

type fakeTemplates struct {
	tpl domain.Template
	err error
}

func (f *fakeTemplates) GetByID(_ context.Context, _ uuid.UUID) (domain.Template, error) {
	return f.tpl, f.err
}

type fakeAccounts struct {
	lastCheck time.Time
	calls     int
	err       error
}

func (f *fakeAccounts) UpdateLastCheck(_ context.Context, _ uuid.UUID, t time.Time) error {
	f.calls++
	f.lastCheck = t
	return f.err
}

type announced struct {
	event, title string
}

type fakeAnnouncer struct {
	events []announced
}

func (f *fakeAnnouncer) Announce(_ context.Context, event, title, _ string) {
	f.events = append(f.events, announced{event: event, title: title})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAccount() domain.Account {
	return domain.Account{
		ID:           uuid.New(),
		UserID:       "12345",
		SummonerName: "Faker",
		PUUID:        "puuid-faker",
		Region:       "na1",
		AutoCreate:   true,
		AutoResolve:  true,
		Active:       true,
	}
}

func winLossPrediction() domain.Prediction {
	return domain.Prediction{
		ID:    "pred-1",
		Title: "Will Faker win their game?",
		Outcomes: []domain.Outcome{
			{ID: "out-win", Title: "Win"},
			{ID: "out-loss", Title: "Loss"},
		},
		Status: domain.PredictionActive,
	}
}

func TestProcessCreatesPredictionOnMatchEntry(t *testing.T) {
	store := NewMemoryStore()
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusInMatch, MatchID: "NA1_100"}}
	preds := &fakePredictions{}
	ann := &fakeAnnouncer{}
	tr := New(store, probe, preds, &fakeTemplates{}, &fakeAccounts{}, testLogger()).WithAnnouncer(ann)

	acc := testAccount()
	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(preds.created) != 1 {
		t.Fatalf("created %d predictions, want 1", len(preds.created))
	}
	call := preds.created[0]
	if call.title != "Will Faker win their game?" {
		t.Errorf("title = %q, want default with summoner name", call.title)
	}
	if len(call.outcomes) != 2 || call.outcomes[0] != "Win" || call.outcomes[1] != "Loss" {
		t.Errorf("outcomes = %v, want [Win Loss]", call.outcomes)
	}
	if call.window != 1800 {
		t.Errorf("window = %d, want 1800", call.window)
	}

	entry, err := store.Get(context.Background(), acc.Key())
	if err != nil {
		t.Fatalf("entry not stored: %v", err)
	}
	if entry.Phase != domain.PhaseInMatch {
		t.Errorf("phase = %v, want %v", entry.Phase, domain.PhaseInMatch)
	}
	if entry.MatchID != "NA1_100" || entry.PredictionID != "pred-1" {
		t.Errorf("entry = %+v, want match NA1_100 and prediction pred-1", entry)
	}

	if len(ann.events) != 1 || ann.events[0].event != "prediction_created" {
		t.Errorf("announced %v, want one prediction_created event", ann.events)
	}
}

func TestProcessUsesActiveTemplate(t *testing.T) {
	tplID := uuid.New()
	templates := &fakeTemplates{tpl: domain.Template{
		ID:              tplID,
		Title:           "Can {playerName} carry this one?",
		Outcome1:        "Easily",
		Outcome2:        "No chance",
		DurationSeconds: 300,
	}}
	store := NewMemoryStore()
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusInMatch, MatchID: "NA1_101"}}
	preds := &fakePredictions{}
	tr := New(store, probe, preds, templates, &fakeAccounts{}, testLogger())

	acc := testAccount()
	acc.ActiveTemplateID = &tplID
	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	call := preds.created[0]
	if call.title != "Can Faker carry this one?" {
		t.Errorf("title = %q, want rendered template", call.title)
	}
	if call.outcomes[0] != "Easily" || call.outcomes[1] != "No chance" {
		t.Errorf("outcomes = %v, want template outcomes", call.outcomes)
	}
	if call.window != 300 {
		t.Errorf("window = %d, want 300", call.window)
	}
}

func TestProcessFallsBackWhenTemplateMissing(t *testing.T) {
	tplID := uuid.New()
	templates := &fakeTemplates{err: domain.ErrNotFound}
	store := NewMemoryStore()
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusInMatch, MatchID: "NA1_102"}}
	preds := &fakePredictions{}
	tr := New(store, probe, preds, templates, &fakeAccounts{}, testLogger())

	acc := testAccount()
	acc.ActiveTemplateID = &tplID
	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	call := preds.created[0]
	if call.title != "Will Faker win their game?" || call.window != 1800 {
		t.Errorf("call = %+v, want defaults on template failure", call)
	}
}

func TestProcessSkipsWhenAutomationDisabled(t *testing.T) {
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusInMatch, MatchID: "NA1_103"}}
	tr := New(NewMemoryStore(), probe, &fakePredictions{}, &fakeTemplates{}, &fakeAccounts{}, testLogger())

	acc := testAccount()
	acc.AutoCreate = false
	acc.AutoResolve = false
	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if probe.liveCalls != 0 {
		t.Errorf("probe called %d times, want 0 when both flags are off", probe.liveCalls)
	}
}

func TestProcessNoCreateWhenAutoCreateDisabled(t *testing.T) {
	store := NewMemoryStore()
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusInMatch, MatchID: "NA1_104"}}
	preds := &fakePredictions{}
	tr := New(store, probe, preds, &fakeTemplates{}, &fakeAccounts{}, testLogger())

	acc := testAccount()
	acc.AutoCreate = false
	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(preds.created) != 0 {
		t.Errorf("created %d predictions, want 0", len(preds.created))
	}
	if _, err := store.Get(context.Background(), acc.Key()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("entry stored despite auto-create disabled")
	}
}

func TestProcessTouchesLastCheckWhileInMatch(t *testing.T) {
	store := NewMemoryStore()
	acc := testAccount()
	entry := domain.TrackerEntry{
		AccountKey:   acc.Key(),
		UserID:       acc.UserID,
		MatchID:      "NA1_105",
		PredictionID: "pred-1",
		Phase:        domain.PhaseInMatch,
	}
	if err := store.Put(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusInMatch, MatchID: "NA1_105"}}
	preds := &fakePredictions{}
	accounts := &fakeAccounts{}
	tr := New(store, probe, preds, &fakeTemplates{}, accounts, testLogger())

	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if accounts.calls != 1 {
		t.Errorf("UpdateLastCheck called %d times, want 1", accounts.calls)
	}
	if len(preds.created) != 0 || len(preds.resolved) != 0 {
		t.Errorf("no create or resolve expected while the match is running")
	}
	got, _ := store.Get(context.Background(), acc.Key())
	if got != entry {
		t.Errorf("entry changed to %+v, want unchanged", got)
	}
}

func TestProcessResolvesOnMatchEnd(t *testing.T) {
	tests := []struct {
		name       string
		won        bool
		wantWinner string
	}{
		{name: "win resolves win outcome", won: true, wantWinner: "out-win"},
		{name: "loss resolves loss outcome", won: false, wantWinner: "out-loss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			acc := testAccount()
			acc.LastCheckTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			entry := domain.TrackerEntry{
				AccountKey:   acc.Key(),
				UserID:       acc.UserID,
				MatchID:      "NA1_106",
				PredictionID: "pred-1",
				Phase:        domain.PhaseInMatch,
			}
			if err := store.Put(context.Background(), entry); err != nil {
				t.Fatal(err)
			}
			ended := acc.LastCheckTime.Add(30 * time.Minute)
			probe := &fakeProbe{
				live:     domain.ProbeResult{Status: domain.StatusNotInMatch},
				result:   domain.MatchResult{MatchID: "NA1_106", Won: tt.won, EndedAt: ended},
				resultOK: true,
			}
			preds := &fakePredictions{prediction: winLossPrediction()}
			accounts := &fakeAccounts{}
			ann := &fakeAnnouncer{}
			tr := New(store, probe, preds, &fakeTemplates{}, accounts, testLogger()).WithAnnouncer(ann)

			if err := tr.Process(context.Background(), acc); err != nil {
				t.Fatalf("Process() error = %v", err)
			}

			if !probe.gotSince.Equal(acc.LastCheckTime) {
				t.Errorf("LatestResult since = %v, want %v", probe.gotSince, acc.LastCheckTime)
			}
			if len(preds.resolved) != 1 || preds.resolved[0] != tt.wantWinner {
				t.Errorf("resolved with %v, want [%s]", preds.resolved, tt.wantWinner)
			}
			if !accounts.lastCheck.Equal(ended) {
				t.Errorf("last check advanced to %v, want match end %v", accounts.lastCheck, ended)
			}

			got, err := store.Get(context.Background(), acc.Key())
			if err != nil {
				t.Fatalf("entry missing after resolve: %v", err)
			}
			if got.Phase != domain.PhaseAwaitingNext {
				t.Errorf("phase = %v, want %v", got.Phase, domain.PhaseAwaitingNext)
			}
			if got.MatchID != "NA1_106" || got.PredictionID != "" {
				t.Errorf("entry = %+v, want resolved match id kept and prediction cleared", got)
			}
			if len(ann.events) != 1 || ann.events[0].event != "prediction_resolved" {
				t.Errorf("announced %v, want one prediction_resolved event", ann.events)
			}
		})
	}
}

func TestProcessResolveRemovesEntryWithoutAutoCreate(t *testing.T) {
	store := NewMemoryStore()
	acc := testAccount()
	acc.AutoCreate = false
	entry := domain.TrackerEntry{
		AccountKey:   acc.Key(),
		UserID:       acc.UserID,
		MatchID:      "NA1_107",
		PredictionID: "pred-1",
		Phase:        domain.PhaseInMatch,
	}
	if err := store.Put(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	probe := &fakeProbe{
		live:     domain.ProbeResult{Status: domain.StatusNotInMatch},
		result:   domain.MatchResult{MatchID: "NA1_107", Won: true, EndedAt: time.Now()},
		resultOK: true,
	}
	preds := &fakePredictions{prediction: winLossPrediction()}
	tr := New(store, probe, preds, &fakeTemplates{}, &fakeAccounts{}, testLogger())

	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if _, err := store.Get(context.Background(), acc.Key()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("entry still present, want removed when auto-create is off")
	}
}

func TestProcessMatchEndedAutoResolveDisabled(t *testing.T) {
	store := NewMemoryStore()
	acc := testAccount()
	acc.AutoResolve = false
	entry := domain.TrackerEntry{
		AccountKey:   acc.Key(),
		UserID:       acc.UserID,
		MatchID:      "NA1_108",
		PredictionID: "pred-1",
		Phase:        domain.PhaseInMatch,
	}
	if err := store.Put(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusNotInMatch}}
	preds := &fakePredictions{prediction: winLossPrediction()}
	tr := New(store, probe, preds, &fakeTemplates{}, &fakeAccounts{}, testLogger())

	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(preds.resolved) != 0 {
		t.Errorf("resolved %v, want none with auto-resolve off", preds.resolved)
	}
	got, _ := store.Get(context.Background(), acc.Key())
	if got != entry {
		t.Errorf("entry changed to %+v, want unchanged", got)
	}
}

func TestProcessRetriesWhenResultNotAvailable(t *testing.T) {
	store := NewMemoryStore()
	acc := testAccount()
	entry := domain.TrackerEntry{
		AccountKey:   acc.Key(),
		UserID:       acc.UserID,
		MatchID:      "NA1_109",
		PredictionID: "pred-1",
		Phase:        domain.PhaseInMatch,
	}
	if err := store.Put(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusNotInMatch}, resultOK: false}
	preds := &fakePredictions{prediction: winLossPrediction()}
	tr := New(store, probe, preds, &fakeTemplates{}, &fakeAccounts{}, testLogger())

	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(preds.resolved) != 0 {
		t.Errorf("resolved %v before the match surfaced in history", preds.resolved)
	}
	got, _ := store.Get(context.Background(), acc.Key())
	if got.Phase != domain.PhaseInMatch {
		t.Errorf("phase = %v, want IN_MATCH kept for retry", got.Phase)
	}
}

func TestProcessAmbiguousResolutionLeavesPredictionOpen(t *testing.T) {
	store := NewMemoryStore()
	acc := testAccount()
	entry := domain.TrackerEntry{
		AccountKey:   acc.Key(),
		UserID:       acc.UserID,
		MatchID:      "NA1_110",
		PredictionID: "pred-1",
		Phase:        domain.PhaseInMatch,
	}
	if err := store.Put(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	probe := &fakeProbe{
		live:     domain.ProbeResult{Status: domain.StatusNotInMatch},
		result:   domain.MatchResult{MatchID: "NA1_110", Won: true, EndedAt: time.Now()},
		resultOK: true,
	}
	preds := &fakePredictions{prediction: domain.Prediction{
		ID:    "pred-1",
		Title: "Pentakill this game?",
		Outcomes: []domain.Outcome{
			{ID: "out-yes", Title: "Yes"},
			{ID: "out-no", Title: "No"},
		},
	}}
	accounts := &fakeAccounts{}
	ann := &fakeAnnouncer{}
	tr := New(store, probe, preds, &fakeTemplates{}, accounts, testLogger()).WithAnnouncer(ann)

	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(preds.resolved) != 0 {
		t.Errorf("resolved %v, want none for unmappable outcomes", preds.resolved)
	}
	if accounts.calls != 0 {
		t.Errorf("last check advanced despite the prediction staying open")
	}
	if len(ann.events) != 1 || ann.events[0].event != "ambiguous_resolution" {
		t.Errorf("announced %v, want one ambiguous_resolution event", ann.events)
	}
	got, _ := store.Get(context.Background(), acc.Key())
	if got != entry {
		t.Errorf("entry changed to %+v, want unchanged", got)
	}
}

func TestProcessAwaitingNextIgnoresSameMatch(t *testing.T) {
	store := NewMemoryStore()
	acc := testAccount()
	entry := domain.TrackerEntry{
		AccountKey: acc.Key(),
		UserID:     acc.UserID,
		MatchID:    "NA1_111",
		Phase:      domain.PhaseAwaitingNext,
	}
	if err := store.Put(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusInMatch, MatchID: "NA1_111"}}
	preds := &fakePredictions{}
	tr := New(store, probe, preds, &fakeTemplates{}, &fakeAccounts{}, testLogger())

	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(preds.created) != 0 {
		t.Errorf("created %d predictions for the already-settled match, want 0", len(preds.created))
	}

	// A different match id means a fresh game; a new prediction opens.
	probe.live.MatchID = "NA1_112"
	if err := tr.Process(context.Background(), acc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(preds.created) != 1 {
		t.Fatalf("created %d predictions for the new match, want 1", len(preds.created))
	}
	got, _ := store.Get(context.Background(), acc.Key())
	if got.Phase != domain.PhaseInMatch || got.MatchID != "NA1_112" {
		t.Errorf("entry = %+v, want IN_MATCH for NA1_112", got)
	}
}

func TestProcessCreateFailureLeavesEntryUntouched(t *testing.T) {
	store := NewMemoryStore()
	probe := &fakeProbe{live: domain.ProbeResult{Status: domain.StatusInMatch, MatchID: "NA1_113"}}
	preds := &fakePredictions{createErr: errors.New("helix unavailable")}
	tr := New(store, probe, preds, &fakeTemplates{}, &fakeAccounts{}, testLogger())

	acc := testAccount()
	if err := tr.Process(context.Background(), acc); err == nil {
		t.Fatal("Process() error = nil, want create failure surfaced")
	}
	if _, err := store.Get(context.Background(), acc.Key()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("entry stored despite failed creation; next tick would not retry")
	}
}
