package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
	"github.com/riftcast/riftcast/internal/platform/riot"
)

type fakeRiot struct {
	game    riot.ActiveGame
	gameErr error

	matchIDs []string
	idsErr   error

	match    *riot.Match
	matchErr error
}

func (f *fakeRiot) GetActiveGame(context.Context, string) (riot.ActiveGame, error) {
	return f.game, f.gameErr
}

func (f *fakeRiot) GetMatchIDs(context.Context, string, int) ([]string, error) {
	return f.matchIDs, f.idsErr
}

func (f *fakeRiot) GetMatch(context.Context, string) (*riot.Match, error) {
	return f.match, f.matchErr
}

func finishedMatch(id, puuid string, won bool, endedAt time.Time) *riot.Match {
	m := &riot.Match{}
	m.Metadata.MatchID = id
	m.Info.GameEndTimestamp = endedAt.UnixMilli()
	m.Info.Participants = []riot.Participant{
		{PUUID: "someone-else", Win: !won},
		{PUUID: puuid, Win: won},
	}
	return m
}

func TestLiveStatusInMatch(t *testing.T) {
	api := &fakeRiot{game: riot.ActiveGame{GameID: 4811234567, PlatformID: "NA1"}}
	p := NewLive(api)

	got, err := p.LiveStatus(context.Background(), domain.Account{PUUID: "puuid-1"})
	if err != nil {
		t.Fatalf("LiveStatus() error = %v", err)
	}
	if !got.InMatch() || got.MatchID != "NA1_4811234567" {
		t.Errorf("LiveStatus() = %+v, want in match NA1_4811234567", got)
	}
}

func TestLiveStatusNotInMatch(t *testing.T) {
	// Spectator answers 404 when the player is not in a game; the client
	// maps that to ErrNotFound.
	api := &fakeRiot{gameErr: domain.ErrNotFound}
	p := NewLive(api)

	got, err := p.LiveStatus(context.Background(), domain.Account{PUUID: "puuid-1"})
	if err != nil {
		t.Fatalf("LiveStatus() error = %v", err)
	}
	if got.InMatch() {
		t.Errorf("LiveStatus() = %+v, want not in match", got)
	}
}

func TestLiveStatusTransportError(t *testing.T) {
	api := &fakeRiot{gameErr: errors.New("503 from riot")}
	p := NewLive(api)

	if _, err := p.LiveStatus(context.Background(), domain.Account{PUUID: "puuid-1"}); err == nil {
		t.Fatal("LiveStatus() error = nil, want transport failure surfaced")
	}
}

func TestLatestResult(t *testing.T) {
	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ended := since.Add(28 * time.Minute)
	api := &fakeRiot{
		matchIDs: []string{"NA1_100"},
		match:    finishedMatch("NA1_100", "puuid-1", true, ended),
	}
	p := NewLive(api)

	result, ok, err := p.LatestResult(context.Background(), domain.Account{PUUID: "puuid-1"}, since)
	if err != nil {
		t.Fatalf("LatestResult() error = %v", err)
	}
	if !ok {
		t.Fatal("LatestResult() ok = false, want the finished match")
	}
	if result.MatchID != "NA1_100" || !result.Won {
		t.Errorf("LatestResult() = %+v, want a win in NA1_100", result)
	}
	if !result.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %v", result.EndedAt, ended)
	}
}

func TestLatestResultStaleMatchNotReady(t *testing.T) {
	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Newest history entry predates the high-water mark: the just-finished
	// game has not reached match history yet.
	api := &fakeRiot{
		matchIDs: []string{"NA1_099"},
		match:    finishedMatch("NA1_099", "puuid-1", true, since.Add(-time.Hour)),
	}
	p := NewLive(api)

	_, ok, err := p.LatestResult(context.Background(), domain.Account{PUUID: "puuid-1"}, since)
	if err != nil {
		t.Fatalf("LatestResult() error = %v", err)
	}
	if ok {
		t.Error("LatestResult() ok = true for a match ending before since")
	}
}

func TestLatestResultEmptyHistory(t *testing.T) {
	p := NewLive(&fakeRiot{})

	_, ok, err := p.LatestResult(context.Background(), domain.Account{PUUID: "puuid-1"}, time.Time{})
	if err != nil {
		t.Fatalf("LatestResult() error = %v", err)
	}
	if ok {
		t.Error("LatestResult() ok = true with no match history")
	}
}

func TestLatestResultPlayerMissingFromMatch(t *testing.T) {
	api := &fakeRiot{
		matchIDs: []string{"NA1_100"},
		match:    finishedMatch("NA1_100", "another-puuid", true, time.Now()),
	}
	p := NewLive(api)

	if _, _, err := p.LatestResult(context.Background(), domain.Account{PUUID: "puuid-1"}, time.Time{}); err == nil {
		t.Fatal("LatestResult() error = nil, want missing participant surfaced")
	}
}
