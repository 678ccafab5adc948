package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
	"github.com/riftcast/riftcast/internal/platform/riot"
)

// RiotAPI is the slice of the Riot client the live probe needs.
type RiotAPI interface {
	GetActiveGame(ctx context.Context, puuid string) (riot.ActiveGame, error)
	GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*riot.Match, error)
}

// Live answers tracker probes from the Riot spectator and match APIs.
type Live struct {
	riot RiotAPI
}

func NewLive(api RiotAPI) *Live {
	return &Live{riot: api}
}

func (p *Live) LiveStatus(ctx context.Context, acc domain.Account) (domain.ProbeResult, error) {
	game, err := p.riot.GetActiveGame(ctx, acc.PUUID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ProbeResult{Status: domain.StatusNotInMatch}, nil
	}
	if err != nil {
		return domain.ProbeResult{}, fmt.Errorf("probe: active game for %s: %w", acc.SummonerName, err)
	}
	return domain.ProbeResult{Status: domain.StatusInMatch, MatchID: game.MatchID()}, nil
}

func (p *Live) LatestResult(ctx context.Context, acc domain.Account, since time.Time) (domain.MatchResult, bool, error) {
	ids, err := p.riot.GetMatchIDs(ctx, acc.PUUID, 1)
	if err != nil {
		return domain.MatchResult{}, false, fmt.Errorf("probe: match ids for %s: %w", acc.SummonerName, err)
	}
	if len(ids) == 0 {
		return domain.MatchResult{}, false, nil
	}

	match, err := p.riot.GetMatch(ctx, ids[0])
	if err != nil {
		return domain.MatchResult{}, false, fmt.Errorf("probe: match %s: %w", ids[0], err)
	}

	ended := time.UnixMilli(match.Info.GameEndTimestamp).UTC()
	if !ended.After(since) {
		// The newest completed match predates the last processed one,
		// so the just-finished game has not reached match history yet.
		return domain.MatchResult{}, false, nil
	}

	part := match.FindParticipant(acc.PUUID)
	if part == nil {
		return domain.MatchResult{}, false, fmt.Errorf("probe: player %s missing from match %s", acc.SummonerName, ids[0])
	}
	return domain.MatchResult{
		MatchID: match.Metadata.MatchID,
		Won:     part.Win,
		EndedAt: ended,
	}, true, nil
}
