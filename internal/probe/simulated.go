package probe

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
)

// Transition probabilities per probe call.
const (
	enterMatchChance  = 0.20
	stayInMatchChance = 0.90
	winChance         = 0.50
)

type simState struct {
	inMatch bool
	matchID string
	counter int
	// last completed match, consumed by LatestResult
	lastResult *domain.MatchResult
}

// Simulated is a development probe that fabricates match activity
// without touching the Riot API. Each call advances a small per-account
// state machine with fixed transition probabilities.
type Simulated struct {
	rng *rand.Rand

	mu     sync.Mutex
	states map[string]*simState
}

func NewSimulated() *Simulated {
	return &Simulated{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		states: make(map[string]*simState),
	}
}

func (p *Simulated) LiveStatus(_ context.Context, acc domain.Account) (domain.ProbeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.states[acc.Key()]
	if !ok {
		st = &simState{}
		p.states[acc.Key()] = st
	}

	if st.inMatch {
		if p.rng.Float64() < stayInMatchChance {
			return domain.ProbeResult{Status: domain.StatusInMatch, MatchID: st.matchID}, nil
		}
		st.inMatch = false
		st.lastResult = &domain.MatchResult{
			MatchID: st.matchID,
			Won:     p.rng.Float64() < winChance,
			EndedAt: time.Now().UTC(),
		}
		return domain.ProbeResult{Status: domain.StatusNotInMatch}, nil
	}

	if p.rng.Float64() < enterMatchChance {
		st.counter++
		st.inMatch = true
		st.matchID = fmt.Sprintf("SIM_%s_%d", acc.Key(), st.counter)
		return domain.ProbeResult{Status: domain.StatusInMatch, MatchID: st.matchID}, nil
	}
	return domain.ProbeResult{Status: domain.StatusNotInMatch}, nil
}

func (p *Simulated) LatestResult(_ context.Context, acc domain.Account, since time.Time) (domain.MatchResult, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.states[acc.Key()]
	if !ok || st.lastResult == nil {
		return domain.MatchResult{}, false, nil
	}
	if !st.lastResult.EndedAt.After(since) {
		return domain.MatchResult{}, false, nil
	}
	return *st.lastResult, true, nil
}
