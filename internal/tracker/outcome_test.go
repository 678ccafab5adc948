package tracker

import (
	"errors"
	"testing"

	"github.com/riftcast/riftcast/internal/domain"
)

func TestKeywordWinnerPicker(t *testing.T) {
	winLoss := []domain.Outcome{
		{ID: "a", Title: "Win"},
		{ID: "b", Title: "Loss"},
	}
	phrased := []domain.Outcome{
		{ID: "a", Title: "Easy win incoming"},
		{ID: "b", Title: "They will lose"},
	}
	unmappable := []domain.Outcome{
		{ID: "a", Title: "Yes"},
		{ID: "b", Title: "No"},
	}

	tests := []struct {
		name     string
		outcomes []domain.Outcome
		won      bool
		want     string
		wantErr  error
	}{
		{name: "won picks win outcome", outcomes: winLoss, won: true, want: "a"},
		{name: "lost picks loss outcome", outcomes: winLoss, won: false, want: "b"},
		{name: "keyword inside a phrase", outcomes: phrased, won: true, want: "a"},
		{name: "lose keyword inside a phrase", outcomes: phrased, won: false, want: "b"},
		{name: "case insensitive", outcomes: []domain.Outcome{{ID: "a", Title: "WIN"}, {ID: "b", Title: "LOSS"}}, won: false, want: "b"},
		{name: "no keyword matches", outcomes: unmappable, won: true, wantErr: domain.ErrAmbiguousResolution},
		{name: "no keyword matches on loss", outcomes: unmappable, won: false, wantErr: domain.ErrAmbiguousResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeywordWinnerPicker{}.Pick(domain.Prediction{Outcomes: tt.outcomes}, tt.won)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Pick() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Pick() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Pick() = %q, want %q", got, tt.want)
			}
		})
	}
}
