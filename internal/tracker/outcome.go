package tracker

import (
	"strings"

	"github.com/riftcast/riftcast/internal/domain"
)

// WinnerPicker maps a match result onto one of a prediction's outcomes.
type WinnerPicker interface {
	Pick(p domain.Prediction, won bool) (outcomeID string, err error)
}

// KeywordWinnerPicker matches outcome titles against win/loss keywords,
// case-insensitively. When no outcome title matches, it reports
// domain.ErrAmbiguousResolution and the prediction is left untouched.
type KeywordWinnerPicker struct{}

func (KeywordWinnerPicker) Pick(p domain.Prediction, won bool) (string, error) {
	keywords := []string{"lose", "loss"}
	if won {
		keywords = []string{"win"}
	}
	for _, o := range p.Outcomes {
		title := strings.ToLower(o.Title)
		for _, kw := range keywords {
			if strings.Contains(title, kw) {
				return o.ID, nil
			}
		}
	}
	return "", domain.ErrAmbiguousResolution
}

var _ WinnerPicker = KeywordWinnerPicker{}
