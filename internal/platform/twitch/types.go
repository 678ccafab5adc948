package twitch

import (
	"time"

	"github.com/riftcast/riftcast/internal/domain"
)

// APIOutcome is the wire shape of a prediction outcome in Helix responses.
type APIOutcome struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Color         string `json:"color"`
	Users         int    `json:"users"`
	ChannelPoints int    `json:"channel_points"`
}

// APIPrediction is the wire shape of a prediction in Helix responses.
type APIPrediction struct {
	ID               string       `json:"id"`
	BroadcasterID    string       `json:"broadcaster_id"`
	Title            string       `json:"title"`
	WinningOutcomeID string       `json:"winning_outcome_id"`
	Outcomes         []APIOutcome `json:"outcomes"`
	PredictionWindow int          `json:"prediction_window"`
	Status           string       `json:"status"`
	CreatedAt        string       `json:"created_at"`
	EndedAt          string       `json:"ended_at"`
	LockedAt         string       `json:"locked_at"`
}

// ToDomain converts an APIPrediction into the local representation.
func (p APIPrediction) ToDomain() domain.Prediction {
	out := domain.Prediction{
		ID:               p.ID,
		BroadcasterID:    p.BroadcasterID,
		Title:            p.Title,
		Status:           domain.PredictionStatus(p.Status),
		WinningOutcomeID: p.WinningOutcomeID,
	}

	if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		out.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, p.LockedAt); err == nil {
		out.LockedAt = &t
	}
	if t, err := time.Parse(time.RFC3339, p.EndedAt); err == nil {
		out.EndedAt = &t
	}

	out.Outcomes = make([]domain.Outcome, 0, len(p.Outcomes))
	for _, o := range p.Outcomes {
		out.Outcomes = append(out.Outcomes, domain.Outcome{
			ID:            o.ID,
			Title:         o.Title,
			Color:         o.Color,
			Users:         o.Users,
			ChannelPoints: o.ChannelPoints,
		})
	}

	return out
}

// APIUser is the wire shape of a user in the Helix /users response.
type APIUser struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// TokenResponse is the wire shape of the OAuth token endpoint response. The
// scope field is a string array for authorization-code grants.
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	Scope        []string `json:"scope"`
	TokenType    string   `json:"token_type"`
}
