package domain

import (
	"strings"

	"github.com/google/uuid"
)

// PlayerNameToken is the substitution token templates may embed in their
// title; it is replaced with the account's summoner name at creation time.
const PlayerNameToken = "{playerName}"

// Template is a reusable title/outcome/duration pattern applied when a
// prediction is auto-created. Read-only input to creation; the tracker never
// mutates it.
type Template struct {
	ID              uuid.UUID
	UserID          string
	Title           string
	Outcome1        string
	Outcome2        string
	DurationSeconds int
}

// Render returns the template title with the player-name token substituted.
func (t Template) Render(playerName string) string {
	return strings.ReplaceAll(t.Title, PlayerNameToken, playerName)
}
