package domain

import "time"

// expirySlack is subtracted from the token deadline so a token that would
// expire mid-request is refreshed up front.
const expirySlack = 30 * time.Second

// UserToken holds a user's Twitch OAuth credentials. The refresh token may be
// stored encrypted at rest; the token store is responsible for transparently
// decrypting it on load.
type UserToken struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token needs refreshing.
func (t UserToken) Expired() bool {
	return !time.Now().Before(t.ExpiresAt.Add(-expirySlack))
}
