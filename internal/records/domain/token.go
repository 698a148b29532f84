package domain

import "time"

// IssuedToken is what a successful login, password change or logout-all
// returns: a signed bearer token and when it lapses on its own. Tokens are
// never persisted; validity is re-derived per request from the signature,
// the expiry and the identity's live session version.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
