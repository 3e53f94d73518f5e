package models

import "time"

// RefreshToken is one outstanding refresh token. The literal signed token is
// the primary key; the row's existence is what makes the token redeemable.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
