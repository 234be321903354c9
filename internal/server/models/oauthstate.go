package models

import "time"

// OAuthState is a single-use anti-forgery value for the external login round trip.
type OAuthState struct {
	State     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
