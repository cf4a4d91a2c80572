package auth

import "time"

// User is the signed-in identity as the rest of the app sees it.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Session is what gets persisted under the `user` key: the identity plus
// the token material needed to call authenticated endpoints.
type Session struct {
	User
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the session's ID token is past its lifetime.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// StateListener receives the current user on every auth state transition.
// A nil user means signed out.
type StateListener func(*User)
