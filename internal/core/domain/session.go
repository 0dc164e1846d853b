package domain

import "time"

// Session is the server-side record of an issued bearer token. Only the
// SHA-256 lookup hash of the token is stored; the raw secret leaves the
// service exactly once, at login.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	UserAgent *string    `json:"user_agent,omitempty"`
	IPAddress *string    `json:"ip_address,omitempty"`
}

// Active reports whether the session is unrevoked and unexpired at now.
// Owner status is a separate check performed at lookup time.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
