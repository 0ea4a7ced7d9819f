package domain

import "time"

// Session is a server-side login session. It carries no role or admin
// snapshot; authorization re-reads the user record.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsActive reports whether the session has not yet expired at the supplied moment.
func (s Session) IsActive(at time.Time) bool {
	return s.ExpiresAt.After(at)
}

// TTL returns the remaining lifetime of the session, never negative.
func (s Session) TTL(at time.Time) time.Duration {
	if remaining := s.ExpiresAt.Sub(at); remaining > 0 {
		return remaining
	}
	return 0
}
