package domain

import (
	"time"
)

// Session holds one assistant conversation for a user. At most one session
// per user should be active at a time; the lifecycle manager enforces this
// through query discipline rather than a store constraint.
type Session struct {
	ID           string     `json:"id"`
	UserID       int64      `json:"user_id"`
	Active       bool       `json:"active"`
	Context      string     `json:"context,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	LastActivity time.Time  `json:"last_activity"`
}

// IdleFor returns how long the session has been idle as of now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}

// TimeLeft returns the time until the session expires given the configured
// idle timeout. Returns 0 if the session has already expired.
func (s *Session) TimeLeft(timeout time.Duration, now time.Time) time.Duration {
	deadline := s.LastActivity.Add(timeout)
	left := deadline.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
