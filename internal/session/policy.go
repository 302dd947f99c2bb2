// Package session implements the conversational session lifecycle: the
// idle-timeout policy, the manager that creates, extends and expires
// sessions, and the background sweeper that closes abandoned ones.
package session

import (
	"time"
)

// Expired reports whether a session whose last activity was at lastActivity
// has exceeded the idle timeout as of now. The boundary is exclusive: a
// session idle for exactly the timeout is still alive.
func Expired(lastActivity time.Time, timeout time.Duration, now time.Time) bool {
	return now.After(lastActivity.Add(timeout))
}

// ExpiryCutoff returns the last-activity threshold below which an active
// session counts as expired, for use in sweep queries.
func ExpiryCutoff(now time.Time, timeout time.Duration) time.Time {
	return now.Add(-timeout)
}
