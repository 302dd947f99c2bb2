// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/dkravets/finbot/internal/domain"
)

// Repository defines the interface for persisting users, sessions and messages.
//
// "Not found" is a normal outcome, not an error: lookups return (nil, nil)
// and mutations return (false, nil) when the target row does not exist.
// Errors are reserved for the store itself being unavailable.
type Repository interface {
	// GetOrCreateUser fetches the user with the given Telegram ID, creating
	// them on first contact. Name fields of an existing user are refreshed
	// from the latest interaction. The bool reports whether the user was
	// created by this call.
	GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, bool, error)

	// GetUserByTelegramID retrieves a user by their Telegram ID.
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)

	// GetUserByID retrieves a user by internal ID.
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// CreateSession creates a new active session for the user with
	// started_at and last_activity both set to at.
	CreateSession(ctx context.Context, userID int64, contextData string, at time.Time) (*domain.Session, error)

	// GetActiveSession returns the most recently active session with
	// active=true for the user, or nil if there is none.
	GetActiveSession(ctx context.Context, userID int64) (*domain.Session, error)

	// ListExpiredActive returns all active sessions whose last_activity is
	// strictly before cutoff.
	ListExpiredActive(ctx context.Context, cutoff time.Time) ([]*domain.Session, error)

	// EndSession marks the session inactive and stamps ended_at. Returns
	// false if the session does not exist. An already-ended session is
	// matched again and its ended_at re-stamped.
	EndSession(ctx context.Context, sessionID string, at time.Time) (bool, error)

	// BumpActivity sets the session's last_activity. Returns false if the
	// session does not exist.
	BumpActivity(ctx context.Context, sessionID string, at time.Time) (bool, error)

	// CreateUserMessage records the user half of an exchange against a session.
	CreateUserMessage(ctx context.Context, sessionID, content string, tgMessageID int64, at time.Time) (*domain.Message, error)

	// AttachBotReply completes an exchange with the assistant reply and
	// marks it processed. Returns false if the message does not exist.
	AttachBotReply(ctx context.Context, messageID int64, content string, tgMessageID int64, at time.Time) (bool, error)

	// ListSessionMessages returns up to limit messages for a session,
	// newest first.
	ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*domain.Message, error)

	// Ping verifies database connectivity and returns an error if the
	// database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
