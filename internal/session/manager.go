package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dkravets/finbot/internal/domain"
	"github.com/dkravets/finbot/internal/store"
)

// Notifier delivers a session-timeout message to the owner of an ended
// session. Delivery is best-effort: the manager logs failures and never
// rolls back the session end.
type Notifier interface {
	NotifySessionExpired(ctx context.Context, telegramID int64, sess domain.Session, endedAt time.Time) error
}

// Outcome describes what EnsureSession did for the caller.
type Outcome int

const (
	// OutcomeCreated means the user had no active session and a new one
	// was opened.
	OutcomeCreated Outcome = iota
	// OutcomeResumed means an active, unexpired session was found and its
	// activity refreshed.
	OutcomeResumed
	// OutcomeRenewed means the active session had expired: it was closed
	// and a fresh one opened in the same call.
	OutcomeRenewed
)

// EnsureResult carries the session handed to the caller, plus the expired
// previous session when the call renewed one, so the caller can report
// "previous session expired, new one started".
type EnsureResult struct {
	Outcome  Outcome
	Session  *domain.Session
	Previous *domain.Session
}

// Manager orchestrates the session store, timeout policy and notifier.
// All collaborators are injected; the clock is injectable for tests.
type Manager struct {
	repo     store.Repository
	notifier Notifier
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the manager's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSweepInterval overrides how often the background sweeper runs.
func WithSweepInterval(interval time.Duration) Option {
	return func(m *Manager) { m.interval = interval }
}

// NewManager creates a session lifecycle manager. timeout is the configured
// idle duration after which an active session expires.
func NewManager(repo store.Repository, notifier Notifier, timeout time.Duration, opts ...Option) *Manager {
	m := &Manager{
		repo:     repo,
		notifier: notifier,
		timeout:  timeout,
		interval: time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timeout returns the configured idle timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

const defaultContext = "AI Assistant Chat Session"

// EnsureSession resolves the session a user interaction should run in.
// With no active session one is created; a live session has its activity
// bumped; an expired session is closed and replaced in the same call.
func (m *Manager) EnsureSession(ctx context.Context, userID int64) (*EnsureResult, error) {
	active, err := m.repo.GetActiveSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}

	now := m.now()

	if active == nil {
		created, err := m.repo.CreateSession(ctx, userID, defaultContext, now)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		slog.Info("session created", "session_id", created.ID, "user_id", userID)
		return &EnsureResult{Outcome: OutcomeCreated, Session: created}, nil
	}

	if Expired(active.LastActivity, m.timeout, now) {
		if _, err := m.repo.EndSession(ctx, active.ID, now); err != nil {
			return nil, fmt.Errorf("end expired session: %w", err)
		}
		active.Active = false
		endedAt := now
		active.EndedAt = &endedAt

		created, err := m.repo.CreateSession(ctx, userID, defaultContext, now)
		if err != nil {
			return nil, fmt.Errorf("create replacement session: %w", err)
		}
		slog.Info("session renewed",
			"old_session_id", active.ID,
			"new_session_id", created.ID,
			"user_id", userID)
		return &EnsureResult{Outcome: OutcomeRenewed, Session: created, Previous: active}, nil
	}

	if _, err := m.repo.BumpActivity(ctx, active.ID, now); err != nil {
		return nil, fmt.Errorf("bump activity: %w", err)
	}
	active.LastActivity = now
	return &EnsureResult{Outcome: OutcomeResumed, Session: active}, nil
}

// CheckTimeout is the on-demand, single-user variant of the sweep. It
// reports whether the user's active session had expired; when it had, the
// session is ended and the owner notified exactly as the sweeper would.
// Users without an active session return false with no store mutation.
func (m *Manager) CheckTimeout(ctx context.Context, telegramID int64) (bool, error) {
	user, err := m.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return false, nil
	}

	active, err := m.repo.GetActiveSession(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("get active session: %w", err)
	}
	if active == nil {
		return false, nil
	}

	now := m.now()
	if !Expired(active.LastActivity, m.timeout, now) {
		return false, nil
	}

	ended, err := m.repo.EndSession(ctx, active.ID, now)
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}
	if ended {
		m.notify(ctx, telegramID, *active, now)
	}
	return true, nil
}

// Sweep ends every active session past the idle timeout and notifies its
// owner. Sessions are handled independently: a store or notify failure on
// one is logged and the pass continues with the rest. Returns how many
// sessions were ended.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	now := m.now()
	expired, err := m.repo.ListExpiredActive(ctx, ExpiryCutoff(now, m.timeout))
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	if len(expired) == 0 {
		return 0, nil
	}

	slog.Info("sweep found expired sessions", "count", len(expired))

	ended := 0
	for _, sess := range expired {
		user, err := m.repo.GetUserByID(ctx, sess.UserID)
		if err != nil {
			slog.Error("sweep failed to resolve session owner",
				"error", err,
				"session_id", sess.ID,
				"user_id", sess.UserID)
			continue
		}
		if user == nil {
			slog.Warn("sweep skipping session with missing owner",
				"session_id", sess.ID,
				"user_id", sess.UserID)
			continue
		}

		endedAt := m.now()
		ok, err := m.repo.EndSession(ctx, sess.ID, endedAt)
		if err != nil {
			slog.Error("sweep failed to end session",
				"error", err,
				"session_id", sess.ID,
				"user_id", sess.UserID)
			continue
		}
		if !ok {
			continue
		}

		ended++
		m.notify(ctx, user.TelegramID, *sess, endedAt)
		slog.Info("session expired and owner notified",
			"session_id", sess.ID,
			"telegram_id", user.TelegramID)
	}

	return ended, nil
}

// notify delivers the timeout message. Failure is logged only: the session
// end has already been committed and is never rolled back, and there is no
// retry within the same pass.
func (m *Manager) notify(ctx context.Context, telegramID int64, sess domain.Session, endedAt time.Time) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifySessionExpired(ctx, telegramID, sess, endedAt); err != nil {
		slog.Error("failed to send timeout notification",
			"error", err,
			"session_id", sess.ID,
			"telegram_id", telegramID)
	}
}
