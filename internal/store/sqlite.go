package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dkravets/finbot/internal/domain"
	"github.com/dkravets/finbot/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		telegram_id INTEGER NOT NULL UNIQUE,
		username TEXT,
		first_name TEXT,
		last_name TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		active INTEGER NOT NULL DEFAULT 1,
		context_data TEXT,
		started_at INTEGER NOT NULL,
		ended_at INTEGER,
		last_activity INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON sessions(last_activity) WHERE active = 1;

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		user_message_id INTEGER,
		user_content TEXT NOT NULL,
		user_sent_at INTEGER NOT NULL,
		bot_message_id INTEGER,
		bot_content TEXT,
		bot_sent_at INTEGER,
		processed INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, user_sent_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const userColumns = `id, telegram_id, username, first_name, last_name, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var user domain.User
	var username, firstName, lastName sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&user.ID, &user.TelegramID, &username, &firstName, &lastName,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Username = username.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// GetOrCreateUser fetches or creates the user for a Telegram ID. Existing
// users get their name fields refreshed so renames on the Telegram side
// propagate on next contact.
func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, bool, error) {
	existing, err := s.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().Unix()

	if existing != nil {
		query := `UPDATE users SET username = ?, first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`
		if _, err := s.db.ExecContext(ctx, query, nullable(username), nullable(firstName), nullable(lastName), now, existing.ID); err != nil {
			return nil, false, fmt.Errorf("update user: %w", err)
		}
		existing.Username = username
		existing.FirstName = firstName
		existing.LastName = lastName
		existing.UpdatedAt = time.Unix(now, 0)
		return existing, false, nil
	}

	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query, telegramID, nullable(username), nullable(firstName), nullable(lastName), now, now)
	if err != nil {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("user insert id: %w", err)
	}

	user := &domain.User{
		ID:         id,
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		CreatedAt:  time.Unix(now, 0),
		UpdatedAt:  time.Unix(now, 0),
	}
	return user, true, nil
}

// GetUserByTelegramID retrieves a user by their Telegram ID.
func (s *SQLiteStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, telegramID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by internal ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	return user, nil
}

const sessionColumns = `id, user_id, active, context_data, started_at, ended_at, last_activity`

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var sess domain.Session
	var contextData sql.NullString
	var endedAt sql.NullInt64
	var startedAt, lastActivity int64

	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.Active, &contextData,
		&startedAt, &endedAt, &lastActivity,
	)
	if err != nil {
		return nil, err
	}

	sess.Context = contextData.String
	sess.StartedAt = time.Unix(startedAt, 0)
	sess.LastActivity = time.Unix(lastActivity, 0)
	if endedAt.Valid {
		t := time.Unix(endedAt.Int64, 0)
		sess.EndedAt = &t
	}

	return &sess, nil
}

// CreateSession creates a new active session for the user.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID int64, contextData string, at time.Time) (*domain.Session, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO sessions (id, user_id, active, context_data, started_at, ended_at, last_activity)
		VALUES (?, ?, 1, ?, ?, NULL, ?)`

	ts := at.Unix()
	if _, err := s.db.ExecContext(ctx, query, id, userID, nullable(contextData), ts, ts); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &domain.Session{
		ID:           id,
		UserID:       userID,
		Active:       true,
		Context:      contextData,
		StartedAt:    time.Unix(ts, 0),
		LastActivity: time.Unix(ts, 0),
	}, nil
}

// GetActiveSession returns the most recently active session for the user.
// Multiple active rows are tolerated defensively: the newest wins.
func (s *SQLiteStore) GetActiveSession(ctx context.Context, userID int64) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = ? AND active = 1
		ORDER BY last_activity DESC
		LIMIT 1`

	sess, err := scanSession(s.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return sess, nil
}

// ListExpiredActive returns all active sessions idle since before cutoff.
func (s *SQLiteStore) ListExpiredActive(ctx context.Context, cutoff time.Time) ([]*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + ` FROM sessions
		WHERE active = 1 AND last_activity < ?`

	rows, err := s.db.QueryContext(ctx, query, cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("query expired sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close expired sessions rows", "error", closeErr)
		}
	}()

	var sessions []*domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired session row: %w", err)
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}

	return sessions, nil
}

// EndSession marks the session inactive and stamps ended_at. The WHERE
// clause matches ended sessions too, so re-ending re-stamps ended_at.
func (s *SQLiteStore) EndSession(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	query := `UPDATE sessions SET active = 0, ended_at = ? WHERE id = ?`

	res, err := s.execWithRetry(ctx, query, at.Unix(), sessionID)
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// BumpActivity sets the session's last_activity timestamp.
func (s *SQLiteStore) BumpActivity(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	query := `UPDATE sessions SET last_activity = ? WHERE id = ?`

	res, err := s.execWithRetry(ctx, query, at.Unix(), sessionID)
	if err != nil {
		return false, fmt.Errorf("bump activity: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("BumpActivity affected 0 rows", "session_id", sessionID)
		return false, nil
	}
	return true, nil
}

// CreateUserMessage records the user half of an exchange.
func (s *SQLiteStore) CreateUserMessage(ctx context.Context, sessionID, content string, tgMessageID int64, at time.Time) (*domain.Message, error) {
	query := `
		INSERT INTO messages (session_id, user_message_id, user_content, user_sent_at, processed)
		VALUES (?, ?, ?, ?, 0)`

	res, err := s.db.ExecContext(ctx, query, sessionID, nullableInt(tgMessageID), content, at.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message insert id: %w", err)
	}

	return &domain.Message{
		ID:            id,
		SessionID:     sessionID,
		UserMessageID: tgMessageID,
		UserContent:   content,
		UserSentAt:    time.Unix(at.Unix(), 0),
	}, nil
}

// AttachBotReply completes an exchange with the assistant reply.
func (s *SQLiteStore) AttachBotReply(ctx context.Context, messageID int64, content string, tgMessageID int64, at time.Time) (bool, error) {
	query := `
		UPDATE messages
		SET bot_content = ?, bot_message_id = ?, bot_sent_at = ?, processed = 1
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, content, nullableInt(tgMessageID), at.Unix(), messageID)
	if err != nil {
		return false, fmt.Errorf("attach bot reply: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListSessionMessages returns up to limit messages for a session, newest first.
func (s *SQLiteStore) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, session_id, user_message_id, user_content, user_sent_at,
		       bot_message_id, bot_content, bot_sent_at, processed
		FROM messages
		WHERE session_id = ?
		ORDER BY user_sent_at DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query session messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close message rows", "error", closeErr)
		}
	}()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var userMessageID, botMessageID, botSentAt sql.NullInt64
		var botContent sql.NullString
		var userSentAt int64

		if err := rows.Scan(
			&msg.ID, &msg.SessionID, &userMessageID, &msg.UserContent, &userSentAt,
			&botMessageID, &botContent, &botSentAt, &msg.Processed,
		); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}

		msg.UserMessageID = userMessageID.Int64
		msg.BotMessageID = botMessageID.Int64
		msg.BotContent = botContent.String
		msg.UserSentAt = time.Unix(userSentAt, 0)
		if botSentAt.Valid {
			t := time.Unix(botSentAt.Int64, 0)
			msg.BotSentAt = &t
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// execWithRetry runs a mutating statement with exponential backoff on
// SQLITE_BUSY. Session updates race with the sweeper goroutine, which can
// hold the write lock while WAL is flushing.
func (s *SQLiteStore) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	var res sql.Result
	var err error
	for i := 0; i < maxRetries; i++ {
		res, err = s.db.ExecContext(ctx, query, args...)
		if err == nil {
			return res, nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // 50ms, 100ms, 200ms
			slog.Debug("statement failed with SQLITE_BUSY, retrying",
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}
		break
	}
	return nil, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
