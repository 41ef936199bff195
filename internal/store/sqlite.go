package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avaldivia/unidesk/internal/domain"
	"github.com/avaldivia/unidesk/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // Serializes session writes to prevent SQLITE_BUSY
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
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		stack_json TEXT NOT NULL,
		last_turn_id TEXT,
		last_reply_json TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		profile_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
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

// GetSession retrieves a conversation session.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.ConversationSession, error) {
	query := `
		SELECT session_id, user_id, stack_json, last_turn_id, last_reply_json, created_at, updated_at
		FROM sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, sessionID)

	var session domain.ConversationSession
	var stackJSON string
	var lastTurnID, lastReplyJSON sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&session.SessionID, &session.UserID, &stackJSON, &lastTurnID, &lastReplyJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	if err := json.Unmarshal([]byte(stackJSON), &session.Stack); err != nil {
		return nil, fmt.Errorf("decode dialog stack: %w", err)
	}
	if lastReplyJSON.Valid && lastReplyJSON.String != "" {
		if err := json.Unmarshal([]byte(lastReplyJSON.String), &session.LastReply); err != nil {
			return nil, fmt.Errorf("decode last reply: %w", err)
		}
	}
	session.LastTurnID = lastTurnID.String
	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)

	return &session, nil
}

// SaveSession creates or updates a conversation session.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *domain.ConversationSession) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	stack := session.Stack
	if stack == nil {
		stack = []domain.DialogFrame{}
	}
	stackJSON, err := json.Marshal(stack)
	if err != nil {
		return fmt.Errorf("encode dialog stack: %w", err)
	}

	var lastReplyJSON any
	if session.LastReply != nil {
		encoded, err := json.Marshal(session.LastReply)
		if err != nil {
			return fmt.Errorf("encode last reply: %w", err)
		}
		lastReplyJSON = string(encoded)
	}

	var lastTurnID any
	if session.LastTurnID != "" {
		lastTurnID = session.LastTurnID
	}

	query := `
		INSERT INTO sessions (session_id, user_id, stack_json, last_turn_id, last_reply_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			user_id = excluded.user_id,
			stack_json = excluded.stack_json,
			last_turn_id = excluded.last_turn_id,
			last_reply_json = excluded.last_reply_json,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		session.SessionID, session.UserID, string(stackJSON),
		lastTurnID, lastReplyJSON,
		session.CreatedAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// DeleteSession removes a conversation session.
// Retries with exponential backoff on SQLite concurrency errors.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.deleteSessionOnce(ctx, sessionID)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("DeleteSession hit SQLite conflict, retrying",
				"session_id", sessionID,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}

		return fmt.Errorf("delete session %s after %d attempts: %w", sessionID, i+1, err)
	}

	return nil
}

func (s *SQLiteStore) deleteSessionOnce(ctx context.Context, sessionID string) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// GetProfile retrieves a user's profile.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT profile_json FROM profiles WHERE user_id = ?`, userID)

	var profileJSON string
	err := row.Scan(&profileJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile creates or updates a user's profile.
func (s *SQLiteStore) SaveProfile(ctx context.Context, userID string, profile *domain.UserProfile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	now := time.Now().Unix()
	query := `
		INSERT INTO profiles (user_id, profile_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			profile_json = excluded.profile_json,
			updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, userID, string(profileJSON), now, now); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a user's profile.
func (s *SQLiteStore) DeleteProfile(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes sessions idle longer than ttl and returns
// the (session, user) pairs that were deleted.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) ([]ReapedSession, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	threshold := time.Now().Add(-ttl).Unix()

	rows, err := s.db.QueryContext(ctx, `SELECT session_id, user_id FROM sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()

	var reaped []ReapedSession
	for rows.Next() {
		var r ReapedSession
		if err := rows.Scan(&r.SessionID, &r.UserID); err != nil {
			return nil, fmt.Errorf("scan expired session: %w", err)
		}
		reaped = append(reaped, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}
	if len(reaped) == 0 {
		return nil, nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, threshold); err != nil {
		return nil, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return reaped, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
