package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nimser/chatstream/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dsn and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			parts TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetSession retrieves a session and its ordered messages. Returns nil if
// the session does not exist.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, created_at FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get_session", Err: err}
	}

	messages, err := s.GetMessages(ctx, sessionID, 0, "")
	if err != nil {
		return nil, err
	}
	session.Messages = messages
	return &session, nil
}

// CreateSession creates a session seeded with the given messages in one
// transaction.
func (s *SQLiteStore) CreateSession(ctx context.Context, sessionID string, messages []domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "create_session", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, created_at) VALUES (?, ?)`,
		sessionID, time.Now()); err != nil {
		return &domain.StoreError{Op: "create_session", Err: err}
	}
	if err := insertMessages(ctx, tx, sessionID, 1, messages); err != nil {
		return &domain.StoreError{Op: "create_session", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "create_session", Err: err}
	}
	return nil
}

// AppendMessages atomically appends messages to an existing session.
func (s *SQLiteStore) AppendMessages(ctx context.Context, sessionID string, messages []domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "append", Err: err}
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE session_id = ?`, sessionID).Scan(&exists)
	if err == sql.ErrNoRows {
		return &domain.StoreError{Op: "append", Err: fmt.Errorf("session %s not found", sessionID)}
	}
	if err != nil {
		return &domain.StoreError{Op: "append", Err: err}
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?`,
		sessionID).Scan(&next); err != nil {
		return &domain.StoreError{Op: "append", Err: err}
	}
	if err := insertMessages(ctx, tx, sessionID, next, messages); err != nil {
		return &domain.StoreError{Op: "append", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "append", Err: err}
	}
	return nil
}

func insertMessages(ctx context.Context, tx *sql.Tx, sessionID string, startSeq int, messages []domain.Message) error {
	for i, msg := range messages {
		parts, err := json.Marshal(msg.Parts)
		if err != nil {
			return fmt.Errorf("failed to marshal parts: %w", err)
		}
		var metadata sql.NullString
		if msg.Metadata != nil {
			data, err := json.Marshal(msg.Metadata)
			if err != nil {
				return fmt.Errorf("failed to marshal metadata: %w", err)
			}
			metadata = sql.NullString{String: string(data), Valid: true}
		}
		createdAt := msg.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (message_id, session_id, seq, role, parts, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			msg.MessageID, sessionID, startSeq+i, msg.Role, string(parts), metadata, createdAt); err != nil {
			return err
		}
	}
	return nil
}

// GetMessages retrieves messages for a session in insertion order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit int, before string) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, role, parts, metadata, created_at FROM messages WHERE session_id = ?`
	args := []interface{}{sessionID}

	if before != "" {
		query += ` AND seq < (SELECT seq FROM messages WHERE message_id = ? AND session_id = ?)`
		args = append(args, before, sessionID)
	}

	query += ` ORDER BY seq ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "get_messages", Err: err}
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var parts string
		var metadata sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &parts, &metadata, &msg.CreatedAt); err != nil {
			return nil, &domain.StoreError{Op: "get_messages", Err: err}
		}
		if err := json.Unmarshal([]byte(parts), &msg.Parts); err != nil {
			return nil, &domain.StoreError{Op: "get_messages", Err: fmt.Errorf("failed to unmarshal parts: %w", err)}
		}
		if metadata.Valid {
			var md domain.Metadata
			if err := json.Unmarshal([]byte(metadata.String), &md); err != nil {
				return nil, &domain.StoreError{Op: "get_messages", Err: fmt.Errorf("failed to unmarshal metadata: %w", err)}
			}
			msg.Metadata = &md
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "get_messages", Err: err}
	}
	return messages, nil
}
