package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/recovery-coach/internal/domain"
	"github.com/ashureev/recovery-coach/internal/shared"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	contactMu sync.Mutex // serializes contact upserts to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL keeps conversation appends from blocking contact lookups.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_message TEXT NOT NULL,
		assistant_message TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at);

	CREATE TABLE IF NOT EXISTS contacts (
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		session_id TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
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

// SaveConversationTurn appends a conversation turn. A missing ID or
// timestamp is filled in.
func (s *SQLiteStore) SaveConversationTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	if turn.SessionID == "" {
		return errors.New("save conversation turn: session id is required")
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	if turn.ID == "" {
		turn.ID = ulid.MustNew(ulid.Timestamp(turn.Timestamp), ulid.DefaultEntropy()).String()
	}

	query := `
		INSERT INTO conversations (id, session_id, user_message, assistant_message, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		turn.ID, turn.SessionID, turn.UserMessage, turn.AssistantMessage,
		turn.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert conversation turn: %w", err)
	}
	return nil
}

// ConversationHistory returns up to limit turns for a session, newest first.
func (s *SQLiteStore) ConversationHistory(ctx context.Context, sessionID string, limit int) ([]*domain.ConversationTurn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, session_id, user_message, assistant_message, created_at
		FROM conversations
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversation history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close conversation history rows", "error", closeErr)
		}
	}()

	var turns []*domain.ConversationTurn
	for rows.Next() {
		var turn domain.ConversationTurn
		var createdAt int64
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.UserMessage, &turn.AssistantMessage, &createdAt); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		turn.Timestamp = time.UnixMilli(createdAt)
		turns = append(turns, &turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation history: %w", err)
	}

	return turns, nil
}

// DeleteConversationsBefore removes turns recorded before the cutoff.
func (s *SQLiteStore) DeleteConversationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete old conversations: %w", err)
	}
	return result.RowsAffected()
}

// UpsertContact creates or replaces the contact keyed by its email.
// SQLITE_BUSY failures are retried with exponential backoff.
func (s *SQLiteStore) UpsertContact(ctx context.Context, contact *domain.ContactRecord) error {
	err := shared.RetryOnConflict(ctx, 3, 50*time.Millisecond, "upsert_contact", func() error {
		return s.upsertContactOnce(ctx, contact)
	})
	if err != nil {
		return fmt.Errorf("upsert contact %s: %w", contact.Email, err)
	}
	return nil
}

func (s *SQLiteStore) upsertContactOnce(ctx context.Context, contact *domain.ContactRecord) error {
	s.contactMu.Lock()
	defer s.contactMu.Unlock()

	now := time.Now()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now

	query := `
		INSERT INTO contacts (email, name, session_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			session_id = excluded.session_id,
			updated_at = excluded.updated_at`

	var name, sessionID interface{}
	if contact.Name != "" {
		name = contact.Name
	}
	if contact.SessionID != "" {
		sessionID = contact.SessionID
	}

	_, err := s.db.ExecContext(ctx, query,
		contact.Email, name, sessionID,
		contact.CreatedAt.UnixMilli(), contact.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	return nil
}

// GetContact retrieves a contact by normalized email.
func (s *SQLiteStore) GetContact(ctx context.Context, email string) (*domain.ContactRecord, error) {
	query := `
		SELECT email, name, session_id, created_at, updated_at
		FROM contacts WHERE email = ?`

	row := s.db.QueryRowContext(ctx, query, email)

	var contact domain.ContactRecord
	var name, sessionID sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&contact.Email, &name, &sessionID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan contact row: %w", err)
	}

	contact.Name = name.String
	contact.SessionID = sessionID.String
	contact.CreatedAt = time.UnixMilli(createdAt)
	contact.UpdatedAt = time.UnixMilli(updatedAt)

	return &contact, nil
}

var _ Repository = (*SQLiteStore)(nil)
