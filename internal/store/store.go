// Package store provides a SQLite-backed persistence layer for the grounded
// memory service. It holds two things: per-session conversation history that
// is replayed into the generator's context window, and an audit trail of
// every grounded answer with the citations it was built from.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser is a message sent by the human operator.
	RoleUser Role = "user"
	// RoleAssistant is a message produced by the generator.
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	// Role is the author of the message.
	Role Role
	// Content is the text of the message.
	Content string
	// CreatedAt is when the message was persisted.
	CreatedAt time.Time
}

// AnswerRecord is one grounded answer as written to the audit trail.
type AnswerRecord struct {
	// Session is the conversation the answer belongs to.
	Session string
	// Question is the user question as asked.
	Question string
	// Answer is the full answer text.
	Answer string
	// Grounded is false when the fallback answer was returned.
	Grounded bool
	// Sources holds the citation list as serialised JSON.
	Sources string
	// CreatedAt is when the answer was persisted.
	CreatedAt time.Time
}

// ConversationStore persists and retrieves conversation history keyed by
// session ID. Implementations must be safe for concurrent use.
type ConversationStore interface {
	// Append persists a single message for the given session.
	Append(ctx context.Context, session string, role Role, content string) error
	// Recent returns the most recent n messages for the session, ordered
	// oldest-first so they can be prepended to the LLM message slice directly.
	Recent(ctx context.Context, session string, n int) ([]Message, error)
	// RecordAnswer appends a grounded answer to the audit trail. sources is
	// marshalled to JSON; a nil value records an empty list.
	RecordAnswer(ctx context.Context, session, question, answer string, grounded bool, sources any) error
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a ConversationStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the history database,
// ~/.mem0/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".mem0")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Single writer connection avoids SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS conversations (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session      TEXT    NOT NULL,
    role         TEXT    NOT NULL CHECK(role IN ('user','assistant')),
    content      TEXT    NOT NULL,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_conversations_session_created
    ON conversations (session, created_at);

CREATE TABLE IF NOT EXISTS answers (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session      TEXT    NOT NULL,
    question     TEXT    NOT NULL,
    answer       TEXT    NOT NULL,
    grounded     INTEGER NOT NULL,
    sources      TEXT    NOT NULL DEFAULT '[]',
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answers_session_created
    ON answers (session, created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists a single message for the given session.
func (s *SQLiteStore) Append(ctx context.Context, session string, role Role, content string) error {
	const q = `INSERT INTO conversations (session, role, content, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, session, string(role), content, time.Now().Unix()); err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n messages for the session, ordered
// oldest-first. Uses a subquery to select the tail then re-order for injection.
func (s *SQLiteStore) Recent(ctx context.Context, session string, n int) ([]Message, error) {
	const q = `
SELECT role, content, created_at FROM (
    SELECT id, role, content, created_at
    FROM   conversations
    WHERE  session = ?
    ORDER  BY created_at DESC, id DESC
    LIMIT  ?
) ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, session, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var ts int64
		var role string
		if err := rows.Scan(&role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		m.Role = Role(role)
		m.CreatedAt = time.Unix(ts, 0)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return msgs, nil
}

// RecordAnswer appends a grounded answer to the audit trail.
func (s *SQLiteStore) RecordAnswer(ctx context.Context, session, question, answer string, grounded bool, sources any) error {
	srcJSON := []byte("[]")
	if sources != nil {
		b, err := json.Marshal(sources)
		if err != nil {
			return fmt.Errorf("store: marshal sources: %w", err)
		}
		srcJSON = b
	}

	groundedInt := 0
	if grounded {
		groundedInt = 1
	}

	const q = `INSERT INTO answers (session, question, answer, grounded, sources, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, session, question, answer, groundedInt, string(srcJSON), time.Now().Unix()); err != nil {
		return fmt.Errorf("store: record answer: %w", err)
	}
	return nil
}

// RecentAnswers returns the most recent n audit records for the session,
// newest first.
func (s *SQLiteStore) RecentAnswers(ctx context.Context, session string, n int) ([]AnswerRecord, error) {
	const q = `
SELECT session, question, answer, grounded, sources, created_at
FROM   answers
WHERE  session = ?
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, session, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent answers: %w", err)
	}
	defer rows.Close()

	var recs []AnswerRecord
	for rows.Next() {
		var r AnswerRecord
		var ts int64
		var grounded int
		if err := rows.Scan(&r.Session, &r.Question, &r.Answer, &grounded, &r.Sources, &ts); err != nil {
			return nil, fmt.Errorf("store: recent answers scan: %w", err)
		}
		r.Grounded = grounded != 0
		r.CreatedAt = time.Unix(ts, 0)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent answers rows: %w", err)
	}
	return recs, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
