package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhake2025/streamchat/internal/feed"
)

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// schema always contains the full current schema; fresh databases get it
// wholesale and start at schemaVersion.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    title TEXT,
    status TEXT NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    sequence INTEGER NOT NULL,
    UNIQUE (session_id, sequence)
);

CREATE TABLE IF NOT EXISTS blocks (
    id TEXT PRIMARY KEY,
    message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
    type TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    sequence INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scroll_positions (
    key TEXT PRIMARY KEY,
    offset INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, sequence);
CREATE INDEX IF NOT EXISTS idx_blocks_message ON blocks(message_id, sequence);

CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT
);
`

// schemaVersion is bumped together with migrations for databases created
// before a schema change.
const schemaVersion = 1

type migration struct {
	version     int
	description string
	up          func(db *sql.DB) error
}

// No migrations yet; version 1 is the initial schema.
var migrations []migration

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, cfg Config) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	s := &SQLiteStore{db: db, cfg: cfg}
	if err := s.cleanup(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: session cleanup failed: %v\n", err)
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	var verStr string
	err := db.QueryRow(`SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&verStr)
	current := 0
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh database: full schema already applied.
		current = schemaVersion
	case err != nil:
		return err
	default:
		fmt.Sscanf(verStr, "%d", &current)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := m.up(db); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		current = m.version
	}

	_, err = db.Exec(`INSERT INTO metadata (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprint(current))
	return err
}

// cleanup removes sessions older than the configured retention.
func (s *SQLiteStore) cleanup() error {
	if s.cfg.MaxAgeDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -s.cfg.MaxAgeDays)
	_, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	return err
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	sess.UpdatedAt = sess.CreatedAt
	if sess.Status == "" {
		sess.Status = feed.StatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Title, string(sess.Status), sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Session(ctx context.Context, id string) (*Session, error) {
	var sess Session
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, status, created_at, updated_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.Title, &status, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.Status = feed.Status(status)
	return &sess, nil
}

func (s *SQLiteStore) Sessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.status, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id)
		FROM sessions s
		ORDER BY s.updated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var status string
		if err := rows.Scan(&sum.ID, &sum.Title, &status, &sum.CreatedAt, &sum.UpdatedAt, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.Status = feed.Status(status)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, id string, status feed.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddMessage(ctx context.Context, m *feed.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, status, created_at, sequence)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, string(m.Role), string(m.Status), m.CreatedAt, m.Seq)
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now(), m.SessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Messages(ctx context.Context, sessionID string, limit, offset int) ([]feed.Message, error) {
	q := `SELECT m.id, m.session_id, m.role, m.status, m.created_at, m.sequence
	      FROM messages m WHERE m.session_id = ? ORDER BY m.sequence`
	args := []any{sessionID}
	if limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var msgs []feed.Message
	for rows.Next() {
		var m feed.Message
		var role, status string
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &status, &m.CreatedAt, &m.Seq); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = feed.Role(role)
		m.Status = feed.Status(status)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Attach block IDs in order.
	for i := range msgs {
		ids, err := s.blockIDs(ctx, msgs[i].ID)
		if err != nil {
			return nil, err
		}
		msgs[i].BlockIDs = ids
	}
	return msgs, nil
}

func (s *SQLiteStore) blockIDs(ctx context.Context, messageID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM blocks WHERE message_id = ? ORDER BY sequence`, messageID)
	if err != nil {
		return nil, fmt.Errorf("load block ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) UpdateMessageStatus(ctx context.Context, id string, status feed.Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// SaveBlock inserts or replaces a block snapshot.
func (s *SQLiteStore) SaveBlock(ctx context.Context, b *feed.Block) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blocks (id, message_id, type, content, status, sequence)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, status = excluded.status`,
		b.ID, b.MessageID, string(b.Type), b.Content, string(b.Status), b.Seq)
	if err != nil {
		return fmt.Errorf("save block: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Block(ctx context.Context, id string) (*feed.Block, error) {
	var b feed.Block
	var typ, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, message_id, type, content, status, sequence FROM blocks WHERE id = ?`, id).
		Scan(&b.ID, &b.MessageID, &typ, &b.Content, &status, &b.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("block %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	b.Type = feed.BlockType(typ)
	b.Status = feed.Status(status)
	return &b, nil
}

func (s *SQLiteStore) ScrollOffset(ctx context.Context, key string) (int, bool, error) {
	var offset int
	err := s.db.QueryRowContext(ctx,
		`SELECT offset FROM scroll_positions WHERE key = ?`, key).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get scroll offset: %w", err)
	}
	return offset, true, nil
}

func (s *SQLiteStore) SetScrollOffset(ctx context.Context, key string, offset int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scroll_positions (key, offset, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET offset = excluded.offset, updated_at = excluded.updated_at`,
		key, offset, time.Now())
	if err != nil {
		return fmt.Errorf("set scroll offset: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
