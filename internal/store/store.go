// Package store persists conversations and viewport state: sessions,
// messages, blocks, and per-container scroll offsets. Blocks are fetched on
// demand when a message references one that is not resident in memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zhake2025/streamchat/internal/feed"
)

// ErrNotFound is returned when a requested row does not exist. Block loads
// that fail are retried opportunistically on the next render pass.
var ErrNotFound = errors.New("store: not found")

// Session groups a conversation.
type Session struct {
	ID        string
	Title     string
	Status    feed.Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionSummary is a lightweight listing view.
type SessionSummary struct {
	ID           string
	Title        string
	Status       feed.Status
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store is the persistence contract.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, s *Session) error
	Session(ctx context.Context, id string) (*Session, error)
	Sessions(ctx context.Context, limit int) ([]SessionSummary, error)
	UpdateSessionStatus(ctx context.Context, id string, status feed.Status) error
	DeleteSession(ctx context.Context, id string) error

	// Messages, ordered by sequence within a session
	AddMessage(ctx context.Context, m *feed.Message) error
	Messages(ctx context.Context, sessionID string, limit, offset int) ([]feed.Message, error)
	UpdateMessageStatus(ctx context.Context, id string, status feed.Status) error
	DeleteMessage(ctx context.Context, id string) error

	// Blocks
	SaveBlock(ctx context.Context, b *feed.Block) error
	Block(ctx context.Context, id string) (*feed.Block, error)

	// Scroll offsets, keyed per container
	ScrollOffset(ctx context.Context, key string) (offset int, ok bool, err error)
	SetScrollOffset(ctx context.Context, key string, offset int) error

	Close() error
}

// Config holds storage configuration.
type Config struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxAgeDays int  `mapstructure:"max_age_days"` // auto-delete after N days (0=never)
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{Enabled: true}
}

// DataDir returns the XDG data directory for streamchat.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "streamchat"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "streamchat"), nil
}

// DefaultDBPath returns the path of the conversations database.
func DefaultDBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "conversations.db"), nil
}

// New creates a store from the configuration; disabled storage yields a
// no-op store so the TUI runs without persistence.
func New(cfg Config) (Store, error) {
	if !cfg.Enabled {
		return &NoopStore{}, nil
	}
	path, err := DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return OpenSQLite(path, cfg)
}
