package store

import (
	"context"

	"github.com/zhake2025/streamchat/internal/feed"
)

// NoopStore is used when persistence is disabled; every operation succeeds
// and nothing survives the process.
type NoopStore struct{}

func (NoopStore) CreateSession(context.Context, *Session) error { return nil }
func (NoopStore) Session(_ context.Context, id string) (*Session, error) {
	return nil, ErrNotFound
}
func (NoopStore) Sessions(context.Context, int) ([]SessionSummary, error) { return nil, nil }
func (NoopStore) UpdateSessionStatus(context.Context, string, feed.Status) error {
	return nil
}
func (NoopStore) DeleteSession(context.Context, string) error    { return nil }
func (NoopStore) AddMessage(context.Context, *feed.Message) error { return nil }
func (NoopStore) Messages(context.Context, string, int, int) ([]feed.Message, error) {
	return nil, nil
}
func (NoopStore) UpdateMessageStatus(context.Context, string, feed.Status) error { return nil }
func (NoopStore) DeleteMessage(context.Context, string) error                    { return nil }
func (NoopStore) SaveBlock(context.Context, *feed.Block) error                   { return nil }
func (NoopStore) Block(_ context.Context, id string) (*feed.Block, error) {
	return nil, ErrNotFound
}
func (NoopStore) ScrollOffset(context.Context, string) (int, bool, error) { return 0, false, nil }
func (NoopStore) SetScrollOffset(context.Context, string, int) error      { return nil }
func (NoopStore) Close() error                                            { return nil }
