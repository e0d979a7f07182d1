package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/zhake2025/streamchat/internal/feed"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), DefaultConfig())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := &Session{ID: "s1", Title: "first chat"}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}

	got, err := s.Session(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "first chat" || got.Status != feed.StatusPending {
		t.Errorf("unexpected session: %+v", got)
	}

	if err := s.UpdateSessionStatus(ctx, "s1", feed.StatusComplete); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Session(ctx, "s1")
	if got.Status != feed.StatusComplete {
		t.Errorf("status not updated: %s", got.Status)
	}

	if _, err := s.Session(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMessagesAndBlocksRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateSession(ctx, &Session{ID: "s1"}); err != nil {
		t.Fatal(err)
	}

	m := &feed.Message{
		ID: "m1", SessionID: "s1", Role: feed.RoleAssistant,
		Status: feed.StatusStreaming, CreatedAt: time.Now(), Seq: 0,
	}
	if err := s.AddMessage(ctx, m); err != nil {
		t.Fatal(err)
	}

	b := &feed.Block{ID: "b1", MessageID: "m1", Type: feed.BlockText,
		Content: "partial", Status: feed.StatusStreaming, Seq: 0}
	if err := s.SaveBlock(ctx, b); err != nil {
		t.Fatal(err)
	}
	// Upsert with the completion snapshot.
	b.Content = "partial and then some"
	b.Status = feed.StatusComplete
	if err := s.SaveBlock(ctx, b); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.Messages(ctx, "s1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || len(msgs[0].BlockIDs) != 1 || msgs[0].BlockIDs[0] != "b1" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	got, err := s.Block(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "partial and then some" || got.Status != feed.StatusComplete {
		t.Errorf("unexpected block: %+v", got)
	}

	if _, err := s.Block(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing block, got %v", err)
	}
}

func TestDeleteMessageCascadesBlocks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.CreateSession(ctx, &Session{ID: "s1"})
	_ = s.AddMessage(ctx, &feed.Message{
		ID: "m1", SessionID: "s1", Role: feed.RoleUser,
		Status: feed.StatusComplete, CreatedAt: time.Now(),
	})
	_ = s.SaveBlock(ctx, &feed.Block{ID: "b1", MessageID: "m1",
		Type: feed.BlockText, Status: feed.StatusComplete})

	if err := s.DeleteMessage(ctx, "m1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Block(ctx, "b1"); !errors.Is(err, ErrNotFound) {
		t.Error("block survived message deletion")
	}
}

func TestMessageOrderIsSequence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_ = s.CreateSession(ctx, &Session{ID: "s1"})

	// Insert out of order; reads come back in sequence order.
	for _, seq := range []int{2, 0, 1} {
		err := s.AddMessage(ctx, &feed.Message{
			ID: "m" + string(rune('a'+seq)), SessionID: "s1",
			Role: feed.RoleUser, Status: feed.StatusComplete,
			CreatedAt: time.Now(), Seq: seq,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := s.Messages(ctx, "s1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range msgs {
		if m.Seq != i {
			t.Errorf("position %d holds sequence %d", i, m.Seq)
		}
	}
}

func TestScrollOffsets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.ScrollOffset(ctx, "chat:s1"); err != nil || ok {
		t.Fatalf("expected no offset yet, ok=%v err=%v", ok, err)
	}

	if err := s.SetScrollOffset(ctx, "chat:s1", 42); err != nil {
		t.Fatal(err)
	}
	if err := s.SetScrollOffset(ctx, "chat:s1", 77); err != nil {
		t.Fatal(err)
	}

	off, ok, err := s.ScrollOffset(ctx, "chat:s1")
	if err != nil || !ok || off != 77 {
		t.Errorf("expected offset 77, got %d (ok=%v err=%v)", off, ok, err)
	}
}

func TestSessionsListing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.CreateSession(ctx, &Session{ID: "s1", Title: "one"})
	_ = s.CreateSession(ctx, &Session{ID: "s2", Title: "two"})
	_ = s.AddMessage(ctx, &feed.Message{ID: "m1", SessionID: "s2",
		Role: feed.RoleUser, Status: feed.StatusComplete, CreatedAt: time.Now()})

	sums, err := s.Sessions(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sums))
	}
	// s2 was touched last, so it lists first.
	if sums[0].ID != "s2" || sums[0].MessageCount != 1 {
		t.Errorf("unexpected first summary: %+v", sums[0])
	}
}
