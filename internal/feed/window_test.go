package feed

import (
	"fmt"
	"testing"
)

func fill(f *Feed, n int) []*Message {
	msgs := make([]*Message, n)
	for i := 0; i < n; i++ {
		m := NewMessage("s1", RoleUser)
		m.ID = fmt.Sprintf("msg-%02d", i+1)
		f.Append(m)
		msgs[i] = m
	}
	return msgs
}

func TestWindow_Initial(t *testing.T) {
	f := New(20, 20)
	fill(f, 50)

	w := f.Window()
	if w.Start != 30 || w.Count != 20 || w.Total != 50 {
		t.Errorf("expected window [30,50) of 50, got %+v", w)
	}

	vis := f.Visible()
	if vis[0].ID != "msg-31" || vis[len(vis)-1].ID != "msg-50" {
		t.Errorf("expected messages 31..50, got %s..%s", vis[0].ID, vis[len(vis)-1].ID)
	}
}

func TestWindow_FewerThanDisplayCount(t *testing.T) {
	f := New(20, 20)
	fill(f, 5)

	w := f.Window()
	if w.Start != 0 || w.Count != 5 {
		t.Errorf("expected window [0,5), got %+v", w)
	}
	if f.HasMore() {
		t.Error("expected no more messages above the window")
	}
}

func TestLoadMore_Expansion(t *testing.T) {
	f := New(20, 20)
	fill(f, 50)

	if !f.LoadMore() {
		t.Fatal("expected load more to start")
	}
	f.FinishLoad()

	w := f.Window()
	if w.Start != 10 || w.Count != 40 {
		t.Errorf("expected window [10,50), got %+v", w)
	}
	vis := f.Visible()
	if vis[0].ID != "msg-11" {
		t.Errorf("expected window to start at msg-11, got %s", vis[0].ID)
	}
}

func TestLoadMore_IdempotentWhileInFlight(t *testing.T) {
	f := New(20, 20)
	fill(f, 100)

	if !f.LoadMore() {
		t.Fatal("expected first load more to start")
	}
	// Duplicate triggers while the first expansion is in flight are ignored.
	if f.LoadMore() {
		t.Error("duplicate load more was not ignored")
	}
	if got := f.Window().Count; got != 40 {
		t.Errorf("expected one increment (40 visible), got %d", got)
	}

	f.FinishLoad()
	if !f.LoadMore() {
		t.Error("expected load more to re-arm after FinishLoad")
	}
}

func TestLoadMore_NothingAbove(t *testing.T) {
	f := New(20, 20)
	fill(f, 10)
	if f.LoadMore() {
		t.Error("load more should refuse when the window already covers everything")
	}
}

func TestAppend_TailTracksWindowEnd(t *testing.T) {
	f := New(20, 20)
	fill(f, 50)

	m := NewMessage("s1", RoleAssistant)
	m.ID = "msg-51"
	f.Append(m)

	w := f.Window()
	if w.Total != 51 || w.Start+w.Count != 51 {
		t.Errorf("window end does not track the tail: %+v", w)
	}
	vis := f.Visible()
	if vis[len(vis)-1].ID != "msg-51" {
		t.Errorf("expected tail msg-51, got %s", vis[len(vis)-1].ID)
	}
}

func TestRemove_ByIdentity(t *testing.T) {
	f := New(20, 20)
	msgs := fill(f, 5)

	b := NewBlock(msgs[2].ID, BlockText, 0)
	msgs[2].BlockIDs = []string{b.ID}
	f.PutBlock(b)

	if !f.Remove(msgs[2].ID) {
		t.Fatal("expected removal to succeed")
	}
	if f.Remove(msgs[2].ID) {
		t.Error("second removal of the same ID should report false")
	}
	if _, ok := f.Block(b.ID); ok {
		t.Error("blocks of a removed message must be excised immediately")
	}
	if f.Len() != 4 {
		t.Errorf("expected 4 messages, got %d", f.Len())
	}

	// Remaining order is unchanged.
	vis := f.Visible()
	want := []string{"msg-01", "msg-02", "msg-04", "msg-05"}
	for i, id := range want {
		if vis[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, vis[i].ID)
		}
	}
}

func TestSetBlockContent_TerminalBlocksImmutable(t *testing.T) {
	f := New(20, 20)
	b := NewBlock("m1", BlockText, 0)
	f.PutBlock(b)

	if !f.SetBlockContent(b.ID, "partial", StatusStreaming) {
		t.Fatal("expected streaming write to succeed")
	}
	if !f.SetBlockContent(b.ID, "final", StatusComplete) {
		t.Fatal("expected completing write to succeed")
	}
	if f.SetBlockContent(b.ID, "late delta", StatusStreaming) {
		t.Error("write to a complete block must be refused")
	}
	got, _ := f.Block(b.ID)
	if got.Content != "final" {
		t.Errorf("expected content to remain %q, got %q", "final", got.Content)
	}
}
