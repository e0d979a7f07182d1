package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhake2025/streamchat/internal/feed"
	"github.com/zhake2025/streamchat/internal/scroll"
	"github.com/zhake2025/streamchat/internal/stream"
)

func (m *Model) sendMessage(content string) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	// User message lands complete immediately
	userMsg := feed.NewMessage(m.sess.ID, feed.RoleUser)
	userMsg.Status = feed.StatusComplete
	userBlock := feed.NewBlock(userMsg.ID, feed.BlockText, 0)
	userBlock.Content = content
	userBlock.Status = feed.StatusComplete
	userMsg.BlockIDs = []string{userBlock.ID}
	m.feed.Append(userMsg)
	m.feed.PutBlock(userBlock)

	if m.store != nil {
		_ = m.store.AddMessage(ctx, userMsg)
		_ = m.store.SaveBlock(ctx, userBlock)
		if m.sess.Title == "" {
			m.sess.Title = truncateTitle(content)
		}
	}

	// Assistant placeholder the stream writes into
	asstMsg := feed.NewMessage(m.sess.ID, feed.RoleAssistant)
	m.feed.Append(asstMsg)
	if m.store != nil {
		_ = m.store.AddMessage(ctx, asstMsg)
		_ = m.store.UpdateSessionStatus(ctx, m.sess.ID, feed.StatusStreaming)
	}

	m.textarea.SetValue("")
	m.textarea.SetHeight(1)

	m.streaming = true
	m.streamMsgID = asstMsg.ID
	m.streamBlockID = ""
	m.streamStartTime = time.Now()
	m.err = nil
	m.invalidateHistory()

	// Sending a message always snaps to the bottom, even if the user had
	// scrolled up.
	m.scroll.Request(scroll.SourceForceScroll, true)
	m.scroll.Apply(time.Now())

	m.controller = stream.NewController(asstMsg.ID, m.throttle, func(u stream.Update) {
		m.updates <- u
	})
	m.controller.Attach(m.bus)

	return m, tea.Batch(
		m.startStream(asstMsg.ID),
		m.waitForUpdate(),
		m.spinner.Tick,
		m.scrollTick(),
	)
}

// startStream plays the next transcript turn onto the bus from a command
// goroutine. The controller picks the events up and throttles them back into
// the update channel.
func (m *Model) startStream(messageID string) tea.Cmd {
	streamCtx, cancel := context.WithCancel(context.Background())
	m.streamCancel = cancel
	turn := m.producer.NextTurn()

	return func() tea.Msg {
		err := m.producer.StreamTurn(streamCtx, messageID, turn)
		return streamDoneMsg{err: err}
	}
}

// waitForUpdate blocks on the next controller update. Re-issued after every
// delivery for the lifetime of the stream.
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return nil
		}
		return streamUpdateMsg{update: u}
	}
}

func (m *Model) handleStreamUpdate(u stream.Update) (tea.Model, tea.Cmd) {
	if u.MessageID != m.streamMsgID {
		// Stale update from a stream that was already torn down
		return m, m.waitForUpdate()
	}

	if u.BlockID != "" && (u.Snapshot != "" || u.Final) {
		m.applySnapshot(u)
	}

	switch u.State {
	case stream.StateComplete:
		if u.BlockID == "" {
			m.finishStream(feed.StatusComplete, nil)
			return m, nil
		}
	case stream.StateError:
		m.finishStream(feed.StatusError, u.Err)
		return m, nil
	case stream.StateInterrupted:
		m.finishStream(feed.StatusInterrupted, nil)
		return m, nil
	}

	return m, m.waitForUpdate()
}

// applySnapshot writes a committed snapshot into the feed, creating the block
// on first contact.
func (m *Model) applySnapshot(u stream.Update) {
	if _, ok := m.feed.Block(u.BlockID); !ok {
		msg, found := m.feed.Get(u.MessageID)
		if !found {
			return
		}
		kind := m.blockKind(u.BlockID)
		block := &feed.Block{
			ID:        u.BlockID,
			MessageID: u.MessageID,
			Type:      kind,
			Status:    feed.StatusStreaming,
			Seq:       len(msg.BlockIDs),
		}
		m.feed.PutBlock(block)
		msg.BlockIDs = append(msg.BlockIDs, u.BlockID)
		m.feed.SetMessageStatus(u.MessageID, feed.StatusStreaming)
		if kind == feed.BlockText {
			m.streamBlockID = u.BlockID
			m.renderer.Begin(m.tier, len(u.Snapshot))
		}
	}

	status := stream.BlockStatus(u.State, u.Final)
	m.feed.SetBlockContent(u.BlockID, u.Snapshot, status)
	m.bumpContentVersion()
	m.scroll.Request(scroll.SourceTextDelta, false)

	if u.Final && m.store != nil {
		if b, ok := m.feed.Block(u.BlockID); ok {
			_ = m.store.SaveBlock(context.Background(), b)
		}
	}
}

// finishStream settles the message in a terminal state. Partial content is
// preserved on error and interruption.
func (m *Model) finishStream(status feed.Status, err error) {
	if !m.streaming {
		return
	}
	m.streaming = false
	m.err = err

	// On error/interrupt, committed snapshots may trail the accumulated
	// content; promote whatever the throttlers captured before freezing
	// the blocks.
	if status != feed.StatusComplete {
		if msg, ok := m.feed.Get(m.streamMsgID); ok {
			for _, blockID := range msg.BlockIDs {
				b, found := m.feed.Block(blockID)
				if !found || b.Status.Terminal() {
					continue
				}
				content := m.controller.Content(blockID)
				if len(content) < len(b.Content) {
					content = b.Content
				}
				m.feed.SetBlockContent(blockID, content, status)
			}
		}
	}

	m.feed.SetMessageStatus(m.streamMsgID, status)
	m.persistFinalState(status)

	m.controller.Detach()
	m.streamCancel = nil
	if status == feed.StatusComplete {
		m.finalizePending = true
	}

	// The full-fidelity re-render happens once; history rebuilds pick the
	// finalized output up from the render cache.
	m.invalidateHistory()
	m.scroll.Request(scroll.SourceMessageLengthChange, false)
	m.scroll.Apply(time.Now())
}

func (m *Model) persistFinalState(status feed.Status) {
	if m.store == nil {
		return
	}
	ctx := context.Background()
	_ = m.store.UpdateMessageStatus(ctx, m.streamMsgID, status)
	_ = m.store.UpdateSessionStatus(ctx, m.sess.ID, status)
	if msg, ok := m.feed.Get(m.streamMsgID); ok {
		for _, blockID := range msg.BlockIDs {
			if b, found := m.feed.Block(blockID); found {
				_ = m.store.SaveBlock(ctx, b)
			}
		}
	}
}

// cancelStream aborts the active stream, keeping partial output.
func (m *Model) cancelStream() {
	if !m.streaming {
		return
	}
	if m.streamCancel != nil {
		m.streamCancel()
	}
	// Cancel emits the interrupted update; finishStream runs when it arrives
	// through the update channel.
	m.controller.Cancel()
}

func truncateTitle(s string) string {
	const max = 80
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
