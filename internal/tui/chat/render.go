package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zhake2025/streamchat/internal/feed"
	"github.com/zhake2025/streamchat/internal/ui"
)

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	title := "streamchat"
	if m.sess != nil && m.sess.Title != "" {
		title = "streamchat - " + ui.Truncate(m.sess.Title, 40)
	}
	titleSeq := fmt.Sprintf("\x1b]0;%s\x07", title)

	var b strings.Builder

	m.refreshViewport()

	b.WriteString(m.scroll.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.textarea.View())

	return titleSeq + b.String()
}

// refreshViewport rebuilds viewport content when the version moved and the
// SetContent throttle window has passed.
func (m *Model) refreshViewport() {
	// History cache keyed by message count, width, and window position
	w := m.feed.Window()
	historyValid := m.viewCache.historyValid &&
		m.viewCache.historyMsgCount == w.Total &&
		m.viewCache.historyWidth == m.width &&
		m.viewCache.historyWindowStart == w.Start
	if !historyValid {
		content, complete := m.renderHistory()
		m.viewCache.historyContent = content
		m.viewCache.historyMsgCount = w.Total
		m.viewCache.historyWidth = m.width
		m.viewCache.historyWindowStart = w.Start
		// A block hydration miss leaves the cache invalid so the next pass
		// retries the fetch.
		m.viewCache.historyValid = complete
		m.bumpContentVersion()
	}

	contentChanged := m.viewCache.contentVersion != m.viewCache.lastRenderedVersion
	if contentChanged && m.shouldThrottleSetContent(time.Now()) {
		contentChanged = false
	}
	if !contentChanged {
		return
	}

	contentStr := m.viewCache.historyContent
	if m.streaming {
		contentStr += m.renderStreamingTail()
	} else if m.err != nil {
		contentStr += "\n" + m.renderError() + "\n"
	}

	m.scroll.SetContent(contentStr)
	m.viewCache.lastSetContentAt = time.Now()
	m.viewCache.lastRenderedVersion = m.viewCache.contentVersion

	// Restore the persisted offset once the first real content is mounted
	if !m.scrollRestored {
		m.scrollRestored = true
		if m.cfg.Chat.RestoreScroll {
			_ = m.scroll.RestoreOnce(context.Background())
		}
	}
}

// shouldThrottleSetContent bounds SetContent frequency during streaming;
// rebuilding viewport content is the most expensive per-frame operation.
func (m *Model) shouldThrottleSetContent(now time.Time) bool {
	if !m.streaming {
		return false
	}
	if m.streamRenderMinInterval <= 0 {
		return false
	}
	if m.viewCache.lastSetContentAt.IsZero() {
		return false
	}
	return now.Sub(m.viewCache.lastSetContentAt) < m.streamRenderMinInterval
}

// renderHistory renders every visible message except the one currently
// streaming. Returns complete=false when a block fetch missed.
func (m *Model) renderHistory() (string, bool) {
	var b strings.Builder
	complete := true

	if m.feed.HasMore() {
		b.WriteString(m.styles.Muted.Render("  ↑ older messages (pgup)"))
		b.WriteString("\n\n")
	}

	for _, msg := range m.feed.Visible() {
		if m.streaming && msg.ID == m.streamMsgID {
			continue
		}
		rendered, ok := m.renderMessage(msg)
		if !ok {
			complete = false
		}
		b.WriteString(rendered)
		b.WriteString("\n")
	}
	return b.String(), complete
}

func (m *Model) renderMessage(msg *feed.Message) (string, bool) {
	var b strings.Builder
	complete := true

	switch msg.Role {
	case feed.RoleUser:
		b.WriteString(m.styles.UserLabel.Render("❯ you"))
	case feed.RoleAssistant:
		label := m.styles.AssistantLabel.Render("assistant")
		icon := m.styles.FormatStatus(string(msg.Status))
		b.WriteString(label)
		if icon != "" {
			b.WriteString(" " + icon)
		}
	default:
		b.WriteString(m.styles.Muted.Render(string(msg.Role)))
	}
	b.WriteString("\n")

	for _, blockID := range msg.BlockIDs {
		block, ok := m.blockForRender(blockID)
		if !ok {
			b.WriteString(m.styles.Muted.Render("  …"))
			b.WriteString("\n")
			complete = false
			continue
		}
		b.WriteString(m.renderBlock(msg, block))
	}

	if msg.Status == feed.StatusInterrupted {
		b.WriteString(m.styles.Warning.Render("◌ interrupted"))
		b.WriteString("\n")
	}
	if msg.Status == feed.StatusError {
		b.WriteString(m.renderError())
		b.WriteString("\n")
	}

	return b.String(), complete
}

func (m *Model) renderBlock(msg *feed.Message, block *feed.Block) string {
	switch block.Type {
	case feed.BlockThinking:
		return m.renderThinking(block) + "\n"

	case feed.BlockText:
		if msg.Status == feed.StatusComplete && block.Status == feed.StatusComplete {
			return m.renderCompleteText(block) + "\n"
		}
		// Partial output from errored or interrupted streams stays plain
		return block.Content + "\n"

	case feed.BlockTool:
		hl := ui.NewHighlighter("json")
		return m.styles.Muted.Render("tool output") + "\n" + hl.Highlight(block.Content) + "\n"

	case feed.BlockCitation:
		return m.styles.Muted.Render("• "+block.Content) + "\n"
	}
	return block.Content + "\n"
}

// renderCompleteText renders finished text at full fidelity. The first render
// after a stream completes consumes the one-shot finalize pass.
func (m *Model) renderCompleteText(block *feed.Block) string {
	if m.finalizePending && block.ID == m.streamBlockID {
		m.finalizePending = false
		if out, ok := m.renderer.Finalize(block.Content, m.width, m.contentHeight()); ok {
			return out
		}
	}
	return m.renderer.RenderComplete(block.Content, m.width, m.contentHeight())
}

// renderThinking collapses thinking content to a single summary line.
func (m *Model) renderThinking(block *feed.Block) string {
	if !block.Status.Terminal() {
		return m.styles.Thinking.Render("∴ thinking…")
	}
	summary := block.Content
	if i := strings.IndexByte(summary, '\n'); i >= 0 {
		summary = summary[:i]
	}
	return m.styles.Thinking.Render("∴ " + ui.Truncate(summary, m.width-4))
}

// renderStreamingTail renders the in-flight assistant message below the
// settled history.
func (m *Model) renderStreamingTail() string {
	var b strings.Builder

	b.WriteString(m.styles.AssistantLabel.Render("assistant"))
	b.WriteString(" " + m.spinner.View())
	b.WriteString("\n")

	msg, ok := m.feed.Get(m.streamMsgID)
	if !ok {
		return b.String()
	}
	for _, blockID := range msg.BlockIDs {
		block, found := m.feed.Block(blockID)
		if !found {
			continue
		}
		switch block.Type {
		case feed.BlockThinking:
			b.WriteString(m.renderThinking(block))
			b.WriteString("\n")
		case feed.BlockText:
			b.WriteString(m.renderer.RenderStreaming(block.Content, m.width, m.contentHeight()))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) renderError() string {
	if m.err == nil {
		return ""
	}
	return m.styles.Error.Render("✗ stream failed: " + m.err.Error())
}

func (m *Model) renderStatusLine() string {
	var left string
	if m.streaming {
		elapsed := time.Since(m.streamStartTime)
		left = fmt.Sprintf("%s streaming %s · %s/%s",
			m.spinner.View(), formatElapsed(elapsed), m.tier, m.renderer.Strategy())
	} else {
		left = fmt.Sprintf("tier:%s · %d messages", m.tier, m.feed.Len())
	}

	right := "auto-scroll on"
	if !m.cfg.Chat.AutoScroll {
		right = "auto-scroll off"
	} else if m.scroll.UserScrolledUp() {
		right = "scrolled up · end to follow"
	}

	return m.styles.Footer.Render(left + "   " + right)
}

// blockForRender returns a resident block, hydrating from the store on a
// miss. A failed fetch renders a placeholder and retries next pass.
func (m *Model) blockForRender(id string) (*feed.Block, bool) {
	if b, ok := m.feed.Block(id); ok {
		return b, true
	}
	if m.store == nil {
		return nil, false
	}
	b, err := m.store.Block(context.Background(), id)
	if err != nil {
		return nil, false
	}
	m.feed.PutBlock(b)
	return b, true
}

func (m *Model) contentHeight() int {
	h := m.height - inputReservedRows
	if h < 1 {
		h = 1
	}
	return h
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
