// Package chat is the interactive TUI: a scrollable message feed fed by
// throttled stream events, with an input line fixed at the bottom.
package chat

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/zhake2025/streamchat/internal/bus"
	"github.com/zhake2025/streamchat/internal/config"
	"github.com/zhake2025/streamchat/internal/debuglog"
	"github.com/zhake2025/streamchat/internal/feed"
	"github.com/zhake2025/streamchat/internal/render"
	"github.com/zhake2025/streamchat/internal/replay"
	"github.com/zhake2025/streamchat/internal/scroll"
	"github.com/zhake2025/streamchat/internal/store"
	"github.com/zhake2025/streamchat/internal/stream"
	"github.com/zhake2025/streamchat/internal/ui"
)

// inputReservedRows is the vertical space kept for the input and status lines.
const inputReservedRows = 4

// Model is the bubbletea model for the chat screen.
type Model struct {
	// Dimensions
	width  int
	height int

	// Components
	textarea textarea.Model
	spinner  spinner.Model
	styles   *ui.Styles
	keyMap   KeyMap

	// Session state
	cfg   *config.Config
	store store.Store
	sess  *store.Session
	feed  *feed.Feed

	// Streaming plumbing
	bus        *bus.Bus
	producer   *replay.Producer
	controller *stream.Controller
	updates    chan stream.Update
	debugLog   *debuglog.Logger
	logDetach  func()
	busDetach  []func()

	// Rendering
	tier     render.Tier
	throttle time.Duration
	renderer *render.Adaptive
	scroll   *scroll.Coordinator

	// Active stream
	streaming       bool
	streamMsgID     string
	streamBlockID   string // text block currently receiving committed snapshots
	streamStartTime time.Time
	streamCancel    context.CancelFunc

	// Block kinds observed on the bus, keyed by block ID. Written from bus
	// handlers, read on the UI loop.
	kindsMu    sync.Mutex
	blockKinds map[string]feed.BlockType

	viewCache               viewCache
	streamRenderMinInterval time.Duration
	scrollRestored          bool
	finalizePending         bool

	quitting bool
	err      error
}

// viewCache avoids rebuilding viewport content when nothing changed.
// contentVersion bumps on every visible mutation; SetContent runs only when
// it is ahead of lastRenderedVersion and outside the throttle window.
type viewCache struct {
	historyValid       bool
	historyContent     string
	historyMsgCount    int
	historyWidth       int
	historyWindowStart int

	contentVersion      uint64
	lastRenderedVersion uint64
	lastSetContentAt    time.Time
}

// Messages for tea.Program
type (
	streamUpdateMsg struct{ update stream.Update }
	streamDoneMsg   struct{ err error }
	tickMsg         time.Time
	scrollTickMsg   time.Time
)

// Options carries everything the chat screen needs at startup.
type Options struct {
	Config     *config.Config
	Store      store.Store
	Session    *store.Session
	Transcript *replay.Transcript
	DebugLog   *debuglog.Logger
}

// New creates a new chat model.
func New(opts Options) *Model {
	cfg := opts.Config

	width := 80
	height := 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	styles := ui.DefaultStyles()
	s.Style = styles.Spinner

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = "❯ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0 // No limit
	ta.SetWidth(width)
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.Theme().Muted)
	ta.FocusedStyle.EndOfBuffer = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(styles.Theme().Primary).Bold(true)
	ta.BlurredStyle = ta.FocusedStyle
	ta.Focus()

	tier := render.DetectTier(cfg.Render.Tier, lipgloss.ColorProfile())
	throttle := tier.ThrottleInterval()
	if cfg.Stream.ThrottleMs > 0 {
		throttle = time.Duration(cfg.Stream.ThrottleMs) * time.Millisecond
	}

	f := feed.New(cfg.Chat.DisplayCount, cfg.Chat.LoadMoreIncrement)

	// Resuming: mount the full message list; block content hydrates lazily
	if opts.Store != nil && opts.Session != nil {
		if msgs, err := opts.Store.Messages(context.Background(), opts.Session.ID, 0, 0); err == nil {
			for i := range msgs {
				msg := msgs[i]
				f.Append(&msg)
			}
		}
	}

	b := bus.New()

	sc := scroll.New(width, height-inputReservedRows,
		"chat:"+opts.Session.ID, cfg.Chat.AutoScroll, opts.Store)

	m := &Model{
		width:                   width,
		height:                  height,
		textarea:                ta,
		spinner:                 s,
		styles:                  styles,
		keyMap:                  DefaultKeyMap(),
		cfg:                     cfg,
		store:                   opts.Store,
		sess:                    opts.Session,
		feed:                    f,
		bus:                     b,
		producer:                replay.NewProducer(b, opts.Transcript),
		updates:                 make(chan stream.Update, 256),
		debugLog:                opts.DebugLog,
		tier:                    tier,
		throttle:                throttle,
		renderer:                render.NewAdaptive(nil),
		scroll:                  sc,
		blockKinds:              make(map[string]feed.BlockType),
		streamRenderMinInterval: time.Duration(cfg.Stream.RenderMinIntervalMs) * time.Millisecond,
	}
	m.logDetach = opts.DebugLog.Attach(b)

	// The controller does not distinguish thinking from text traffic, so the
	// block kind is recorded here as the deltas pass by.
	m.busDetach = append(m.busDetach,
		b.On(bus.TextDelta, m.recordKind(feed.BlockText)),
		b.On(bus.ThinkingDelta, m.recordKind(feed.BlockThinking)),
	)

	// Producer-side snap-to-bottom: the coordinator is mutex-guarded, so the
	// request is safe from the emitter's goroutine.
	m.busDetach = append(m.busDetach,
		b.On(bus.ForceScrollToBottom, func(bus.Payload) {
			m.scroll.Request(scroll.SourceForceScroll, true)
		}),
	)
	return m
}

func (m *Model) recordKind(kind feed.BlockType) bus.Handler {
	return func(p bus.Payload) {
		m.kindsMu.Lock()
		defer m.kindsMu.Unlock()
		if _, ok := m.blockKinds[p.BlockID]; !ok {
			m.blockKinds[p.BlockID] = kind
		}
	}
}

func (m *Model) blockKind(blockID string) feed.BlockType {
	m.kindsMu.Lock()
	defer m.kindsMu.Unlock()
	if kind, ok := m.blockKinds[blockID]; ok {
		return kind
	}
	return feed.BlockText
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.tickEvery(),
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(m.width)
		m.scroll.SetSize(m.width, m.height-inputReservedRows)
		m.invalidateHistory()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		// Wheel scrolling goes straight to the viewport; the coordinator
		// records whether the user left the bottom.
		cmd := m.scroll.Update(msg)
		m.bumpContentVersion()
		return m, cmd

	case spinner.TickMsg:
		if m.streaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tickMsg:
		m.scroll.Apply(time.Now())
		return m, m.tickEvery()

	case scrollTickMsg:
		if m.scroll.Apply(time.Now()) {
			m.bumpContentVersion()
		}
		if m.streaming {
			return m, m.scrollTick()
		}
		return m, nil

	case streamUpdateMsg:
		return m.handleStreamUpdate(msg.update)

	case streamDoneMsg:
		// Terminal state arrives via the controller; the producer result
		// only matters when the context was torn down mid-emit.
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m.quit()

	case key.Matches(msg, m.keyMap.Cancel):
		if m.streaming {
			m.cancelStream()
			return m, nil
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Send):
		content := m.textarea.Value()
		if content == "" || m.streaming {
			return m, nil
		}
		return m.sendMessage(content)

	case key.Matches(msg, m.keyMap.Newline), key.Matches(msg, m.keyMap.NewlineAlt):
		m.textarea.InsertString("\n")
		return m, nil

	case key.Matches(msg, m.keyMap.ClearLine):
		m.textarea.SetValue("")
		m.textarea.SetHeight(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp),
		key.Matches(msg, m.keyMap.PageDown),
		key.Matches(msg, m.keyMap.LineUp),
		key.Matches(msg, m.keyMap.LineDown):
		cmd := m.scroll.Update(msg)
		m.bumpContentVersion()
		// Reaching the top is the load-more trigger
		if m.scroll.AtTop() {
			m.loadOlderMessages()
		}
		return m, cmd

	case key.Matches(msg, m.keyMap.GotoTop):
		m.scroll.GotoTop()
		m.loadOlderMessages()
		m.bumpContentVersion()
		return m, nil

	case key.Matches(msg, m.keyMap.GotoBottom):
		m.scroll.Request(scroll.SourceForceScroll, true)
		m.scroll.Apply(time.Now())
		m.bumpContentVersion()
		return m, nil

	case key.Matches(msg, m.keyMap.LoadMore):
		m.loadOlderMessages()
		return m, nil

	case key.Matches(msg, m.keyMap.NewSession):
		if m.streaming {
			m.cancelStream()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.streaming {
		m.cancelStream()
	}
	m.scroll.Teardown()
	for _, detach := range m.busDetach {
		detach()
	}
	if m.logDetach != nil {
		m.logDetach()
	}
	m.debugLog.Close()
	m.quitting = true
	return m, tea.Quit
}

// loadOlderMessages grows the window backwards. The feed collapses duplicate
// triggers while an expansion is in flight.
func (m *Model) loadOlderMessages() {
	if !m.feed.LoadMore() {
		return
	}
	// Messages are already mounted; only their blocks hydrate lazily during
	// render, so the expansion completes immediately.
	m.feed.FinishLoad()
	m.invalidateHistory()
}

func (m *Model) invalidateHistory() {
	m.viewCache.historyValid = false
	m.bumpContentVersion()
}

func (m *Model) bumpContentVersion() {
	m.viewCache.contentVersion++
}

func (m *Model) tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// scrollTick drives debounced scroll application while a stream is active.
func (m *Model) scrollTick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return scrollTickMsg(t)
	})
}
