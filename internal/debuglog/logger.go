// Package debuglog writes raw stream traffic to per-session JSONL files so
// rendering bugs can be replayed offline.
package debuglog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zhake2025/streamchat/internal/bus"
)

// Logger logs stream events to a JSONL file. Each session gets its own file
// based on the session ID. A nil Logger is valid and drops everything.
type Logger struct {
	baseDir   string
	sessionID string
	mu        sync.Mutex
	file      *os.File
	writer    *bufio.Writer
	closeOnce sync.Once
	closed    bool
}

// entry is the common structure for all log lines
type entry struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"` // "session_start", "event", or "note"
}

type sessionStartEntry struct {
	entry
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Cwd     string   `json:"cwd"`
}

type eventEntry struct {
	entry
	Event     string `json:"event"`
	MessageID string `json:"message_id,omitempty"`
	BlockID   string `json:"block_id,omitempty"`
	DeltaLen  int    `json:"delta_len,omitempty"`
	Delta     string `json:"delta,omitempty"`
	Error     string `json:"error,omitempty"`
}

type noteEntry struct {
	entry
	Note string `json:"note"`
	Data any    `json:"data,omitempty"`
}

// maxLoggedDelta truncates large deltas so logs stay readable.
const maxLoggedDelta = 500

// New creates a Logger writing to baseDir/<sessionID>.jsonl.
// Old log files (>7 days) are cleaned up on open.
func New(baseDir, sessionID string) (*Logger, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}

	_ = CleanupOldLogs(baseDir, 7*24*time.Hour)

	filename := filepath.Join(baseDir, sessionID+".jsonl")
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	return &Logger{
		baseDir:   baseDir,
		sessionID: sessionID,
		file:      file,
		writer:    bufio.NewWriter(file),
	}, nil
}

func (l *Logger) header(typ string) entry {
	return entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: l.sessionID,
		Type:      typ,
	}
}

// LogSessionStart records the CLI invocation that opened the session.
func (l *Logger) LogSessionStart(command string, args []string, cwd string) {
	if l == nil {
		return
	}
	l.writeEntry(sessionStartEntry{
		entry:   l.header("session_start"),
		Command: command,
		Args:    args,
		Cwd:     cwd,
	})
	l.Flush()
}

// LogEvent records a stream event. Deltas are truncated; completion and
// error events flush so a crash mid-stream still leaves usable logs.
func (l *Logger) LogEvent(ev bus.Event, p bus.Payload) {
	if l == nil {
		return
	}

	e := eventEntry{
		entry:     l.header("event"),
		Event:     string(ev),
		MessageID: p.MessageID,
		BlockID:   p.BlockID,
	}
	if p.Delta != "" {
		e.DeltaLen = len(p.Delta)
		delta := p.Delta
		if len(delta) > maxLoggedDelta {
			delta = delta[:maxLoggedDelta] + "...[truncated]"
		}
		e.Delta = delta
	}
	if p.Err != nil {
		e.Error = p.Err.Error()
	}

	l.writeEntry(e)

	if ev == bus.TextComplete || ev == bus.StreamError {
		l.Flush()
	}
}

// LogNote records a free-form annotation, e.g. a render strategy downgrade.
func (l *Logger) LogNote(note string, data any) {
	if l == nil {
		return
	}
	l.writeEntry(noteEntry{entry: l.header("note"), Note: note, Data: data})
	l.Flush()
}

// Attach subscribes the logger to every stream channel on b and returns a
// detach function.
func (l *Logger) Attach(b *bus.Bus) func() {
	if l == nil {
		return func() {}
	}
	events := []bus.Event{bus.TextDelta, bus.ThinkingDelta, bus.TextComplete, bus.StreamError}
	unsubs := make([]func(), 0, len(events))
	for _, ev := range events {
		ev := ev
		unsubs = append(unsubs, b.On(ev, func(p bus.Payload) {
			l.LogEvent(ev, p)
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// writeEntry writes a single log entry as a JSON line without flushing.
func (l *Logger) writeEntry(e any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	l.writer.Write(data)
	l.writer.WriteString("\n")
}

// Flush flushes the buffered writer to disk.
func (l *Logger) Flush() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.writer == nil {
		return
	}
	l.writer.Flush()
}

// Close flushes and closes the log file. Idempotent.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	var closeErr error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if l.file == nil {
			return
		}
		if err := l.writer.Flush(); err != nil {
			closeErr = err
		}
		if err := l.file.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		l.closed = true
	})
	return closeErr
}

// CleanupOldLogs removes JSONL files older than maxAge from baseDir.
func CleanupOldLogs(baseDir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".jsonl" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(baseDir, de.Name()))
		}
	}
	return nil
}
