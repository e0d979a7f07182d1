// Package replay drives the event bus from recorded transcripts. It stands in
// for a live model backend: each turn is chunked and paced the way a real
// stream arrives, including thinking traffic and mid-stream failures.
package replay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/zhake2025/streamchat/internal/bus"
)

// Transcript is a recorded conversation.
type Transcript struct {
	Title string `yaml:"title"`
	Turns []Turn `yaml:"turns"`
}

// Turn is one assistant response. ChunkSize and DelayMs control pacing;
// zero values fall back to defaults. A non-empty Error aborts the stream
// after FailAfter bytes of the response have been emitted.
type Turn struct {
	Prompt    string `yaml:"prompt,omitempty"`
	Thinking  string `yaml:"thinking,omitempty"`
	Response  string `yaml:"response"`
	ChunkSize int    `yaml:"chunk_size,omitempty"`
	DelayMs   int    `yaml:"delay_ms,omitempty"`
	Error     string `yaml:"error,omitempty"`
	FailAfter int    `yaml:"fail_after,omitempty"`
}

const (
	defaultChunkSize = 6
	defaultDelay     = 25 * time.Millisecond
)

// Load reads a transcript from a YAML file.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	if len(t.Turns) == 0 {
		return nil, errors.New("transcript has no turns")
	}
	return &t, nil
}

// Builtin returns the demo transcript used when no file is given.
func Builtin() *Transcript {
	return &Transcript{
		Title: "demo",
		Turns: []Turn{
			{
				Thinking: "The user is greeting me. A short friendly reply with a hint at what I can do seems right.",
				Response: "Hello! I'm a recorded transcript playing back through the streaming pipeline.\n\n" +
					"Everything you see here arrives as throttled deltas: **markdown**, `inline code`, and longer passages " +
					"that exercise word wrapping at whatever width your terminal happens to be.",
			},
			{
				Response: "Here is a code block so the highlighter gets some work:\n\n" +
					"```go\nfunc main() {\n\tfmt.Println(\"streamed one chunk at a time\")\n}\n```\n\n" +
					"Scroll up while this streams and the view stays put; press `end` or send a new message to snap back.",
			},
			{
				Thinking: "A long response is useful for testing windowing and virtualized rendering.",
				Response: "Some points about long responses:\n\n" +
					"1. Older messages fall out of the visible window and reload on demand.\n" +
					"2. Partial output survives interruption; press `esc` mid-stream to try it.\n" +
					"3. The final render pass restores full markdown fidelity after the last delta.\n",
			},
		},
	}
}

// Producer replays transcript turns onto a bus.
type Producer struct {
	bus   *bus.Bus
	turns []Turn
	next  int
}

// NewProducer creates a producer over the given transcript.
func NewProducer(b *bus.Bus, t *Transcript) *Producer {
	return &Producer{bus: b, turns: t.Turns}
}

// NextTurn returns the next recorded turn, cycling when the transcript runs
// out so long interactive sessions keep working.
func (p *Producer) NextTurn() Turn {
	turn := p.turns[p.next%len(p.turns)]
	p.next++
	return turn
}

// StreamTurn emits the turn's events for messageID, paced by the turn's
// delay. It blocks until the turn finishes, fails, or ctx is cancelled.
// Cancellation stops emission without a completion event; the consumer
// decides what the interrupted state looks like.
func (p *Producer) StreamTurn(ctx context.Context, messageID string, turn Turn) error {
	delay := defaultDelay
	if turn.DelayMs > 0 {
		delay = time.Duration(turn.DelayMs) * time.Millisecond
	}
	chunkSize := turn.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	// A turn opening announces itself with a forced scroll so the view snaps
	// to the incoming answer even if the user had scrolled away.
	p.bus.Emit(bus.ForceScrollToBottom, bus.Payload{
		MessageID: messageID,
		Timestamp: time.Now(),
	})

	if turn.Thinking != "" {
		blockID := uuid.NewString()
		if err := p.emitChunks(ctx, bus.ThinkingDelta, messageID, blockID, turn.Thinking, chunkSize, delay, -1); err != nil {
			return err
		}
		p.bus.Emit(bus.TextComplete, bus.Payload{
			MessageID: messageID,
			BlockID:   blockID,
			Timestamp: time.Now(),
		})
	}

	blockID := uuid.NewString()
	failAfter := -1
	if turn.Error != "" {
		failAfter = turn.FailAfter
		if failAfter <= 0 {
			failAfter = len(turn.Response) / 2
		}
	}
	if err := p.emitChunks(ctx, bus.TextDelta, messageID, blockID, turn.Response, chunkSize, delay, failAfter); err != nil {
		return err
	}

	if turn.Error != "" {
		streamErr := errors.New(turn.Error)
		p.bus.Emit(bus.StreamError, bus.Payload{
			MessageID: messageID,
			BlockID:   blockID,
			Err:       streamErr,
			Timestamp: time.Now(),
		})
		return streamErr
	}

	p.bus.Emit(bus.TextComplete, bus.Payload{
		MessageID: messageID,
		BlockID:   blockID,
		Timestamp: time.Now(),
	})
	return nil
}

// emitChunks sends text in rune-safe chunks. A non-negative stopAfter cuts
// emission once that many bytes have gone out.
func (p *Producer) emitChunks(ctx context.Context, ev bus.Event, messageID, blockID, text string, chunkSize int, delay time.Duration, stopAfter int) error {
	runes := []rune(text)
	sent := 0
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[i:end])

		if stopAfter >= 0 && sent+len(chunk) > stopAfter {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		p.bus.Emit(ev, bus.Payload{
			MessageID: messageID,
			BlockID:   blockID,
			Delta:     chunk,
			Timestamp: time.Now(),
		})
		sent += len(chunk)
	}
	return nil
}
