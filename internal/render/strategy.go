package render

import (
	"errors"
	"fmt"
	"os"
)

// Strategy names a rendering approach for in-progress streaming content.
type Strategy int

const (
	// StrategyFull is rich markdown rendering; always used once a stream
	// completes, and on the high tier while streaming content is still small.
	StrategyFull Strategy = iota
	// StrategyVirtualized renders only the trailing wrapped lines that fit
	// the viewport, bounding work independent of total content length.
	StrategyVirtualized
	// StrategyBlit rasterizes trailing lines into an off-screen cell grid and
	// rewrites only dirty rows.
	StrategyBlit
	// StrategyMinimal renders the last ~1000 runes as one flat string; the
	// cheapest fallback for the lowest tier.
	StrategyMinimal
)

func (s Strategy) String() string {
	switch s {
	case StrategyFull:
		return "full"
	case StrategyVirtualized:
		return "virtualized"
	case StrategyBlit:
		return "blit"
	case StrategyMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// ErrStrategyFailed marks a strategy that could not produce output; the
// adaptive renderer falls back to minimal instead of crashing the feed.
var ErrStrategyFailed = errors.New("render strategy failed")

// Renderer turns committed content into terminal output for a given
// viewport size.
type Renderer interface {
	Render(content string, width, height int) (string, error)
}

// smallStreamingRunes is the content size under which a high-tier stream
// still renders full markdown per commit. Lower tiers never pay for a
// markdown pass while streaming, no matter how small the content is.
const smallStreamingRunes = 512

// Pick chooses the strategy for a stream. The tier decides; content size only
// matters on the high tier, where small content keeps full rendering until it
// outgrows the threshold.
func Pick(streaming bool, tier Tier, contentLen int) Strategy {
	if !streaming {
		return StrategyFull
	}
	switch tier {
	case TierHigh:
		if contentLen < smallStreamingRunes {
			return StrategyFull
		}
		return StrategyVirtualized
	case TierMedium:
		return StrategyBlit
	default:
		return StrategyMinimal
	}
}

// Adaptive runs the strategy table for one message stream: a strategy is
// chosen at stream start, every streaming commit renders through it, and
// completion triggers exactly one full-fidelity re-render. The only in-stream
// switch is the one-way upgrade out of full once content outgrows the
// small-content threshold; downgrades happen only on strategy failure.
type Adaptive struct {
	strategies map[Strategy]Renderer
	current    Strategy
	chosen     bool
	finalized  bool
	warnf      func(format string, args ...any)
}

// NewAdaptive builds the strategy table. A nil warnf logs to stderr.
func NewAdaptive(warnf func(format string, args ...any)) *Adaptive {
	if warnf == nil {
		warnf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		}
	}
	return &Adaptive{
		strategies: map[Strategy]Renderer{
			StrategyFull:        NewFullRenderer(),
			StrategyVirtualized: &VirtualizedRenderer{},
			StrategyBlit:        NewBlitRenderer(),
			StrategyMinimal:     &MinimalRenderer{},
		},
		warnf: warnf,
	}
}

// Begin locks in the strategy for a starting stream.
func (a *Adaptive) Begin(tier Tier, contentLen int) Strategy {
	a.current = Pick(true, tier, contentLen)
	a.chosen = true
	a.finalized = false
	return a.current
}

// Strategy returns the locked-in strategy.
func (a *Adaptive) Strategy() Strategy {
	return a.current
}

// RenderStreaming renders a committed snapshot with the locked-in strategy.
// A failing strategy degrades silently to minimal; minimal itself never
// fails on a sane viewport.
func (a *Adaptive) RenderStreaming(content string, width, height int) string {
	if !a.chosen {
		a.current = StrategyMinimal
		a.chosen = true
	}
	// Streams begin against near-empty content, so a high-tier stream starts
	// on full and steps up to virtualized once the accumulation crosses the
	// threshold. One-way; the choice then holds for the stream.
	if a.current == StrategyFull && len(content) >= smallStreamingRunes {
		a.current = StrategyVirtualized
	}
	out, err := a.strategies[a.current].Render(content, width, height)
	if err == nil {
		return out
	}
	if a.current != StrategyMinimal {
		a.warnf("render: %s strategy failed (%v), falling back to minimal", a.current, err)
		a.current = StrategyMinimal
		if out, err = a.strategies[StrategyMinimal].Render(content, width, height); err == nil {
			return out
		}
	}
	return content
}

// Finalize performs the single full-fidelity re-render after the stream
// completes. The second and later calls report false and render nothing,
// keeping the restoration exactly-once.
func (a *Adaptive) Finalize(content string, width, height int) (string, bool) {
	if a.finalized {
		return "", false
	}
	a.finalized = true
	out, err := a.strategies[StrategyFull].Render(content, width, height)
	if err != nil {
		a.warnf("render: full re-render failed (%v), keeping plain text", err)
		return content, true
	}
	return out, true
}

// RenderComplete renders terminal (non-streaming) content at full fidelity.
// Unlike Finalize it is not once-only; history re-renders use it on resize.
func (a *Adaptive) RenderComplete(content string, width, height int) string {
	out, err := a.strategies[StrategyFull].Render(content, width, height)
	if err != nil {
		a.warnf("render: full render failed (%v), keeping plain text", err)
		return content
	}
	return out
}
