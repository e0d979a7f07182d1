package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/zhake2025/streamchat/internal/ui"
)

// FullRenderer renders markdown through glamour at terminal width. Building a
// TermRenderer is expensive, so one is cached per width and rebuilt only when
// the viewport resizes.
type FullRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
}

// NewFullRenderer creates an empty renderer; the glamour instance is built
// lazily on first use.
func NewFullRenderer() *FullRenderer {
	return &FullRenderer{}
}

// Render renders content as markdown wrapped to width. Height is ignored;
// full rendering is only used when per-frame cost is acceptable.
func (r *FullRenderer) Render(content string, width, height int) (string, error) {
	if content == "" {
		return "", nil
	}
	if width <= 0 {
		return "", fmt.Errorf("%w: full renderer needs a positive width", ErrStrategyFailed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.renderer == nil || r.width != width {
		// Themed style with document margins stripped; the feed supplies its
		// own indentation and spacing.
		style := ui.GlamourStyle()
		margin := uint(0)
		style.Document.Margin = &margin
		style.Document.BlockPrefix = ""
		style.Document.BlockSuffix = ""
		style.CodeBlock.Margin = &margin

		renderer, err := glamour.NewTermRenderer(
			glamour.WithStyles(style),
			glamour.WithWordWrap(width),
			glamour.WithEmoji(),
		)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStrategyFailed, err)
		}
		r.renderer = renderer
		r.width = width
	}

	out, err := r.renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStrategyFailed, err)
	}
	return strings.TrimRight(out, "\n"), nil
}
