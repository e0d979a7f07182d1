package render

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// VirtualizedRenderer shows only the trailing wrapped lines that fit the
// viewport height. The number of produced lines is bounded by the viewport,
// independent of total content length; no markdown work is done per frame.
type VirtualizedRenderer struct{}

// Render wraps content to width and returns the last height lines.
func (VirtualizedRenderer) Render(content string, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("%w: virtualized renderer needs a positive viewport", ErrStrategyFailed)
	}
	if content == "" {
		return "", nil
	}

	// Wrapping the whole buffer is O(content) but allocation-light; the
	// expensive part (markdown/highlighting) is what virtualization skips.
	wrapped := wordwrap.String(content, width)
	lines := strings.Split(wrapped, "\n")
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n"), nil
}
