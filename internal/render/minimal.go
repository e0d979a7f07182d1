package render

import "github.com/charmbracelet/x/ansi"

// minimalTailRunes caps how much in-progress content the minimal strategy
// shows. Older content is not lost, only hidden until the completion
// re-render; whether a larger cap is wanted on low-end hosts is an open
// product question.
const minimalTailRunes = 1000

// ellipsis marks a truncated head.
const ellipsis = "…"

// MinimalRenderer renders the last minimalTailRunes runes as one flat string.
// It strips ANSI sequences first so a truncated escape can never corrupt the
// terminal. The cheapest strategy; it is also the fallback when any other
// strategy fails.
type MinimalRenderer struct{}

// Render returns the rune-safe tail of content. Width and height are ignored;
// the viewport wraps the flat string itself.
func (MinimalRenderer) Render(content string, width, height int) (string, error) {
	plain := ansi.Strip(content)
	runes := []rune(plain)
	if len(runes) <= minimalTailRunes {
		return plain, nil
	}
	return ellipsis + string(runes[len(runes)-minimalTailRunes:]), nil
}
