package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

// BlitRenderer rasterizes the trailing visible lines into an off-screen cell
// grid. Rows are fixed-width strings padded with measured cell widths; a row
// is rewritten only when its source line changed, so steady streaming touches
// just the bottom row or two per commit.
type BlitRenderer struct {
	width  int
	height int
	rows   []string // padded cell rows
	lines  []string // source lines backing each row
}

// NewBlitRenderer creates an empty grid; it is sized on first render.
func NewBlitRenderer() *BlitRenderer {
	return &BlitRenderer{}
}

// Render blits the trailing lines of content onto the grid and returns the
// composed surface.
func (r *BlitRenderer) Render(content string, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("%w: blit renderer needs a positive surface", ErrStrategyFailed)
	}

	if r.width != width || r.height != height {
		r.width = width
		r.height = height
		r.rows = make([]string, height)
		r.lines = make([]string, height)
		for i := range r.lines {
			// Sentinel that no real line equals, so every row blits once.
			r.lines[i] = "\x00"
		}
	}

	wrapped := wordwrap.String(content, width)
	lines := strings.Split(wrapped, "\n")
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	// Top-align short content, blanking unused rows.
	for i := 0; i < height; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if line == r.lines[i] {
			continue // row unchanged, keep the cached cells
		}
		r.lines[i] = line
		r.rows[i] = padToCells(line, width)
	}

	used := len(lines)
	if used > height {
		used = height
	}
	return strings.TrimRight(strings.Join(r.rows[:used], "\n"), " \n"), nil
}

// padToCells pads line with spaces to exactly width terminal cells, counting
// wide runes by their display width and ignoring ANSI sequences.
func padToCells(line string, width int) string {
	cells := runewidth.StringWidth(ansi.Strip(line))
	if cells >= width {
		return line
	}
	return line + strings.Repeat(" ", width-cells)
}
