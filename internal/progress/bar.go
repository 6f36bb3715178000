// Package progress renders execution feedback on a terminal: a
// single-line bar that tracks cells through a notebook, and a spinner
// for indeterminate waits like kernel startup.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of w's terminal, or fallback when w is
// not a terminal.
func Width(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	tw, _, err := term.GetSize(int(f.Fd()))
	if err != nil || tw <= 0 {
		return fallback
	}
	return tw
}

// Bar is a single-line progress bar. It is safe for concurrent use.
type Bar struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	total int
	done  int
	label string
}

// NewBar creates a bar for total steps, sized to the terminal width of
// w when it is one and 80 columns otherwise.
func NewBar(w io.Writer, total int) *Bar {
	return &Bar{w: w, width: Width(w, 80), total: total}
}

// Step advances the bar by one and redraws it with a new label.
func (b *Bar) Step(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done < b.total {
		b.done++
	}
	b.label = label
	b.render()
}

// Describe redraws the bar with a new label without advancing.
func (b *Bar) Describe(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.label = label
	b.render()
}

// Finish fills the bar and moves to the next line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done = b.total
	b.label = ""
	b.render()
	fmt.Fprintln(b.w) //nolint:errcheck
}

// render paints "3/12 ██████░░░░░░ label" onto the current line.
func (b *Bar) render() {
	counts := fmt.Sprintf("%*d/%d", len(fmt.Sprint(b.total)), b.done, b.total)

	barWidth := min(b.width/3, 30)
	if barWidth < 10 {
		barWidth = 10
	}
	filled := 0
	if b.total > 0 {
		filled = barWidth * b.done / b.total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := counts + " " + bar
	if rest := b.width - runewidth.StringWidth(line) - 2; b.label != "" && rest > 1 {
		line += " " + runewidth.Truncate(b.label, rest, "…")
	}

	// Pad to full width so a shorter line fully overwrites a longer one.
	fmt.Fprintf(b.w, "\r%s", runewidth.FillRight(line, b.width-1)) //nolint:errcheck
}
