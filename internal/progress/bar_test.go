package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lastFrame returns the most recent line the bar painted.
func lastFrame(buf *bytes.Buffer) string {
	frames := strings.Split(buf.String(), "\r")
	for i := len(frames) - 1; i >= 0; i-- {
		if strings.TrimSpace(frames[i]) != "" {
			return frames[i]
		}
	}
	return ""
}

func TestBar_StepAdvances(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, 4)

	bar.Step("first cell")
	frame := lastFrame(&buf)
	assert.Contains(t, frame, "1/4")
	assert.Contains(t, frame, "█")
	assert.Contains(t, frame, "first cell")

	bar.Step("second cell")
	frame = lastFrame(&buf)
	assert.Contains(t, frame, "2/4")
	assert.Contains(t, frame, "second cell")
	assert.NotContains(t, frame, "first cell")
}

func TestBar_FillsByShare(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, 2)

	bar.Step("")
	frame := lastFrame(&buf)
	filled := strings.Count(frame, "█")
	empty := strings.Count(frame, "░")
	assert.Equal(t, filled, empty, "half done should fill half the bar")
}

func TestBar_FinishFillsAndEndsLine(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, 3)

	bar.Step("a")
	bar.Finish()

	frame := lastFrame(&buf)
	assert.Contains(t, frame, "3/3")
	assert.NotContains(t, frame, "░")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestBar_TruncatesLongLabels(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, 1)

	bar.Step(strings.Repeat("long label ", 40))

	// A non-terminal writer gets the 80 column fallback.
	frame := lastFrame(&buf)
	assert.LessOrEqual(t, runewidth.StringWidth(frame), 80)
	assert.Contains(t, frame, "…")
}

func TestBar_PadsOverPreviousFrame(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, 2)

	bar.Step("a label that is reasonably wide")
	bar.Step("x")

	frames := strings.Split(buf.String(), "\r")
	require.GreaterOrEqual(t, len(frames), 3)
	last := frames[len(frames)-1]
	assert.Equal(t, 79, runewidth.StringWidth(last), "short frames pad to full width")
}

func TestBar_DescribeDoesNotAdvance(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, 5)

	bar.Describe("warming up")
	frame := lastFrame(&buf)
	assert.Contains(t, frame, "0/5")
	assert.Contains(t, frame, "warming up")
}

func TestWidth_FallbackForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 120, Width(&buf, 120))
	assert.False(t, IsTerminal(&buf))
}
