package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willingc/papermill/internal/engine"
)

func TestProgressToSlogDebugDisabled(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(old)
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ProgressToSlog(engine.ProgressEvent{EventType: engine.EventCellStart})
	assert.Equal(t, 0, buf.Len())
}

func TestProgressToSlogDebugEnabled(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(old)
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	ProgressToSlog(engine.ProgressEvent{
		EventType:  engine.EventCellComplete,
		CellIndex:  2,
		TotalCells: 5,
		Status:     string(engine.CellFailed),
		DurationMs: 120,
		Details: map[string]any{
			"ename":  "ValueError",
			"evalue": "bad input",
		},
	})

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "Progress event", logEntry["msg"])
	assert.Equal(t, "cell_complete", logEntry["type"])
	assert.Equal(t, float64(2), logEntry["cell"])
	assert.Equal(t, float64(5), logEntry["total"])
	assert.Equal(t, "failed", logEntry["status"])
	assert.Equal(t, float64(120), logEntry["durationMs"])
	assert.Equal(t, "ValueError", logEntry["ename"])
	assert.Equal(t, "bad input", logEntry["evalue"])
	assert.NotContains(t, logEntry, "error")
}

func TestAddIf(t *testing.T) {
	attrs := []any{"existing", "value"}

	result := addIf(attrs, "missing", (*int)(nil))
	assert.Equal(t, attrs, result)

	v := 7
	result = addIf(attrs, "number", &v)
	assert.Equal(t, []any{"existing", "value", "number", 7}, result)
}
