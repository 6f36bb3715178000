package utils

import (
	"context"
	"log/slog"

	"github.com/willingc/papermill/internal/engine"
)

// ProgressToSlog mirrors engine progress events into the debug log, so a
// --debug run shows the raw event stream alongside the reporter's output.
func ProgressToSlog(event engine.ProgressEvent) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{
		"type", string(event.EventType),
		"cell", event.CellIndex,
		"total", event.TotalCells,
	}

	if event.Status != "" {
		attrs = append(attrs, "status", event.Status)
	}
	if event.DurationMs > 0 {
		attrs = append(attrs, "durationMs", event.DurationMs)
	}
	attrs = addIf(attrs, "error", detailString(event, "error"))
	attrs = addIf(attrs, "ename", detailString(event, "ename"))
	attrs = addIf(attrs, "evalue", detailString(event, "evalue"))

	slog.Debug("Progress event", attrs...)
}

func detailString(event engine.ProgressEvent, name string) *string {
	if s, ok := event.Details[name].(string); ok {
		return &s
	}
	return nil
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name)
		attrs = append(attrs, *v)
	}

	return attrs
}
