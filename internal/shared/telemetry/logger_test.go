package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
)

func TestErrorFieldsAreStrings(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelInfo)
	t.Cleanup(func() { SetOutput(os.Stdout, slog.LevelInfo) })

	Error("llm.complete", map[string]any{"error": errors.New("boom"), "session_id": "s-1"})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["msg"] != "llm.complete" {
		t.Fatalf("unexpected msg: %v", line["msg"])
	}
	if line["error"] != "boom" {
		t.Fatalf("expected error string, got %v", line["error"])
	}
	if line["level"] != "ERROR" {
		t.Fatalf("unexpected level: %v", line["level"])
	}
}
