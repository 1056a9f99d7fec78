package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("dropped")
	l.Warn("kept", "owner", "abc")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected one JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "kept" || record["owner"] != "abc" {
		t.Errorf("Unexpected record: %v", record)
	}
}

func TestContext(t *testing.T) {
	t.Run("returns the stored logger", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "info").With("request_id", "r1")

		FromContext(ToContext(context.Background(), l)).Info("hello")

		if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"r1"`)) {
			t.Errorf("Expected the request id on the record, got %s", buf.String())
		}
	})

	t.Run("falls back to the global logger", func(t *testing.T) {
		if FromContext(context.Background()) != L {
			t.Error("Expected the global logger for a bare context")
		}
	})
}
