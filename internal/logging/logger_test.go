package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/logging"
	"reelforge/internal/services"
)

func readJSONLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func TestJSONLoggerWritesContextFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reelforge.log")
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithSessionID(context.Background(), "s1")
	ctx = services.WithStage(ctx, "render")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "poller")).Info("status fetched")
	logger.Debug("dropped")

	records := readJSONLines(t, path)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	want := map[string]string{
		"level":      "info",
		"msg":        "status fetched",
		"component":  "poller",
		"session_id": "s1",
		"stage":      "render",
	}
	for key, value := range want {
		if got, _ := rec[key].(string); got != value {
			t.Fatalf("%s = %q, want %q", key, got, value)
		}
	}
	if _, ok := rec["ts"]; !ok {
		t.Fatalf("expected ts key in %v", rec)
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelforge.log")
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logging.WarnWithContext(logger, "preview failed", "asset_preview_failed",
		logging.String(logging.FieldErrorHint, "retry the search"))

	records := readJSONLines(t, path)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec[logging.FieldEventType] != "asset_preview_failed" {
		t.Fatalf("event_type = %v", rec[logging.FieldEventType])
	}
	if rec[logging.FieldErrorHint] != "retry the search" {
		t.Fatalf("error_hint = %v", rec[logging.FieldErrorHint])
	}
	if rec[logging.FieldImpact] == nil {
		t.Fatalf("expected default impact in %v", rec)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		session, stage, keyword string
		want                    string
	}{
		{"s1", "render", "", "Session s1 · render"},
		{"", "assets", "ocean", "assets · \"ocean\""},
		{" ", "", "", ""},
	}
	for _, tt := range tests {
		if got := logging.FormatSubject(tt.session, tt.stage, tt.keyword); got != tt.want {
			t.Fatalf("FormatSubject(%q, %q, %q) = %q, want %q", tt.session, tt.stage, tt.keyword, got, tt.want)
		}
	}
}
