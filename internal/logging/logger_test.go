package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyforge/internal/logging"
	"storyforge/internal/services"
)

func TestNewWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "storyforge.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("run starting", logging.String(logging.FieldItemID, "item-1"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "run starting") {
		t.Fatalf("expected message in log output, got %q", content)
	}
	if !strings.Contains(string(content), "item-1") {
		t.Fatalf("expected item id in log output, got %q", content)
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "storyforge.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("invisible")
	logger.Warn("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "invisible") {
		t.Fatalf("expected info message filtered, got %q", content)
	}
	if !strings.Contains(string(content), "visible") {
		t.Fatalf("expected warn message, got %q", content)
	}
}

func TestNewJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "storyforge.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("session recorded", logging.Int("artifacts", 3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, content)
	}
	if record["msg"] != "session recorded" {
		t.Fatalf("unexpected msg field: %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level field: %v", record["level"])
	}
	if record["artifacts"] != float64(3) {
		t.Fatalf("unexpected artifacts field: %v", record["artifacts"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithItemID(context.Background(), "item-9")
	ctx = services.WithStage(ctx, "factcheck")
	ctx = services.WithBatch(ctx, 2)

	fields := logging.ContextFields(ctx)
	got := map[string]bool{}
	for _, field := range fields {
		got[field.Key] = true
	}
	for _, key := range []string{logging.FieldItemID, logging.FieldStage, logging.FieldBatch} {
		if !got[key] {
			t.Fatalf("expected %s in context fields, got %v", key, fields)
		}
	}
}
