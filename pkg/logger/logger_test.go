package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(Options{Format: "console"}); err != nil {
		t.Fatalf("failed to initialize console logger: %v", err)
	}
	if err := Init(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Output: &buf}); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetLevelString("info"); err != nil {
		t.Fatal(err)
	}

	ctx := WithRequestID(context.Background(), "req-42")
	Named("credit").Info(ctx, "evaluated",
		String("client", "c-1"),
		Int("rank", 3),
		Float64("limit", 12000),
		Error(errors.New("boom")),
	)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v: %s", err, buf.String())
	}
	want := map[string]any{
		"level":      "info",
		"message":    "evaluated",
		"component":  "credit",
		"request_id": "req-42",
		"client":     "c-1",
		"rank":       float64(3),
		"limit":      float64(12000),
		"error":      "boom",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("field %s = %v, want %v", k, line[k], v)
		}
	}
	if src, _ := line["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %q, want the calling file", src)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Output: &buf}); err != nil {
		t.Fatal(err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = SetLevelString("info") }()

	Get().Info(context.Background(), "hidden")
	Get().Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %s", buf.String())
	}
	Get().Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatal("expected warn output")
	}

	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNopLogger(t *testing.T) {
	l := Nop().Named("quiet")
	l.Info(context.Background(), "discarded", String("k", "v"))
	if RequestID(context.Background()) != "" {
		t.Fatal("expected empty request id")
	}
}

func TestLoggerNestedNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Output: &buf}); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("batch").Named("worker-0").Warn(context.Background(), "job failed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v: %s", err, buf.String())
	}
	if line["component"] != "batch.worker-0" {
		t.Errorf("component = %v, want batch.worker-0", line["component"])
	}
}
