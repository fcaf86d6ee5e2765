package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestToSystemLog_PromotesKnownAttrs(t *testing.T) {
	record := slog.NewRecord(time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC), slog.LevelError, "moderation side effect failed", 0)
	record.AddAttrs(
		slog.String("action", "notify"),
		slog.String("error", "push down"),
		slog.String("user_id", "u-1"),
		slog.String("sanction_id", "s-1"),
		slog.Int("attempt", 2),
	)

	entry := toSystemLog(record, []slog.Attr{slog.String("report_id", "r-1"), slog.String("trace_id", "t-1")})

	if entry.Action != "notify" || entry.Error != "push down" {
		t.Errorf("expected action and error promoted, got %q %q", entry.Action, entry.Error)
	}
	if entry.UserID == nil || *entry.UserID != "u-1" {
		t.Errorf("expected user id u-1, got %v", entry.UserID)
	}
	if entry.ReportID == nil || *entry.ReportID != "r-1" {
		t.Errorf("expected report id r-1, got %v", entry.ReportID)
	}
	if entry.SanctionID == nil || *entry.SanctionID != "s-1" {
		t.Errorf("expected sanction id s-1, got %v", entry.SanctionID)
	}
	if entry.TraceID != "t-1" {
		t.Errorf("expected trace id t-1, got %q", entry.TraceID)
	}
	if entry.Level != "ERROR" {
		t.Errorf("expected ERROR, got %s", entry.Level)
	}

	var extra map[string]interface{}
	if err := json.Unmarshal(entry.Extra, &extra); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extra["attempt"] != float64(2) {
		t.Errorf("expected attempt in extra, got %v", extra)
	}
	if _, ok := extra["action"]; ok {
		t.Error("expected promoted attrs to stay out of extra")
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink down")
}

func TestMultiHandler_ContinuesPastFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMultiHandler(failingHandler{}, NewJSONHandler(&buf)))

	logger.Info("report submitted", "report_id", "r-1")

	if !bytes.Contains(buf.Bytes(), []byte(`"report_id":"r-1"`)) {
		t.Errorf("expected record in second handler, got %s", buf.String())
	}
}

func TestMultiHandler_EnabledByAnyHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(&PGHandler{}, NewJSONHandler(&buf))
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected INFO enabled through the JSON handler")
	}
	if (&PGHandler{}).Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected PG handler to ignore WARN")
	}
}
