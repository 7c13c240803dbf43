package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/models"
)

func mustNew(t *testing.T, retentionDays int) *Logger {
	t.Helper()
	store, err := docstore.Open(filepath.Join(t.TempDir(), "audit_test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store, models.SecurityLogConfig{RetentionDays: retentionDays})
}

func TestLogAndQuery(t *testing.T) {
	l := mustNew(t, 90)
	ctx := context.Background()

	if err := l.Log(ctx, models.SecurityEvent{
		Type:    models.EventRateLimitExceeded,
		IPHash:  "abc123",
		Details: map[string]string{"operationType": "search"},
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	events, err := l.Query(ctx, models.SecurityLogQuery{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ID == "" {
		t.Error("expected generated id")
	}
	if ev.Timestamp == 0 {
		t.Error("expected timestamp to be set")
	}
	if ev.Details["operationType"] != "search" {
		t.Errorf("details not stored: %+v", ev.Details)
	}
}

func TestQueryFilters(t *testing.T) {
	l := mustNew(t, 90)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, typ := range []string{
		models.EventRateLimitExceeded,
		models.EventIPBlocked,
		models.EventRateLimitExceeded,
		models.EventAdminAction,
	} {
		ts := models.Millis(base.Add(time.Duration(i) * time.Hour))
		if err := l.Log(ctx, models.SecurityEvent{Type: typ, Timestamp: ts}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	events, err := l.Query(ctx, models.SecurityLogQuery{EventType: models.EventRateLimitExceeded})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Timestamp < events[1].Timestamp {
		t.Error("expected newest first")
	}

	events, err = l.Query(ctx, models.SecurityLogQuery{Since: models.Millis(base.Add(2 * time.Hour))})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events since +2h, got %d", len(events))
	}

	events, err = l.Query(ctx, models.SecurityLogQuery{Limit: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 || events[0].Type != models.EventAdminAction {
		t.Errorf("expected latest admin_action event, got %+v", events)
	}
}

func TestStats(t *testing.T) {
	l := mustNew(t, 90)
	ctx := context.Background()

	for _, typ := range []string{models.EventIPBlocked, models.EventIPBlocked, models.EventIPUnblocked} {
		if err := l.Log(ctx, models.SecurityEvent{Type: typ}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	stats, err := l.Stats(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[models.EventIPBlocked] != 2 {
		t.Errorf("expected 2 ip_blocked, got %d", stats[models.EventIPBlocked])
	}
	if stats[models.EventRateLimitExceeded] != 0 {
		t.Errorf("expected 0 rate_limit_exceeded, got %d", stats[models.EventRateLimitExceeded])
	}
}

func TestCleanup(t *testing.T) {
	l := mustNew(t, 30)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return now })

	old := models.SecurityEvent{Type: models.EventIPBlocked, Timestamp: models.Millis(now.AddDate(0, 0, -31))}
	recent := models.SecurityEvent{Type: models.EventIPBlocked, Timestamp: models.Millis(now.AddDate(0, 0, -1))}
	for _, ev := range []models.SecurityEvent{old, recent} {
		if err := l.Log(ctx, ev); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	n, err := l.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	events, _ := l.Query(ctx, models.SecurityLogQuery{})
	if len(events) != 1 {
		t.Errorf("expected 1 remaining, got %d", len(events))
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	if err := l.Log(context.Background(), models.SecurityEvent{Type: models.EventIPBlocked}); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
