// Package audit records security events: rate limit denials, IP blocks and
// admin actions.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/models"
)

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// Logger writes and queries security events in the document store.
type Logger struct {
	store *docstore.Store
	cfg   models.SecurityLogConfig
	now   func() time.Time
}

// New returns a Logger writing to store.
func New(store *docstore.Store, cfg models.SecurityLogConfig) *Logger {
	return &Logger{store: store, cfg: cfg, now: time.Now}
}

// SetClock overrides the time source. Used in tests.
func (l *Logger) SetClock(now func() time.Time) {
	l.now = now
}

// Log stores an event under a generated id. A zero timestamp is set to now.
func (l *Logger) Log(ctx context.Context, ev models.SecurityEvent) error {
	if l == nil || l.store == nil {
		return nil
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = models.Millis(l.now())
	}
	ev.ID = docstore.NewID()
	if err := l.store.Create(ctx, models.CollSecurityLogs, ev.ID, ev); err != nil {
		return fmt.Errorf("log %s: %w", ev.Type, err)
	}
	return nil
}

// Query returns events matching q, newest first.
func (l *Logger) Query(ctx context.Context, q models.SecurityLogQuery) ([]models.SecurityEvent, error) {
	var filters []docstore.Filter
	if q.EventType != "" {
		filters = append(filters, docstore.Where("type", "==", q.EventType))
	}
	if q.Since > 0 {
		filters = append(filters, docstore.Where("timestamp", ">=", q.Since))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	docs, err := l.store.Query(ctx, models.CollSecurityLogs, docstore.Query{
		Where:   filters,
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query security log: %w", err)
	}

	events := make([]models.SecurityEvent, 0, len(docs))
	for _, d := range docs {
		var ev models.SecurityEvent
		if err := d.Decode(&ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Stats counts events by type since the given time.
func (l *Logger) Stats(ctx context.Context, since time.Time) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, typ := range []string{
		models.EventRateLimitExceeded,
		models.EventIPBlocked,
		models.EventIPUnblocked,
		models.EventAdminAction,
	} {
		n, err := l.store.Count(ctx, models.CollSecurityLogs,
			docstore.Where("type", "==", typ),
			docstore.Where("timestamp", ">=", models.Millis(since)),
		)
		if err != nil {
			return nil, fmt.Errorf("security log stats: %w", err)
		}
		out[typ] = n
	}
	return out, nil
}

// Cleanup deletes events older than the configured retention period. A
// non-positive retention keeps everything.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	if l.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := l.now().AddDate(0, 0, -l.cfg.RetentionDays)
	n, err := l.store.DeleteWhere(ctx, models.CollSecurityLogs,
		docstore.Where("timestamp", "<", models.Millis(cutoff)))
	if err != nil {
		return 0, fmt.Errorf("security log cleanup: %w", err)
	}
	return n, nil
}
