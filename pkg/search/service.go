/*
Package search is the cached search service.

A query is answered from the persistent tier, then the memory tier, and
only then from the corpus provider. Entries are judged fresh at read time
and never evicted in the background. Completed upstream searches are kept
in a bounded history in local storage.
*/
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eyesofazrael/azrael/pkg/cache/memory"
	"github.com/eyesofazrael/azrael/pkg/metrics"
	"github.com/eyesofazrael/azrael/pkg/models"
)

// Provider runs a search against the full-text corpus.
type Provider interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.SearchResult, error)
}

// Persistent is the durable cache tier.
type Persistent interface {
	Get(ctx context.Context, key string) (models.CacheEntry, bool, error)
	Put(ctx context.Context, entry models.CacheEntry) error
	Clear(ctx context.Context, before time.Time) (int64, error)
}

// Config holds cache and history settings.
type Config struct {
	CacheTimeout   time.Duration
	MaxHistorySize int
}

// DefaultConfig returns a five minute cache and a 50 entry history.
func DefaultConfig() Config {
	return Config{CacheTimeout: 5 * time.Minute, MaxHistorySize: 50}
}

// Option configures a Service.
type Option func(*Service)

// WithPersistent enables the durable tier. Without it the service caches
// in memory only.
func WithPersistent(p Persistent) Option {
	return func(s *Service) { s.persistent = p }
}

// WithHistoryStore keeps history in st instead of process memory.
func WithHistoryStore(st HistoryStore) Option {
	return func(s *Service) { s.history = st }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records Prometheus metrics alongside the built-in counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used for freshness and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service answers searches through the two cache tiers.
type Service struct {
	provider   Provider
	persistent Persistent
	memory     *memory.Cache
	history    HistoryStore
	cfg        Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	mu       sync.Mutex
	stats    models.SearchMetrics
	upstream int64

	historyMu sync.Mutex
}

// New returns a Service over provider.
func New(provider Provider, cfg Config, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.CacheTimeout <= 0 {
		cfg.CacheTimeout = def.CacheTimeout
	}
	if cfg.MaxHistorySize <= 0 {
		cfg.MaxHistorySize = def.MaxHistorySize
	}
	s := &Service{
		provider: provider,
		memory:   memory.New(),
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.history == nil {
		s.history = newMemoryHistory()
	}
	return s
}

// Search answers text with opts. Cache tier failures are logged and
// ignored; provider failures are returned.
func (s *Service) Search(ctx context.Context, text string, opts models.SearchOptions) ([]models.SearchResult, error) {
	q := models.SearchQuery{Text: text, Options: normalizeOptions(opts)}
	key := CacheKey(q)
	s.countSearch()

	if s.persistent != nil {
		entry, ok, err := s.persistent.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("persistent cache read failed", "key", key, "error", err)
		case ok && entry.Fresh(s.now(), s.cfg.CacheTimeout):
			s.countHit("persistent")
			return entry.Results, nil
		}
	}

	if entry, ok := s.memory.Get(key); ok && entry.Fresh(s.now(), s.cfg.CacheTimeout) {
		s.countHit("memory")
		return entry.Results, nil
	}

	start := time.Now()
	results, err := s.provider.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}
	elapsed := time.Since(start)
	s.observeUpstream(elapsed)
	if results == nil {
		results = []models.SearchResult{}
	}

	entry := models.CacheEntry{Key: key, Results: results, Timestamp: models.Millis(s.now())}
	s.memory.Put(entry)
	if s.persistent != nil {
		if err := s.persistent.Put(ctx, entry); err != nil {
			s.logger.Warn("persistent cache write failed", "key", key, "error", err)
		}
	}
	s.addHistory(models.SearchHistoryEntry{
		Query:       text,
		Options:     q.Options,
		ResultCount: len(results),
		Timestamp:   entry.Timestamp,
	})
	s.logger.Debug("upstream search", "query", text, "results", len(results), "duration", elapsed)
	return results, nil
}

// Metrics returns a snapshot of the search counters.
func (s *Service) Metrics() models.SearchMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ClearAllCaches empties both tiers. History is kept.
func (s *Service) ClearAllCaches(ctx context.Context) error {
	s.memory.Clear()
	if s.persistent == nil {
		return nil
	}
	if _, err := s.persistent.Clear(ctx, time.Time{}); err != nil {
		return fmt.Errorf("clear persistent cache: %w", err)
	}
	return nil
}

// MemoryEntries returns the number of entries in the memory tier.
func (s *Service) MemoryEntries() int {
	return s.memory.Len()
}

func normalizeOptions(o models.SearchOptions) models.SearchOptions {
	if o.Mode == "" {
		o.Mode = models.SearchGeneric
	}
	return o
}

func (s *Service) countSearch() {
	s.mu.Lock()
	s.stats.Searches++
	s.mu.Unlock()
	s.metrics.SearchStarted()
}

func (s *Service) countHit(tier string) {
	s.mu.Lock()
	s.stats.CacheHits++
	s.mu.Unlock()
	s.metrics.CacheHit(tier)
}

func (s *Service) observeUpstream(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	s.mu.Lock()
	s.upstream++
	s.stats.AverageTime += (ms - s.stats.AverageTime) / float64(s.upstream)
	s.mu.Unlock()
	s.metrics.ObserveUpstream(d.Seconds())
}
