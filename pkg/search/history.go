package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/eyesofazrael/azrael/pkg/models"
)

// HistoryKey is the local storage key holding search history.
const HistoryKey = "searchHistory"

// HistoryStore persists JSON values by key.
type HistoryStore interface {
	GetJSON(key string, dst any) (bool, error)
	SetJSON(key string, v any) error
}

// History returns past upstream searches, most recent first.
func (s *Service) History() []models.SearchHistoryEntry {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	return s.loadHistory()
}

// ClearHistory forgets every history entry.
func (s *Service) ClearHistory() error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	return s.history.SetJSON(HistoryKey, []models.SearchHistoryEntry{})
}

// PopularSearches groups history by lower-cased query text and returns the
// most frequent, ties broken by recency.
func (s *Service) PopularSearches(limit int) []models.PopularSearch {
	if limit <= 0 {
		limit = 10
	}
	hist := s.History()

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, h := range hist {
		q := strings.ToLower(h.Query)
		if _, ok := firstSeen[q]; !ok {
			firstSeen[q] = i
		}
		counts[q]++
	}

	out := make([]models.PopularSearch, 0, len(counts))
	for q, n := range counts {
		out = append(out, models.PopularSearch{Query: q, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return firstSeen[out[i].Query] < firstSeen[out[j].Query]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Suggestions returns history queries starting with prefix, ignoring case,
// most recent first.
func (s *Service) Suggestions(prefix string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	p := strings.ToLower(strings.TrimSpace(prefix))
	var out []string
	for _, h := range s.History() {
		if strings.HasPrefix(strings.ToLower(h.Query), p) {
			out = append(out, h.Query)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (s *Service) addHistory(e models.SearchHistoryEntry) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	hist := s.loadHistory()
	next := make([]models.SearchHistoryEntry, 0, len(hist)+1)
	next = append(next, e)
	for _, h := range hist {
		if h.Query != e.Query {
			next = append(next, h)
		}
	}
	if len(next) > s.cfg.MaxHistorySize {
		next = next[:s.cfg.MaxHistorySize]
	}
	if err := s.history.SetJSON(HistoryKey, next); err != nil {
		s.logger.Warn("save search history failed", "error", err)
	}
}

func (s *Service) loadHistory() []models.SearchHistoryEntry {
	var hist []models.SearchHistoryEntry
	if _, err := s.history.GetJSON(HistoryKey, &hist); err != nil {
		s.logger.Warn("load search history failed", "error", err)
		return []models.SearchHistoryEntry{}
	}
	if hist == nil {
		hist = []models.SearchHistoryEntry{}
	}
	return hist
}

// memoryHistory keeps history for the process lifetime when no local
// store is configured.
type memoryHistory struct {
	mu   sync.Mutex
	data map[string][]models.SearchHistoryEntry
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{data: make(map[string][]models.SearchHistoryEntry)}
}

func (m *memoryHistory) GetJSON(key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	p := dst.(*[]models.SearchHistoryEntry)
	*p = append([]models.SearchHistoryEntry(nil), v...)
	return true, nil
}

func (m *memoryHistory) SetJSON(key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]models.SearchHistoryEntry(nil), v.([]models.SearchHistoryEntry)...)
	return nil
}
