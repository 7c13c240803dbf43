package models

// SearchMode selects how the query text is matched.
type SearchMode string

const (
	SearchGeneric SearchMode = "generic"
	SearchExact   SearchMode = "exact"
	SearchPrefix  SearchMode = "prefix"
	SearchFuzzy   SearchMode = "fuzzy"
)

// SearchOptions narrows a search. Field order is the canonical
// serialisation order used in cache keys.
type SearchOptions struct {
	Mode      SearchMode `json:"mode"`
	Limit     int        `json:"limit"`
	Mythology string     `json:"mythology,omitempty"`
	Type      string     `json:"type,omitempty"`
}

// SearchQuery is a single search invocation.
type SearchQuery struct {
	Text    string        `json:"text"`
	Options SearchOptions `json:"options"`
}

// SearchResult is one ranked hit from the corpus.
type SearchResult struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Mythology  string  `json:"mythology"`
	Collection string  `json:"collection"`
	Snippet    string  `json:"snippet,omitempty"`
	Score      float64 `json:"score"`
}

// SearchHistoryEntry records a completed upstream search.
type SearchHistoryEntry struct {
	Query       string        `json:"query"`
	Options     SearchOptions `json:"options"`
	ResultCount int           `json:"resultCount"`
	Timestamp   int64         `json:"timestamp"`
}

// SearchMetrics are process-wide search counters.
type SearchMetrics struct {
	Searches    int64   `json:"searches"`
	CacheHits   int64   `json:"cacheHits"`
	AverageTime float64 `json:"averageTime"` // milliseconds
}

// PopularSearch is a query text and how often it appears in history.
type PopularSearch struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}
