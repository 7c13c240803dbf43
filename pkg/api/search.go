package api

import (
	"net/http"
	"strings"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/models"
)

type searchResponse struct {
	Query   string                `json:"query"`
	Results []models.SearchResult `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	text := r.URL.Query().Get("q")
	results, err := s.app.Search.Search(r.Context(), text, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: text, Results: results})
}

func searchOptions(r *http.Request) (models.SearchOptions, error) {
	q := r.URL.Query()
	opts := models.SearchOptions{
		Mode:      models.SearchMode(strings.ToLower(q.Get("mode"))),
		Mythology: q.Get("mythology"),
		Type:      q.Get("type"),
	}
	switch opts.Mode {
	case "", models.SearchGeneric, models.SearchExact, models.SearchPrefix, models.SearchFuzzy:
	default:
		return opts, apperr.InvalidArgument("unknown search mode %q", opts.Mode)
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return opts, err
	}
	opts.Limit = limit
	return opts, nil
}

func (s *Server) handleSearchHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"history": s.app.Search.History()})
}

// handleClearSearchHistory wipes the shared history. Admin only.
func (s *Server) handleClearSearchHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.callerFrom(r).requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.app.Search.ClearHistory(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handlePopularSearches(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"searches": s.app.Search.PopularSearches(limit)})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		s.writeError(w, err)
		return
	}
	suggestions := s.app.Search.Suggestions(r.URL.Query().Get("prefix"), limit)
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleSearchMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Search.Metrics())
}

func (s *Server) handleClearSearchCache(w http.ResponseWriter, r *http.Request) {
	if err := s.callerFrom(r).requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.app.Search.ClearAllCaches(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
