package api

import (
	"net/http"
	"time"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/entities"
	"github.com/eyesofazrael/azrael/pkg/votes"
)

const dateLayout = "2006-01-02"

type voteRequest struct {
	ItemID   string `json:"itemId"`
	ItemType string `json:"itemType"`
	Value    int    `json:"value"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAuth(); err != nil {
		s.writeError(w, err)
		return
	}
	var req voteRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	total, err := s.app.Votes.Vote(r.Context(), votes.Input{
		ItemID:   req.ItemID,
		ItemType: req.ItemType,
		UserID:   c.UID,
		Value:    req.Value,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

// handleVoteStats returns daily analytics between ?from= and ?to=
// (YYYY-MM-DD, UTC). The range defaults to the last seven days.
func (s *Server) handleVoteStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemType := q.Get("itemType")
	if itemType == "" {
		s.writeError(w, apperr.InvalidArgument("itemType is required"))
		return
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -6)
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = time.Parse(dateLayout, v); err != nil {
			s.writeError(w, apperr.InvalidArgument("from must be YYYY-MM-DD"))
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = time.Parse(dateLayout, v); err != nil {
			s.writeError(w, apperr.InvalidArgument("to must be YYYY-MM-DD"))
			return
		}
	}
	stats, err := s.app.Votes.DailyStats(r.Context(), itemType, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (s *Server) handleTopItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := queryInt(r, "n", 10)
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, err := s.app.Votes.TopItems(r.Context(), q.Get("itemType"), q.Get("date"), n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleItemScore(w http.ResponseWriter, r *http.Request) {
	total, err := s.app.Votes.ItemScore(r.Context(), r.PathValue("itemType"), r.PathValue("itemId"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

func (s *Server) handleMythologies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"mythologies": entities.Mythologies()})
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	entityType := r.PathValue("type")
	form := entities.FormFor(entityType)
	if form == nil {
		s.writeError(w, apperr.NotFound("unknown entity type %q", entityType))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"type": entityType, "fields": form})
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Entities.List(r.Context(), r.PathValue("type"), r.URL.Query().Get("mythology"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": list})
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	e, err := s.app.Entities.Get(r.Context(), r.PathValue("type"), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
