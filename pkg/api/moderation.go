package api

import (
	"net/http"

	"github.com/eyesofazrael/azrael/pkg/models"
	"github.com/eyesofazrael/azrael/pkg/moderation"
)

type banRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
	// Duration in seconds; zero or absent bans permanently.
	Duration int64 `json:"duration"`
}

func (s *Server) handleBan(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	var req banRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	duration, err := seconds("duration", req.Duration)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ban, err := s.app.Moderation.Ban(r.Context(), req.UserID, req.Reason, duration, c.name())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ban)
}

func (s *Server) handleUnban(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.app.Moderation.Unban(r.Context(), r.PathValue("userId"), c.name()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	var in moderation.FlagInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	in.ReporterID = c.UID
	f, err := s.app.Moderation.Flag(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleListFlags(w http.ResponseWriter, r *http.Request) {
	if err := s.callerFrom(r).requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := models.FlagStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.FlagPending
	}
	flags, err := s.app.Moderation.Flags(r.Context(), status, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flags": flags})
}

type resolveRequest struct {
	Action models.ModerationAction `json:"action"`
	Note   string                  `json:"note"`
}

func (s *Server) handleResolveFlag(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	var req resolveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	f, err := s.app.Moderation.Resolve(r.Context(), r.PathValue("id"), req.Action, c.name(), req.Note)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleModerationHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.callerFrom(r).requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	records, err := s.app.Moderation.History(r.Context(), r.PathValue("targetId"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}
