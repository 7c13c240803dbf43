package api

import (
	"net/http"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/assets"
	"github.com/eyesofazrael/azrael/pkg/models"
)

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAuth(); err != nil {
		s.writeError(w, err)
		return
	}
	var in assets.Input
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	a, err := s.app.Assets.Create(r.Context(), c.UID, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// handleListAssets lists the caller's own assets, or with ?status= the
// review queue for admins.
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	var (
		list []models.Asset
		err  error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		if err := c.requireAdmin(); err != nil {
			s.writeError(w, err)
			return
		}
		limit, lerr := queryInt(r, "limit", 0)
		if lerr != nil {
			s.writeError(w, lerr)
			return
		}
		list, err = s.app.Assets.ListByStatus(r.Context(), models.AssetStatus(status), limit)
	} else {
		if err := c.requireAuth(); err != nil {
			s.writeError(w, err)
			return
		}
		list, err = s.app.Assets.ListByOwner(r.Context(), c.UID)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": list})
}

// handleGetAsset hides unpublished assets from everyone but their owner
// and admins.
func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	a, err := s.app.Assets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if a.Status != models.AssetApproved && !c.Admin && (c.UID == "" || c.UID != a.OwnerID) {
		s.writeError(w, apperr.NotFound("asset %q not found", a.ID))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAuth(); err != nil {
		s.writeError(w, err)
		return
	}
	var in assets.Input
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	a, err := s.app.Assets.Update(r.Context(), c.actor(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAuth(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.app.Assets.Delete(r.Context(), c.actor(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

func (s *Server) handleReviewAsset(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	var req reviewRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	a, err := s.app.Assets.Review(r.Context(), r.PathValue("id"), req.Approve, c.name(), req.Note)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
