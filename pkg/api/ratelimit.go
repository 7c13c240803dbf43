package api

import (
	"net/http"

	"github.com/eyesofazrael/azrael/pkg/models"
)

type checkRateLimitRequest struct {
	OperationType string `json:"operationType"`
}

func (s *Server) handleCheckRateLimit(w http.ResponseWriter, r *http.Request) {
	var req checkRateLimitRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.app.Limiter.Check(r.Context(), s.callerFrom(r).identity(), req.OperationType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type blockIPRequest struct {
	IP     string `json:"ip"`
	Reason string `json:"reason"`
	// Duration in seconds. Absent uses the configured block duration and
	// zero blocks until unblocked.
	Duration *int64 `json:"duration"`
}

type blockIPResponse struct {
	Success   bool   `json:"success"`
	IPHash    string `json:"ipHash"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

func (s *Server) handleAdminBlockIP(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	var req blockIPRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	duration := s.app.Config.RateLimit.BlockDuration
	if req.Duration != nil {
		var err error
		if duration, err = seconds("duration", *req.Duration); err != nil {
			s.writeError(w, err)
			return
		}
	}
	b, err := s.app.Limiter.Block(r.Context(), req.IP, req.Reason, duration, c.name())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blockIPResponse{Success: true, IPHash: b.IPHash, ExpiresAt: b.ExpiresAt})
}

type unblockIPRequest struct {
	IP string `json:"ip"`
}

func (s *Server) handleAdminUnblockIP(w http.ResponseWriter, r *http.Request) {
	c := s.callerFrom(r)
	if err := c.requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	var req unblockIPRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	hash, err := s.app.Limiter.Unblock(r.Context(), req.IP, c.name())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blockIPResponse{Success: true, IPHash: hash})
}

type securityLogsRequest struct {
	Limit     int    `json:"limit"`
	EventType string `json:"eventType"`
}

func (s *Server) handleGetSecurityLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.callerFrom(r).requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	var req securityLogsRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	logs, err := s.app.Audit.Query(r.Context(), models.SecurityLogQuery{
		EventType: req.EventType,
		Limit:     req.Limit,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (s *Server) handleBlockedIPs(w http.ResponseWriter, r *http.Request) {
	if err := s.callerFrom(r).requireAdmin(); err != nil {
		s.writeError(w, err)
		return
	}
	blocked, err := s.app.Limiter.BlockedIPs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocked": blocked})
}
