package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/assets"
	"github.com/eyesofazrael/azrael/pkg/ratelimit"
)

// Identity headers set by the authenticating gateway in front of the API.
const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
)

const (
	opSearch = "search"
	opWrite  = "write"
)

type caller struct {
	UID    string
	Email  string
	IPHash string
	Admin  bool
}

func (s *Server) callerFrom(r *http.Request) caller {
	c := caller{
		UID:    strings.TrimSpace(r.Header.Get(headerUserID)),
		Email:  strings.TrimSpace(r.Header.Get(headerUserEmail)),
		IPHash: ratelimit.HashIP(clientIP(r), s.app.Config.RateLimit.IPSalt),
	}
	c.Admin = c.UID != "" && s.app.Config.IsAdmin(c.Email)
	return c
}

func (c caller) identity() ratelimit.Identity {
	if c.UID == "" {
		return ratelimit.Anonymous(c.IPHash)
	}
	return ratelimit.User(c.UID, c.IPHash, c.Admin)
}

func (c caller) actor() assets.Actor {
	return assets.Actor{UserID: c.UID, Admin: c.Admin}
}

// name identifies the caller in audit records.
func (c caller) name() string {
	if c.Email != "" {
		return c.Email
	}
	return c.UID
}

func (c caller) requireAuth() error {
	if c.UID == "" {
		return apperr.Unauthenticated("authentication required")
	}
	return nil
}

func (c caller) requireAdmin() error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if !c.Admin {
		return apperr.PermissionDenied("admin access required")
	}
	return nil
}

// clientIP returns the first X-Forwarded-For hop, else the peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limited counts the request against the caller's quota for op before
// calling next.
func (s *Server) limited(op string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := s.app.Limiter.Check(r.Context(), s.callerFrom(r).identity(), op)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if res.Limit >= 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		}
		if !res.Allowed {
			s.writeError(w, apperr.ResourceExhausted("rate limit exceeded, try again later"))
			return
		}
		next(w, r)
	})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.InvalidArgument("%s must be a non-negative integer", name)
	}
	return n, nil
}

// maxDurationSeconds caps durations given in seconds (ten years).
const maxDurationSeconds = 10 * 365 * 24 * 60 * 60

// seconds converts a duration in seconds from a request body. Zero and
// negative values mean permanent and come back as zero.
func seconds(field string, secs int64) (time.Duration, error) {
	if secs <= 0 {
		return 0, nil
	}
	if secs > maxDurationSeconds {
		return 0, apperr.InvalidArgument("%s must be at most %d seconds", field, maxDurationSeconds)
	}
	return time.Duration(secs) * time.Second, nil
}
