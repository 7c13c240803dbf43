package models

import "time"

// UserType classifies a caller for quota purposes.
type UserType string

const (
	UserAnonymous     UserType = "anonymous"
	UserAuthenticated UserType = "authenticated"
	UserAdmin         UserType = "admin"
)

// Unlimited is reported as limit and remaining for callers without a quota.
const Unlimited = -1

// OperationLimit defines the request ceiling per window for each user type.
type OperationLimit struct {
	Anonymous     int `json:"anonymous" yaml:"anonymous"`
	Authenticated int `json:"authenticated" yaml:"authenticated"`
}

// For returns the ceiling that applies to userType.
func (l OperationLimit) For(userType UserType) int {
	switch userType {
	case UserAdmin:
		return Unlimited
	case UserAuthenticated:
		return l.Authenticated
	default:
		return l.Anonymous
	}
}

// RequestEntry is one counted request.
type RequestEntry struct {
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
}

// RequestLog is the per-identity rate limit document.
type RequestLog struct {
	Identifier string         `json:"identifier"`
	Requests   []RequestEntry `json:"requests"`
	Violations int            `json:"violations"`
	UpdatedAt  int64          `json:"updatedAt"`
}

// RateLimitResult is returned by checkRateLimit.
type RateLimitResult struct {
	Allowed   bool     `json:"allowed"`
	Remaining int      `json:"remaining"`
	Limit     int      `json:"limit"`
	Window    int      `json:"window"` // seconds
	UserType  UserType `json:"userType"`
}

// BlockedIP records a blocked hashed IP address.
type BlockedIP struct {
	IPHash     string `json:"ipHash"`
	Reason     string `json:"reason"`
	BlockedBy  string `json:"blockedBy"`
	BlockedAt  int64  `json:"blockedAt"`
	ExpiresAt  int64  `json:"expiresAt"`
	AutoExpire bool   `json:"autoExpire"`
}

// Expired reports whether the block no longer applies at now.
func (b BlockedIP) Expired(now time.Time) bool {
	return b.ExpiresAt > 0 && Millis(now) >= b.ExpiresAt
}

// RequestAttempt is one request counted against a RequestLog.
type RequestAttempt struct {
	Identifier string
	Type       string
	Now        int64
	// Entries at or before Cutoff are outside the window.
	Cutoff int64
	Limit  int
	// A positive MaxViolations counts a denial as a violation. Reaching
	// it resets the count and sets Block on the outcome.
	MaxViolations int
}

// AttemptOutcome is the result of applying a RequestAttempt.
type AttemptOutcome struct {
	Allowed bool
	// Count is the number of entries of the attempt's type that were in
	// the window before it.
	Count      int
	Violations int
	Block      bool
}

// Apply prunes l to the window, then either records a or counts a
// violation against it.
func (l *RequestLog) Apply(a RequestAttempt) AttemptOutcome {
	kept := make([]RequestEntry, 0, len(l.Requests)+1)
	count := 0
	for _, r := range l.Requests {
		if r.Timestamp <= a.Cutoff {
			continue
		}
		kept = append(kept, r)
		if r.Type == a.Type {
			count++
		}
	}
	l.Requests = kept
	l.UpdatedAt = a.Now

	out := AttemptOutcome{Count: count}
	if count < a.Limit {
		l.Requests = append(l.Requests, RequestEntry{Timestamp: a.Now, Type: a.Type})
		out.Allowed = true
	} else if a.MaxViolations > 0 {
		l.Violations++
		if l.Violations >= a.MaxViolations {
			l.Violations = 0
			out.Block = true
		}
	}
	out.Violations = l.Violations
	return out
}
