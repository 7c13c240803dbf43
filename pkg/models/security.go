package models

// Security event types.
const (
	EventRateLimitExceeded = "rate_limit_exceeded"
	EventIPBlocked         = "ip_blocked"
	EventIPUnblocked       = "ip_unblocked"
	EventAdminAction       = "admin_action"
)

// SecurityEvent is an entry in the security log.
type SecurityEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	IPHash    string            `json:"ipHash,omitempty"`
	UID       string            `json:"uid,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// SecurityLogQuery filters security events.
type SecurityLogQuery struct {
	EventType string
	Since     int64
	Limit     int
}

// SecurityLogConfig controls the security log subsystem.
type SecurityLogConfig struct {
	RetentionDays int `yaml:"retention_days"`
}
