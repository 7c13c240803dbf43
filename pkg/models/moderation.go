package models

import "time"

// FlagStatus is the review state of a content flag.
type FlagStatus string

const (
	FlagPending   FlagStatus = "pending"
	FlagResolved  FlagStatus = "resolved"
	FlagDismissed FlagStatus = "dismissed"
)

// ModerationAction names an action recorded in moderation history.
type ModerationAction string

const (
	ActionBan     ModerationAction = "ban"
	ActionUnban   ModerationAction = "unban"
	ActionFlag    ModerationAction = "flag"
	ActionDismiss ModerationAction = "dismiss"
	ActionRemove  ModerationAction = "remove"
	ActionWarn    ModerationAction = "warn"
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
)

// Ban is a moderation ban on a user. ExpiresAt of zero means permanent.
type Ban struct {
	UserID    string `json:"userId"`
	Reason    string `json:"reason"`
	BannedBy  string `json:"bannedBy"`
	BannedAt  int64  `json:"bannedAt"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

// Expired reports whether a temporary ban has lapsed at now.
func (b Ban) Expired(now time.Time) bool {
	return b.ExpiresAt > 0 && Millis(now) >= b.ExpiresAt
}

// Flag is a user report against a piece of content.
type Flag struct {
	ID          string           `json:"id"`
	ContentID   string           `json:"contentId"`
	ContentType string           `json:"contentType"`
	Reason      string           `json:"reason"`
	ReporterID  string           `json:"reporterId"`
	Status      FlagStatus       `json:"status"`
	CreatedAt   int64            `json:"createdAt"`
	ResolvedBy  string           `json:"resolvedBy,omitempty"`
	ResolvedAt  int64            `json:"resolvedAt,omitempty"`
	Resolution  ModerationAction `json:"resolution,omitempty"`
	Note        string           `json:"note,omitempty"`
}

// ModerationRecord is an entry in moderation history.
type ModerationRecord struct {
	ID        string           `json:"id"`
	Action    ModerationAction `json:"action"`
	TargetID  string           `json:"targetId"`
	Moderator string           `json:"moderator"`
	Reason    string           `json:"reason,omitempty"`
	Timestamp int64            `json:"timestamp"`
}
