package models

import "time"

// Document store collection paths. These keep the layout of the hosted
// deployment so exported data lines up one-to-one.
const (
	CollRateLimits        = "system/rate_limits/requests"
	CollBlockedIPs        = "system/blocked_ips/ips"
	CollSecurityLogs      = "system/security_logs/events"
	CollUserAssets        = "user_assets"
	CollModerationBans    = "moderation_bans"
	CollModerationFlags   = "moderation_flags"
	CollModerationHistory = "moderation_history"
	CollVotes             = "votes"
	CollVoteTotals        = "vote_totals"
	CollVoteAnalytics     = "vote_analytics"
	CollMythologies       = "mythologies"
)

// Millis converts t to epoch milliseconds, the timestamp encoding used in
// stored documents.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds back to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
