package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/models"
)

// IsIPBlocked reports whether ipHash is currently blocked. Expired blocks
// are deleted as they are found. Lookup errors resolve to the opposite of
// the fail-open policy.
func (l *Limiter) IsIPBlocked(ctx context.Context, ipHash string) bool {
	b, ok, err := l.blocks.Get(ctx, ipHash)
	if err != nil {
		l.logger.Warn("block lookup failed", "ip_hash", ipHash, "error", err)
		return !l.cfg.FailOpen
	}
	if !ok {
		return false
	}
	if b.Expired(l.now()) {
		if err := l.blocks.Delete(ctx, ipHash); err != nil {
			l.logger.Warn("delete expired block failed", "ip_hash", ipHash, "error", err)
		}
		return false
	}
	return true
}

// Block blocks ip for duration. A non-positive duration blocks it until
// it is explicitly unblocked.
func (l *Limiter) Block(ctx context.Context, ip, reason string, duration time.Duration, by string) (models.BlockedIP, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return models.BlockedIP{}, apperr.InvalidArgument("ip is required")
	}
	if reason == "" {
		reason = "blocked by administrator"
	}
	now := l.now()
	b := models.BlockedIP{
		IPHash:    HashIP(ip, l.cfg.IPSalt),
		Reason:    reason,
		BlockedBy: by,
		BlockedAt: models.Millis(now),
	}
	if duration > 0 {
		b.ExpiresAt = models.Millis(now.Add(duration))
		b.AutoExpire = true
	}
	if err := l.blocks.Put(ctx, b); err != nil {
		return models.BlockedIP{}, fmt.Errorf("block ip: %w", err)
	}
	l.metrics.BlockCreated()
	l.logEvent(ctx, models.SecurityEvent{
		Type:   models.EventIPBlocked,
		IPHash: b.IPHash,
		Details: map[string]string{
			"reason":    reason,
			"blockedBy": by,
		},
	})
	return b, nil
}

// Unblock removes the block on ip, if any, and returns its hash.
func (l *Limiter) Unblock(ctx context.Context, ip, by string) (string, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", apperr.InvalidArgument("ip is required")
	}
	hash := HashIP(ip, l.cfg.IPSalt)
	if err := l.blocks.Delete(ctx, hash); err != nil {
		return "", fmt.Errorf("unblock ip: %w", err)
	}
	l.logEvent(ctx, models.SecurityEvent{
		Type:    models.EventIPUnblocked,
		IPHash:  hash,
		Details: map[string]string{"unblockedBy": by},
	})
	return hash, nil
}

// BlockedIPs lists blocks that are still in force.
func (l *Limiter) BlockedIPs(ctx context.Context) ([]models.BlockedIP, error) {
	all, err := l.blocks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blocked ips: %w", err)
	}
	now := l.now()
	out := make([]models.BlockedIP, 0, len(all))
	for _, b := range all {
		if !b.Expired(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

// CleanupReport counts what one Cleanup run removed.
type CleanupReport struct {
	ExpiredBlocks int64 `json:"expiredBlocks"`
	IdleRequests  int64 `json:"idleRequests"`
	SecurityLogs  int64 `json:"securityLogs"`
}

// LogCleaner prunes old security events.
type LogCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// Cleanup removes expired blocks and request logs with nothing left in the
// window, then prunes the security log when logs is non-nil.
func (l *Limiter) Cleanup(ctx context.Context, logs LogCleaner) (CleanupReport, error) {
	var rep CleanupReport
	now := l.now()

	n, err := l.blocks.DeleteExpired(ctx, models.Millis(now))
	if err != nil {
		return rep, fmt.Errorf("delete expired blocks: %w", err)
	}
	rep.ExpiredBlocks = n

	n, err = l.requests.DeleteIdle(ctx, models.Millis(now.Add(-l.cfg.Window)))
	if err != nil {
		return rep, fmt.Errorf("delete idle request logs: %w", err)
	}
	rep.IdleRequests = n

	if logs != nil {
		n, err = logs.Cleanup(ctx)
		if err != nil {
			return rep, err
		}
		rep.SecurityLogs = n
	}
	return rep, nil
}
