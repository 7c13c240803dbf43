// Package moderation manages user bans, content flags and the moderation
// history that records every action taken.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/models"
)

const defaultListLimit = 50

// Service implements moderation actions. Callers are expected to have
// checked that the moderator is an administrator.
type Service struct {
	store  *docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// New returns a Service over store.
func New(store *docstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Ban bans userID. A zero duration bans permanently.
func (s *Service) Ban(ctx context.Context, userID, reason string, duration time.Duration, moderator string) (models.Ban, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Ban{}, apperr.InvalidArgument("userId is required")
	}
	if strings.TrimSpace(reason) == "" {
		return models.Ban{}, apperr.InvalidArgument("reason is required")
	}
	now := s.now()
	b := models.Ban{
		UserID:   userID,
		Reason:   reason,
		BannedBy: moderator,
		BannedAt: models.Millis(now),
	}
	if duration > 0 {
		b.ExpiresAt = models.Millis(now.Add(duration))
	}
	if err := s.store.Set(ctx, models.CollModerationBans, userID, b); err != nil {
		return models.Ban{}, fmt.Errorf("ban %s: %w", userID, err)
	}
	s.record(ctx, models.ActionBan, userID, moderator, reason)
	s.logger.Info("user banned", "user_id", userID, "moderator", moderator, "permanent", duration <= 0)
	return b, nil
}

// Unban lifts any ban on userID.
func (s *Service) Unban(ctx context.Context, userID, moderator string) error {
	if _, ok, err := s.ActiveBan(ctx, userID); err != nil {
		return err
	} else if !ok {
		return apperr.NotFound("user %q is not banned", userID)
	}
	if err := s.store.Delete(ctx, models.CollModerationBans, userID); err != nil {
		return fmt.Errorf("unban %s: %w", userID, err)
	}
	s.record(ctx, models.ActionUnban, userID, moderator, "")
	return nil
}

// ActiveBan returns the ban in force for userID. Expired bans are deleted
// and reported as absent.
func (s *Service) ActiveBan(ctx context.Context, userID string) (models.Ban, bool, error) {
	var b models.Ban
	err := s.store.Get(ctx, models.CollModerationBans, userID, &b)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Ban{}, false, nil
	}
	if err != nil {
		return models.Ban{}, false, err
	}
	if b.Expired(s.now()) {
		if err := s.store.Delete(ctx, models.CollModerationBans, userID); err != nil {
			s.logger.Warn("delete expired ban failed", "user_id", userID, "error", err)
		}
		return models.Ban{}, false, nil
	}
	return b, true, nil
}

// IsBanned reports whether userID is currently banned.
func (s *Service) IsBanned(ctx context.Context, userID string) (bool, error) {
	_, ok, err := s.ActiveBan(ctx, userID)
	return ok, err
}

// History returns moderation records for targetID, newest first. An empty
// targetID returns records for every target.
func (s *Service) History(ctx context.Context, targetID string, limit int) ([]models.ModerationRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	q := docstore.Query{OrderBy: "timestamp", Desc: true, Limit: limit}
	if targetID != "" {
		q.Where = []docstore.Filter{docstore.Where("targetId", "==", targetID)}
	}
	docs, err := s.store.Query(ctx, models.CollModerationHistory, q)
	if err != nil {
		return nil, fmt.Errorf("moderation history: %w", err)
	}
	out := make([]models.ModerationRecord, 0, len(docs))
	for _, d := range docs {
		var r models.ModerationRecord
		if err := d.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Record writes a history entry for an action taken elsewhere, such as an
// asset review.
func (s *Service) Record(ctx context.Context, action models.ModerationAction, targetID, moderator, reason string) {
	s.record(ctx, action, targetID, moderator, reason)
}

func (s *Service) record(ctx context.Context, action models.ModerationAction, targetID, moderator, reason string) {
	r := models.ModerationRecord{
		ID:        docstore.NewID(),
		Action:    action,
		TargetID:  targetID,
		Moderator: moderator,
		Reason:    reason,
		Timestamp: models.Millis(s.now()),
	}
	if err := s.store.Create(ctx, models.CollModerationHistory, r.ID, r); err != nil {
		s.logger.Warn("write moderation history failed", "action", action, "target", targetID, "error", err)
	}
}
