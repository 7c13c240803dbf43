package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/models"
)

// FlagInput is a user report.
type FlagInput struct {
	ContentID   string `json:"contentId"`
	ContentType string `json:"contentType"`
	Reason      string `json:"reason"`
	ReporterID  string `json:"reporterId"`
}

// Flag files a pending report. A reporter may hold only one pending flag
// per piece of content.
func (s *Service) Flag(ctx context.Context, in FlagInput) (models.Flag, error) {
	if in.ContentID == "" || in.ContentType == "" {
		return models.Flag{}, apperr.InvalidArgument("contentId and contentType are required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return models.Flag{}, apperr.InvalidArgument("reason is required")
	}
	if in.ReporterID == "" {
		return models.Flag{}, apperr.Unauthenticated("sign in to report content")
	}

	dup, err := s.store.Count(ctx, models.CollModerationFlags,
		docstore.Where("contentId", "==", in.ContentID),
		docstore.Where("reporterId", "==", in.ReporterID),
		docstore.Where("status", "==", string(models.FlagPending)),
	)
	if err != nil {
		return models.Flag{}, fmt.Errorf("check duplicate flag: %w", err)
	}
	if dup > 0 {
		return models.Flag{}, apperr.AlreadyExists("you have already reported this content")
	}

	f := models.Flag{
		ID:          docstore.NewID(),
		ContentID:   in.ContentID,
		ContentType: in.ContentType,
		Reason:      in.Reason,
		ReporterID:  in.ReporterID,
		Status:      models.FlagPending,
		CreatedAt:   models.Millis(s.now()),
	}
	if err := s.store.Create(ctx, models.CollModerationFlags, f.ID, f); err != nil {
		return models.Flag{}, fmt.Errorf("create flag: %w", err)
	}
	s.record(ctx, models.ActionFlag, in.ContentID, in.ReporterID, in.Reason)
	return f, nil
}

// Flags lists flags with the given status, oldest first. An empty status
// lists every flag.
func (s *Service) Flags(ctx context.Context, status models.FlagStatus, limit int) ([]models.Flag, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	q := docstore.Query{OrderBy: "createdAt", Limit: limit}
	if status != "" {
		q.Where = []docstore.Filter{docstore.Where("status", "==", string(status))}
	}
	docs, err := s.store.Query(ctx, models.CollModerationFlags, q)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	out := make([]models.Flag, 0, len(docs))
	for _, d := range docs {
		var f models.Flag
		if err := d.Decode(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Resolve closes a pending flag. Dismissing marks it dismissed; remove and
// warn mark it resolved.
func (s *Service) Resolve(ctx context.Context, flagID string, action models.ModerationAction, moderator, note string) (models.Flag, error) {
	var status models.FlagStatus
	switch action {
	case models.ActionDismiss:
		status = models.FlagDismissed
	case models.ActionRemove, models.ActionWarn:
		status = models.FlagResolved
	default:
		return models.Flag{}, apperr.InvalidArgument("action must be dismiss, remove or warn")
	}

	var f models.Flag
	err := s.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		if err := tx.Get(ctx, models.CollModerationFlags, flagID, &f); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return apperr.NotFound("flag %q not found", flagID)
			}
			return err
		}
		if f.Status != models.FlagPending {
			return apperr.FailedPrecondition("flag %q is already %s", flagID, f.Status)
		}
		f.Status = status
		f.Resolution = action
		f.ResolvedBy = moderator
		f.ResolvedAt = models.Millis(s.now())
		f.Note = note
		return tx.Set(ctx, models.CollModerationFlags, flagID, f)
	})
	if err != nil {
		return models.Flag{}, err
	}
	s.record(ctx, action, f.ContentID, moderator, note)
	return f, nil
}
