// Package assets manages user-submitted entities and their review.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/entities"
	"github.com/eyesofazrael/azrael/pkg/models"
)

// Actor is the caller performing an operation.
type Actor struct {
	UserID string
	Admin  bool
}

// Input is the editable part of an asset.
type Input struct {
	Type        string            `json:"type" validate:"required"`
	Mythology   string            `json:"mythology" validate:"required"`
	Name        string            `json:"name" validate:"required,max=200"`
	Description string            `json:"description" validate:"required,min=10,max=20000"`
	Fields      map[string]string `json:"fields,omitempty"`
	Tags        []string          `json:"tags,omitempty" validate:"max=20,dive,max=50"`
}

// BanChecker reports moderation bans.
type BanChecker interface {
	IsBanned(ctx context.Context, userID string) (bool, error)
}

// Publisher stores published entities.
type Publisher interface {
	Put(ctx context.Context, e models.Entity) error
	Delete(ctx context.Context, entityType, id string) error
}

// Indexer makes published entities searchable.
type Indexer interface {
	IndexEntities(ctx context.Context, ents []models.Entity) error
	Remove(id string) error
}

// Recorder writes moderation history.
type Recorder interface {
	Record(ctx context.Context, action models.ModerationAction, targetID, moderator, reason string)
}

// Service implements asset operations.
type Service struct {
	store     *docstore.Store
	bans      BanChecker
	publisher Publisher
	indexer   Indexer
	recorder  Recorder
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// New returns a Service. indexer and recorder may be nil.
func New(store *docstore.Store, bans BanChecker, publisher Publisher, indexer Indexer, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		bans:      bans,
		publisher: publisher,
		indexer:   indexer,
		recorder:  recorder,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Create stores a new pending asset owned by owner.
func (s *Service) Create(ctx context.Context, owner string, in Input) (models.Asset, error) {
	if owner == "" {
		return models.Asset{}, apperr.Unauthenticated("sign in to submit content")
	}
	banned, err := s.bans.IsBanned(ctx, owner)
	if err != nil {
		return models.Asset{}, fmt.Errorf("check ban: %w", err)
	}
	if banned {
		return models.Asset{}, apperr.PermissionDenied("your account is banned from submitting content")
	}
	in, err = s.check(in)
	if err != nil {
		return models.Asset{}, err
	}

	now := models.Millis(s.now())
	a := models.Asset{
		ID:          docstore.NewID(),
		OwnerID:     owner,
		Type:        in.Type,
		Mythology:   in.Mythology,
		Name:        in.Name,
		Description: in.Description,
		Fields:      in.Fields,
		Tags:        in.Tags,
		Status:      models.AssetPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, models.CollUserAssets, a.ID, a); err != nil {
		return models.Asset{}, fmt.Errorf("create asset: %w", err)
	}
	return a, nil
}

// Get loads one asset.
func (s *Service) Get(ctx context.Context, id string) (models.Asset, error) {
	var a models.Asset
	if err := s.store.Get(ctx, models.CollUserAssets, id, &a); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return models.Asset{}, apperr.NotFound("asset %q not found", id)
		}
		return models.Asset{}, err
	}
	return a, nil
}

// Update replaces the editable fields of an asset. Owners may edit until
// the asset is approved; an owner's edit sends it back to review.
func (s *Service) Update(ctx context.Context, actor Actor, id string, in Input) (models.Asset, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return models.Asset{}, err
	}
	if err := authorize(actor, a); err != nil {
		return models.Asset{}, err
	}
	if a.Status == models.AssetApproved && !actor.Admin {
		return models.Asset{}, apperr.FailedPrecondition("approved assets can only be edited by an administrator")
	}
	in, err = s.check(in)
	if err != nil {
		return models.Asset{}, err
	}

	oldType := a.Type
	a.Type = in.Type
	a.Mythology = in.Mythology
	a.Name = in.Name
	a.Description = in.Description
	a.Fields = in.Fields
	a.Tags = in.Tags
	a.UpdatedAt = models.Millis(s.now())
	if !actor.Admin {
		a.Status = models.AssetPending
		a.ReviewedBy = ""
	}
	if err := s.store.Set(ctx, models.CollUserAssets, a.ID, a); err != nil {
		return models.Asset{}, fmt.Errorf("update asset: %w", err)
	}
	if a.Status == models.AssetApproved {
		if oldType != a.Type {
			if err := s.publisher.Delete(ctx, oldType, a.ID); err != nil {
				s.logger.Warn("unpublish previous type failed", "asset_id", a.ID, "type", oldType, "error", err)
			}
		}
		s.publish(ctx, a)
	}
	return a, nil
}

// Delete removes an asset. Deleting an approved asset unpublishes it.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, a); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, models.CollUserAssets, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if a.Status == models.AssetApproved {
		if err := s.publisher.Delete(ctx, a.Type, a.ID); err != nil {
			s.logger.Warn("unpublish asset failed", "asset_id", a.ID, "error", err)
		}
		if s.indexer != nil {
			if err := s.indexer.Remove(a.ID); err != nil {
				s.logger.Warn("remove asset from index failed", "asset_id", a.ID, "error", err)
			}
		}
	}
	return nil
}

// ListByOwner returns an owner's assets, newest first.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]models.Asset, error) {
	return s.list(ctx, docstore.Query{
		Where:   []docstore.Filter{docstore.Where("ownerId", "==", owner)},
		OrderBy: "createdAt",
		Desc:    true,
	})
}

// ListByStatus returns assets in a review state, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status models.AssetStatus, limit int) ([]models.Asset, error) {
	return s.list(ctx, docstore.Query{
		Where:   []docstore.Filter{docstore.Where("status", "==", string(status))},
		OrderBy: "createdAt",
		Limit:   limit,
	})
}

// Review approves or rejects a pending asset. Approved assets are
// published to their entity collection and indexed for search.
func (s *Service) Review(ctx context.Context, id string, approve bool, moderator, note string) (models.Asset, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return models.Asset{}, err
	}
	if a.Status != models.AssetPending {
		return models.Asset{}, apperr.FailedPrecondition("asset %q is already %s", id, a.Status)
	}

	action := models.ActionReject
	a.Status = models.AssetRejected
	if approve {
		if err := s.publisher.Put(ctx, a.Entity()); err != nil {
			return models.Asset{}, fmt.Errorf("publish asset: %w", err)
		}
		action = models.ActionApprove
		a.Status = models.AssetApproved
	}
	a.ReviewedBy = moderator
	a.UpdatedAt = models.Millis(s.now())
	if err := s.store.Set(ctx, models.CollUserAssets, a.ID, a); err != nil {
		return models.Asset{}, fmt.Errorf("save review: %w", err)
	}
	if approve {
		s.index(ctx, a)
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, action, a.ID, moderator, note)
	}
	s.logger.Info("asset reviewed", "asset_id", a.ID, "status", a.Status, "moderator", moderator)
	return a, nil
}

func (s *Service) publish(ctx context.Context, a models.Asset) {
	if err := s.publisher.Put(ctx, a.Entity()); err != nil {
		s.logger.Warn("republish asset failed", "asset_id", a.ID, "error", err)
		return
	}
	s.index(ctx, a)
}

func (s *Service) index(ctx context.Context, a models.Asset) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexEntities(ctx, []models.Entity{a.Entity()}); err != nil {
		s.logger.Warn("index asset failed", "asset_id", a.ID, "error", err)
	}
}

func (s *Service) list(ctx context.Context, q docstore.Query) ([]models.Asset, error) {
	docs, err := s.store.Query(ctx, models.CollUserAssets, q)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	out := make([]models.Asset, 0, len(docs))
	for _, d := range docs {
		var a models.Asset
		if err := d.Decode(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// check normalises and validates an input against the struct rules, the
// taxonomy and the per-type form.
func (s *Service) check(in Input) (Input, error) {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Mythology = strings.ToLower(strings.TrimSpace(in.Mythology))
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return in, apperr.InvalidArgument("%s failed validation: %s", strings.ToLower(fe.Field()), fe.Tag())
		}
		return in, apperr.InvalidArgument("%v", err)
	}
	if err := entities.CheckTaxonomy(in.Type, in.Mythology); err != nil {
		return in, err
	}
	if err := entities.CheckFields(in.Type, in.Fields); err != nil {
		return in, err
	}
	return in, nil
}

// authorize allows owners and admins. Other callers cannot see unpublished
// assets, so for those the asset is reported missing.
func authorize(actor Actor, a models.Asset) error {
	if actor.Admin || (actor.UserID != "" && actor.UserID == a.OwnerID) {
		return nil
	}
	if a.Status != models.AssetApproved {
		return apperr.NotFound("asset %q not found", a.ID)
	}
	return apperr.PermissionDenied("only the owner or an administrator may change this asset")
}
