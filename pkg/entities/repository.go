package entities

import (
	"context"
	"errors"
	"fmt"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/models"
)

// Repository stores entities in per-type collections.
type Repository struct {
	store *docstore.Store
}

// NewRepository returns a Repository over store.
func NewRepository(store *docstore.Store) *Repository {
	return &Repository{store: store}
}

// Put validates and writes an entity, replacing any previous version.
func (r *Repository) Put(ctx context.Context, e models.Entity) error {
	if err := Validate(e); err != nil {
		return err
	}
	coll, _ := CollectionFor(e.Type)
	return r.store.Set(ctx, coll, e.ID, e)
}

// Get loads one entity.
func (r *Repository) Get(ctx context.Context, entityType, id string) (models.Entity, error) {
	coll, ok := CollectionFor(entityType)
	if !ok {
		return models.Entity{}, apperr.InvalidArgument("unknown entity type %q", entityType)
	}
	var e models.Entity
	if err := r.store.Get(ctx, coll, id, &e); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return models.Entity{}, apperr.NotFound("%s %q not found", entityType, id)
		}
		return models.Entity{}, err
	}
	return e, nil
}

// Delete removes an entity.
func (r *Repository) Delete(ctx context.Context, entityType, id string) error {
	coll, ok := CollectionFor(entityType)
	if !ok {
		return apperr.InvalidArgument("unknown entity type %q", entityType)
	}
	return r.store.Delete(ctx, coll, id)
}

// List returns the entities of one type, optionally restricted to a
// mythology, ordered by name.
func (r *Repository) List(ctx context.Context, entityType, mythology string) ([]models.Entity, error) {
	coll, ok := CollectionFor(entityType)
	if !ok {
		return nil, apperr.InvalidArgument("unknown entity type %q", entityType)
	}
	q := docstore.Query{OrderBy: "name"}
	if mythology != "" {
		q.Where = append(q.Where, docstore.Where("mythology", "==", mythology))
	}
	docs, err := r.store.Query(ctx, coll, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entity, 0, len(docs))
	for _, d := range docs {
		var e models.Entity
		if err := d.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// All returns every entity of every type.
func (r *Repository) All(ctx context.Context) ([]models.Entity, error) {
	var out []models.Entity
	for _, t := range Types() {
		list, err := r.List(ctx, t, "")
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", t, err)
		}
		out = append(out, list...)
	}
	return out, nil
}

// SeedMythologies writes a mythologies/{id} document for each tradition in
// the taxonomy. Existing documents are overwritten.
func (r *Repository) SeedMythologies(ctx context.Context) (int, error) {
	list := Mythologies()
	for _, m := range list {
		if err := r.store.Set(ctx, models.CollMythologies, m.ID, m); err != nil {
			return 0, err
		}
	}
	return len(list), nil
}
