package corpus

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/eyesofazrael/azrael/pkg/entities"
	"github.com/eyesofazrael/azrael/pkg/models"
)

// EntitySource lists stored entities by type.
type EntitySource interface {
	List(ctx context.Context, entityType, mythology string) ([]models.Entity, error)
}

// BuildFromStore loads every entity collection concurrently and indexes
// the result. It returns the number of entities indexed.
func (i *Indexer) BuildFromStore(ctx context.Context, src EntitySource) (int, error) {
	var (
		mu  sync.Mutex
		all []models.Entity
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range entities.Types() {
		g.Go(func() error {
			list, err := src.List(gctx, t, "")
			if err != nil {
				return fmt.Errorf("load %s: %w", t, err)
			}
			mu.Lock()
			all = append(all, list...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := i.IndexEntities(ctx, all); err != nil {
		return 0, err
	}
	return len(all), nil
}
