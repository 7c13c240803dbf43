// Package corpus is the full-text search provider behind the cached
// search service. Entities are indexed in bleve and queried by mode.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/eyesofazrael/azrael/pkg/entities"
	"github.com/eyesofazrael/azrael/pkg/models"
)

const batchSize = 500

// Indexer owns the bleve index of encyclopedia entities.
type Indexer struct {
	index bleve.Index
	mu    sync.RWMutex
	path  string
}

// document is the indexed form of an entity.
type document struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Aliases     []string `json:"aliases"`
	Mythology   string   `json:"mythology"`
	Type        string   `json:"type"`
	Collection  string   `json:"collection"`
}

// NewIndexer creates an in-memory index.
func NewIndexer() (*Indexer, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Indexer{index: idx}, nil
}

// NewIndexerWithPath opens the index at path, creating it if needed.
func NewIndexerWithPath(path string) (*Indexer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	idx, err := bleve.NewUsing(path, buildMapping(), scorch.Name, scorch.Name, nil)
	if err != nil {
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open index %s: %w", path, err)
		}
	}
	return &Indexer{index: idx, path: path}, nil
}

func buildMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	for _, f := range []string{"name", "description", "tags", "aliases"} {
		doc.AddFieldMappingsAt(f, bleve.NewTextFieldMapping())
	}
	for _, f := range []string{"mythology", "type"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.IncludeInAll = false
		doc.AddFieldMappingsAt(f, fm)
	}
	coll := bleve.NewTextFieldMapping()
	coll.Index = false
	coll.IncludeInAll = false
	doc.AddFieldMappingsAt("collection", coll)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// IndexEntities adds or replaces entities in the index.
func (i *Indexer) IndexEntities(ctx context.Context, entities []models.Entity) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.index.NewBatch()
	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(e.ID, toDocument(e)); err != nil {
			return fmt.Errorf("index %s: %w", e.ID, err)
		}
		if batch.Size() >= batchSize {
			if err := i.index.Batch(batch); err != nil {
				return fmt.Errorf("write batch: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := i.index.Batch(batch); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
	}
	return nil
}

// Remove deletes one entity from the index.
func (i *Indexer) Remove(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.index.Delete(id); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

// Count returns the number of indexed entities.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n, err := i.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("doc count: %w", err)
	}
	return n, nil
}

// Close closes the index.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.index == nil {
		return nil
	}
	return i.index.Close()
}

func toDocument(e models.Entity) document {
	coll := e.Type
	if c, ok := entities.CollectionFor(e.Type); ok {
		coll = c
	}
	return document{
		Name:        e.Name,
		Description: e.Description,
		Tags:        e.Tags,
		Aliases:     e.Aliases,
		Mythology:   e.Mythology,
		Type:        e.Type,
		Collection:  coll,
	}
}
