package ratelimit

import (
	"context"
	"errors"

	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/models"
)

// RequestRepository stores per-identity request logs.
type RequestRepository interface {
	// Record applies a to the log of a.Identifier as one atomic step, so
	// limiters sharing the repository never lose each other's entries.
	Record(ctx context.Context, a models.RequestAttempt) (models.AttemptOutcome, error)
	// DeleteIdle removes logs not updated since before (epoch millis).
	DeleteIdle(ctx context.Context, before int64) (int64, error)
}

// BlockRepository stores blocked IP records keyed by IP hash.
type BlockRepository interface {
	Get(ctx context.Context, ipHash string) (models.BlockedIP, bool, error)
	Put(ctx context.Context, b models.BlockedIP) error
	Delete(ctx context.Context, ipHash string) error
	List(ctx context.Context) ([]models.BlockedIP, error)
	// DeleteExpired removes blocks with an expiry at or before now (epoch
	// millis). Permanent blocks have no expiry and are kept.
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

// EventLogger records security events.
type EventLogger interface {
	Log(ctx context.Context, ev models.SecurityEvent) error
}

// DocRequests is a RequestRepository on the document store.
type DocRequests struct {
	store *docstore.Store
}

// NewDocRequests returns a RequestRepository over store.
func NewDocRequests(store *docstore.Store) *DocRequests {
	return &DocRequests{store: store}
}

func (r *DocRequests) Record(ctx context.Context, a models.RequestAttempt) (models.AttemptOutcome, error) {
	var out models.AttemptOutcome
	err := r.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		log := models.RequestLog{Identifier: a.Identifier}
		if err := tx.Get(ctx, models.CollRateLimits, a.Identifier, &log); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		log.Identifier = a.Identifier
		out = log.Apply(a)
		return tx.Set(ctx, models.CollRateLimits, a.Identifier, log)
	})
	if err != nil {
		return models.AttemptOutcome{}, err
	}
	return out, nil
}

func (r *DocRequests) DeleteIdle(ctx context.Context, before int64) (int64, error) {
	return r.store.DeleteWhere(ctx, models.CollRateLimits, docstore.Where("updatedAt", "<", before))
}

// DocBlocks is a BlockRepository on the document store.
type DocBlocks struct {
	store *docstore.Store
}

// NewDocBlocks returns a BlockRepository over store.
func NewDocBlocks(store *docstore.Store) *DocBlocks {
	return &DocBlocks{store: store}
}

func (r *DocBlocks) Get(ctx context.Context, ipHash string) (models.BlockedIP, bool, error) {
	var b models.BlockedIP
	err := r.store.Get(ctx, models.CollBlockedIPs, ipHash, &b)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.BlockedIP{}, false, nil
	}
	if err != nil {
		return models.BlockedIP{}, false, err
	}
	return b, true, nil
}

func (r *DocBlocks) Put(ctx context.Context, b models.BlockedIP) error {
	return r.store.Set(ctx, models.CollBlockedIPs, b.IPHash, b)
}

func (r *DocBlocks) Delete(ctx context.Context, ipHash string) error {
	return r.store.Delete(ctx, models.CollBlockedIPs, ipHash)
}

func (r *DocBlocks) List(ctx context.Context) ([]models.BlockedIP, error) {
	docs, err := r.store.Query(ctx, models.CollBlockedIPs, docstore.Query{OrderBy: "blockedAt", Desc: true})
	if err != nil {
		return nil, err
	}
	out := make([]models.BlockedIP, 0, len(docs))
	for _, d := range docs {
		var b models.BlockedIP
		if err := d.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *DocBlocks) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	return r.store.DeleteWhere(ctx, models.CollBlockedIPs,
		docstore.Where("expiresAt", ">", 0),
		docstore.Where("expiresAt", "<=", now),
	)
}
