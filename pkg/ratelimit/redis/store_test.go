package redis

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyesofazrael/azrael/pkg/config"
	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/logging"
	"github.com/eyesofazrael/azrael/pkg/models"
	"github.com/eyesofazrael/azrael/pkg/ratelimit"
)

func newTestStore(t *testing.T, mr *miniredis.Miniredis) *Requests {
	t.Helper()
	client, err := Dial(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute)
}

func TestRecordWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	r := newTestStore(t, mr)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	attempt := func(at time.Time, typ string) models.AttemptOutcome {
		out, err := r.Record(ctx, models.RequestAttempt{
			Identifier: "user_u1",
			Type:       typ,
			Now:        models.Millis(at),
			Cutoff:     models.Millis(at.Add(-time.Minute)),
			Limit:      2,
		})
		require.NoError(t, err)
		return out
	}

	out := attempt(base, "search")
	assert.True(t, out.Allowed)
	assert.Equal(t, 0, out.Count)

	out = attempt(base.Add(time.Second), "search")
	assert.True(t, out.Allowed)
	assert.Equal(t, 1, out.Count)

	out = attempt(base.Add(2*time.Second), "search")
	assert.False(t, out.Allowed)
	assert.Equal(t, 2, out.Count)
	assert.False(t, out.Block)

	// Other types have their own count.
	out = attempt(base.Add(3*time.Second), "write")
	assert.True(t, out.Allowed)
	assert.Equal(t, 0, out.Count)

	// The first entry falls out of the window.
	out = attempt(base.Add(time.Minute), "search")
	assert.True(t, out.Allowed)
	assert.Equal(t, 1, out.Count)

	ttl := mr.TTL(keyPrefix + "user_u1")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRecordViolations(t *testing.T) {
	mr := miniredis.RunT(t)
	r := newTestStore(t, mr)
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	a := models.RequestAttempt{
		Identifier:    "ip_abc",
		Type:          "search",
		Now:           models.Millis(now),
		Cutoff:        models.Millis(now.Add(-time.Minute)),
		Limit:         0,
		MaxViolations: 3,
	}
	for i := 1; i < 3; i++ {
		out, err := r.Record(ctx, a)
		require.NoError(t, err)
		assert.False(t, out.Allowed)
		assert.Equal(t, i, out.Violations)
		assert.False(t, out.Block)
	}
	out, err := r.Record(ctx, a)
	require.NoError(t, err)
	assert.True(t, out.Block)
	assert.Equal(t, 0, out.Violations)
}

func newLimiters(t *testing.T, mr *miniredis.Miniredis, n int) []*ratelimit.Limiter {
	t.Helper()
	store, err := docstore.Open(filepath.Join(t.TempDir(), "rl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default().RateLimit
	cfg.Limits = map[string]models.OperationLimit{
		"default": {Anonymous: 2, Authenticated: 10},
	}
	cfg.MaxViolations = 5
	cfg.IPSalt = "pepper"

	lims := make([]*ratelimit.Limiter, n)
	for i := range lims {
		lims[i] = ratelimit.New(newTestStore(t, mr), ratelimit.NewDocBlocks(store), nil, cfg,
			ratelimit.WithLogger(logging.Discard()))
	}
	return lims
}

func TestLimitersShareQuota(t *testing.T) {
	mr := miniredis.RunT(t)
	lims := newLimiters(t, mr, 4)
	id := ratelimit.User("u1", "", false)

	var (
		mu      sync.Mutex
		allowed int
		wg      sync.WaitGroup
	)
	for _, lim := range lims {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(lim *ratelimit.Limiter) {
				defer wg.Done()
				res, err := lim.Check(context.Background(), id, "search")
				if err != nil {
					t.Errorf("check: %v", err)
					return
				}
				if res.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}(lim)
		}
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}

func TestViolationsSharedAcrossLimiters(t *testing.T) {
	mr := miniredis.RunT(t)
	lims := newLimiters(t, mr, 2)
	ctx := context.Background()
	ipHash := ratelimit.HashIP("198.51.100.4", "pepper")
	id := ratelimit.Anonymous(ipHash)

	for i := 0; i < 7; i++ {
		res, err := lims[i%2].Check(ctx, id, "search")
		require.NoError(t, err)
		assert.Equal(t, i < 2, res.Allowed, "request %d", i+1)
	}
	assert.True(t, lims[0].IsIPBlocked(ctx, ipHash))
	assert.True(t, lims[1].IsIPBlocked(ctx, ipHash))
}
