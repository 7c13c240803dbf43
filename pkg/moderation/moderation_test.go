package moderation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/logging"
	"github.com/eyesofazrael/azrael/pkg/models"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *clock) {
	t.Helper()
	store, err := docstore.Open(filepath.Join(t.TempDir(), "mod.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := &clock{t: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)}
	s := New(store, logging.Discard())
	s.SetClock(c.Now)
	return s, c
}

func TestBanLifecycle(t *testing.T) {
	s, c := newTestService(t)
	ctx := context.Background()

	banned, err := s.IsBanned(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, banned)

	b, err := s.Ban(ctx, "u1", "spam", 48*time.Hour, "mod@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.Millis(c.t.Add(48*time.Hour)), b.ExpiresAt)

	banned, err = s.IsBanned(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, banned)

	c.t = c.t.Add(48 * time.Hour)
	banned, err = s.IsBanned(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, banned)

	// Expired ban was removed, so there is nothing to lift.
	err = s.Unban(ctx, "u1", "mod@example.com")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestPermanentBanAndUnban(t *testing.T) {
	s, c := newTestService(t)
	ctx := context.Background()

	b, err := s.Ban(ctx, "u2", "harassment", 0, "mod")
	require.NoError(t, err)
	assert.Zero(t, b.ExpiresAt)

	c.t = c.t.AddDate(5, 0, 0)
	banned, err := s.IsBanned(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, banned)

	require.NoError(t, s.Unban(ctx, "u2", "mod"))
	banned, err = s.IsBanned(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, banned)

	hist, err := s.History(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, models.ActionUnban, hist[0].Action)
	assert.Equal(t, models.ActionBan, hist[1].Action)
}

func TestBanValidation(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Ban(context.Background(), "", "x", 0, "mod")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	_, err = s.Ban(context.Background(), "u3", " ", 0, "mod")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestFlagDuplicates(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	in := FlagInput{ContentID: "asset-1", ContentType: "asset", Reason: "inaccurate", ReporterID: "r1"}

	f, err := s.Flag(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.FlagPending, f.Status)
	assert.NotEmpty(t, f.ID)

	_, err = s.Flag(ctx, in)
	assert.Equal(t, apperr.CodeAlreadyExists, apperr.CodeOf(err))

	// A different reporter may flag the same content.
	in.ReporterID = "r2"
	_, err = s.Flag(ctx, in)
	require.NoError(t, err)

	// Once resolved, the first reporter may flag again.
	_, err = s.Resolve(ctx, f.ID, models.ActionDismiss, "mod", "")
	require.NoError(t, err)
	in.ReporterID = "r1"
	_, err = s.Flag(ctx, in)
	assert.NoError(t, err)

	in.ReporterID = ""
	_, err = s.Flag(ctx, in)
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
}

func TestResolve(t *testing.T) {
	s, c := newTestService(t)
	ctx := context.Background()

	f1, err := s.Flag(ctx, FlagInput{ContentID: "a", ContentType: "asset", Reason: "spam", ReporterID: "r"})
	require.NoError(t, err)
	c.t = c.t.Add(time.Minute)
	f2, err := s.Flag(ctx, FlagInput{ContentID: "b", ContentType: "asset", Reason: "spam", ReporterID: "r"})
	require.NoError(t, err)

	pending, err := s.Flags(ctx, models.FlagPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, f1.ID, pending[0].ID)

	c.t = c.t.Add(time.Minute)
	got, err := s.Resolve(ctx, f2.ID, models.ActionRemove, "mod", "removed")
	require.NoError(t, err)
	assert.Equal(t, models.FlagResolved, got.Status)
	assert.Equal(t, models.ActionRemove, got.Resolution)
	assert.Equal(t, "mod", got.ResolvedBy)

	_, err = s.Resolve(ctx, f2.ID, models.ActionWarn, "mod", "")
	assert.Equal(t, apperr.CodeFailedPrecondition, apperr.CodeOf(err))

	_, err = s.Resolve(ctx, "missing", models.ActionWarn, "mod", "")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = s.Resolve(ctx, f1.ID, models.ActionBan, "mod", "")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	pending, err = s.Flags(ctx, models.FlagPending, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	all, err := s.Flags(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	hist, err := s.History(ctx, "b", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, models.ActionRemove, hist[0].Action)
}
