package entities

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/models"
)

func newTestRepo(t *testing.T) (*Repository, *docstore.Store) {
	t.Helper()
	s, err := docstore.Open(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewRepository(s), s
}

func zeus() models.Entity {
	return models.Entity{
		ID:          "greek-zeus",
		Type:        "deity",
		Mythology:   "greek",
		Name:        "Zeus",
		Description: "King of the Olympian gods.",
		Attributes:  map[string]string{"domain": "sky, thunder"},
	}
}

func TestTaxonomy(t *testing.T) {
	assert.Len(t, Mythologies(), 16)
	m, ok := LookupMythology("norse")
	require.True(t, ok)
	assert.Equal(t, "Norse", m.Name)

	assert.Equal(t, []string{"creature", "deity", "hero", "item", "place", "text"}, Types())
	coll, ok := CollectionFor("hero")
	assert.True(t, ok)
	assert.Equal(t, "heroes", coll)
	_, ok = CollectionFor("robot")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(zeus()))

	e := zeus()
	e.Name = ""
	err := Validate(e)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "name is required")

	e = zeus()
	e.Mythology = "atlantean"
	assert.ErrorContains(t, Validate(e), "unknown mythology")

	e = zeus()
	e.Attributes = nil
	assert.ErrorContains(t, Validate(e), "Domains is required")

	e = zeus()
	e.Attributes["symbols"] = strings.Repeat("x", 501)
	assert.ErrorContains(t, Validate(e), "Symbols must be at most 500")
}

func TestRepositoryPutGetList(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, zeus()))
	odin := models.Entity{ID: "norse-odin", Type: "deity", Mythology: "norse", Name: "Odin",
		Attributes: map[string]string{"domain": "wisdom"}}
	require.NoError(t, r.Put(ctx, odin))
	herc := models.Entity{ID: "greek-heracles", Type: "hero", Mythology: "greek", Name: "Heracles",
		Attributes: map[string]string{"deeds": "twelve labours"}}
	require.NoError(t, r.Put(ctx, herc))

	got, err := r.Get(ctx, "deity", "greek-zeus")
	require.NoError(t, err)
	assert.Equal(t, "Zeus", got.Name)

	_, err = r.Get(ctx, "deity", "missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	deities, err := r.List(ctx, "deity", "")
	require.NoError(t, err)
	require.Len(t, deities, 2)
	assert.Equal(t, "Odin", deities[0].Name)

	greek, err := r.List(ctx, "deity", "greek")
	require.NoError(t, err)
	require.Len(t, greek, 1)

	all, err := r.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, r.Delete(ctx, "hero", "greek-heracles"))
	all, err = r.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeedMythologies(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	n, err := r.SeedMythologies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	var m models.Mythology
	require.NoError(t, s.Get(ctx, models.CollMythologies, "egyptian", &m))
	assert.Equal(t, "Nile Valley", m.Region)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "greek-zeus", Slug("greek Zeus"))
	assert.Equal(t, "norse-loki-laufeyjarson", Slug("Norse  Loki, Laufeyjarson!"))
	assert.Equal(t, "hindu-siva", Slug("hindu Śiva"))
}

func TestImport(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	doc := `[
	  {"type": "Deity", "mythology": "Norse", "name": "Thor", "aliases": ["Donar", "thor"],
	   "attributes": {"domain": "thunder"}},
	  {"type": "deity", "mythology": "norse", "name": "Thor", "attributes": {"domain": "storms"}},
	  {"type": "deity", "mythology": "atlantean", "name": "Poseidon II", "attributes": {"domain": "sea"}},
	  {"type": "creature", "mythology": "greek", "name": "Medusa", "attributes": {"appearance": "snakes for hair"}}
	]`
	rep, err := r.Import(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Imported)
	assert.Equal(t, 2, rep.Skipped)
	assert.Len(t, rep.Errors, 2)

	thor, err := r.Get(ctx, "deity", "norse-thor")
	require.NoError(t, err)
	assert.Equal(t, []string{"thor", "norse", "donar"}, thor.Tags)
	assert.Equal(t, "thunder", thor.Attributes["domain"])

	_, err = r.Get(ctx, "creature", "greek-medusa")
	assert.NoError(t, err)
}

func TestImportRejectsMalformedDocument(t *testing.T) {
	r, _ := newTestRepo(t)
	_, err := r.Import(context.Background(), strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}
