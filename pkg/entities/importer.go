package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/eyesofazrael/azrael/pkg/models"
)

// ImportReport summarises one Import run.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Import reads a JSON array of entities, fills in missing ids and tags,
// and writes the valid ones. Invalid and duplicate entries are skipped and
// reported; only a malformed document or a storage failure is an error.
func (r *Repository) Import(ctx context.Context, src io.Reader) (ImportReport, error) {
	var raw []models.Entity
	if err := json.NewDecoder(src).Decode(&raw); err != nil {
		return ImportReport{}, fmt.Errorf("decode entities: %w", err)
	}

	var rep ImportReport
	seen := make(map[string]bool)
	for i, e := range raw {
		e = Enhance(e)
		key := e.Type + "/" + e.ID
		if seen[key] {
			rep.Skipped++
			rep.Errors = append(rep.Errors, fmt.Sprintf("entry %d: duplicate %s", i, key))
			continue
		}
		if err := Validate(e); err != nil {
			rep.Skipped++
			rep.Errors = append(rep.Errors, fmt.Sprintf("entry %d (%s): %v", i, e.Name, err))
			continue
		}
		seen[key] = true
		coll, _ := CollectionFor(e.Type)
		if err := r.store.Set(ctx, coll, e.ID, e); err != nil {
			return rep, err
		}
		rep.Imported++
	}
	return rep, nil
}

// Enhance normalises an entity before storage: type and mythology are
// lower-cased, a slug id is derived from the name when missing, and tags
// are extended with the name, aliases and mythology.
func Enhance(e models.Entity) models.Entity {
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	e.Mythology = strings.ToLower(strings.TrimSpace(e.Mythology))
	e.Name = strings.TrimSpace(e.Name)
	if e.ID == "" {
		e.ID = Slug(e.Mythology + " " + e.Name)
	}

	tags := append([]string{}, e.Tags...)
	tags = append(tags, e.Name, e.Mythology)
	tags = append(tags, e.Aliases...)
	e.Tags = dedupLower(tags)
	return e
}

// Slug turns s into a lower-case, hyphen-separated ASCII identifier.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		case unicode.Is(unicode.Mn, r):
			// combining marks left over from decomposition
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func dedupLower(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
