package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/eyesofazrael/azrael/pkg/models"
)

const (
	// DefaultLimit is used when a query does not set one.
	DefaultLimit = 20
	// MaxLimit caps the number of results per query.
	MaxLimit = 100

	snippetRunes = 160
)

var resultFields = []string{"name", "description", "mythology", "type", "collection"}

// field boosts for generic and fuzzy matching
var textFields = []struct {
	name  string
	boost float64
}{
	{"name", 3},
	{"aliases", 2},
	{"tags", 1.5},
	{"description", 1},
}

// Search runs q against the index.
func (i *Indexer) Search(ctx context.Context, q models.SearchQuery) ([]models.SearchResult, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return []models.SearchResult{}, nil
	}

	limit := q.Options.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	conj := []query.Query{buildQuery(q.Options.Mode, text)}
	if q.Options.Mythology != "" {
		conj = append(conj, termQuery("mythology", strings.ToLower(q.Options.Mythology)))
	}
	if q.Options.Type != "" {
		conj = append(conj, termQuery("type", strings.ToLower(q.Options.Type)))
	}
	var bq query.Query = conj[0]
	if len(conj) > 1 {
		bq = bleve.NewConjunctionQuery(conj...)
	}

	req := bleve.NewSearchRequestOptions(bq, limit, 0, false)
	req.Fields = resultFields

	i.mu.RLock()
	res, err := i.index.SearchInContext(ctx, req)
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("corpus search: %w", err)
	}
	return convert(res), nil
}

func buildQuery(mode models.SearchMode, text string) query.Query {
	words := strings.Fields(strings.ToLower(text))
	switch mode {
	case models.SearchExact:
		return perField(func(field string) query.Query {
			q := bleve.NewMatchPhraseQuery(text)
			q.SetField(field)
			return q
		}, "name", "aliases", "description")
	case models.SearchPrefix:
		// Every word but the last must match; the last is a prefix.
		last := words[len(words)-1]
		prefix := perField(func(field string) query.Query {
			q := bleve.NewPrefixQuery(last)
			q.SetField(field)
			return q
		}, "name", "aliases", "tags")
		if len(words) == 1 {
			return prefix
		}
		head := bleve.NewMatchQuery(strings.Join(words[:len(words)-1], " "))
		head.SetOperator(query.MatchQueryOperatorAnd)
		return bleve.NewConjunctionQuery(head, prefix)
	case models.SearchFuzzy:
		parts := make([]query.Query, 0, len(words))
		for _, w := range words {
			parts = append(parts, boosted(func(field string) query.Query {
				q := bleve.NewFuzzyQuery(w)
				q.SetFuzziness(1)
				q.SetField(field)
				return q
			}))
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return bleve.NewConjunctionQuery(parts...)
	default:
		return boosted(func(field string) query.Query {
			q := bleve.NewMatchQuery(text)
			q.SetField(field)
			return q
		})
	}
}

type boostable interface {
	query.Query
	SetBoost(b float64)
}

func boosted(mk func(field string) query.Query) query.Query {
	qs := make([]query.Query, 0, len(textFields))
	for _, f := range textFields {
		q := mk(f.name)
		if b, ok := q.(boostable); ok {
			b.SetBoost(f.boost)
		}
		qs = append(qs, q)
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func perField(mk func(field string) query.Query, fields ...string) query.Query {
	qs := make([]query.Query, 0, len(fields))
	for _, f := range fields {
		qs = append(qs, mk(f))
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func termQuery(field, term string) query.Query {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func convert(res *bleve.SearchResult) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		name, _ := hit.Fields["name"].(string)
		desc, _ := hit.Fields["description"].(string)
		myth, _ := hit.Fields["mythology"].(string)
		typ, _ := hit.Fields["type"].(string)
		coll, _ := hit.Fields["collection"].(string)
		out = append(out, models.SearchResult{
			ID:         hit.ID,
			Name:       name,
			Type:       typ,
			Mythology:  myth,
			Collection: coll,
			Snippet:    snippet(desc),
			Score:      hit.Score,
		})
	}
	return out
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetRunes {
		return s
	}
	return strings.TrimSpace(string(r[:snippetRunes])) + "…"
}
