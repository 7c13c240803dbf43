package search

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/eyesofazrael/azrael/pkg/models"
)

// CacheKey derives the cache key for q: the normalised query text, a
// separator, and the options serialised in field order.
func CacheKey(q models.SearchQuery) string {
	opts, _ := json.Marshal(normalizeOptions(q.Options))
	return NormalizeText(q.Text) + "|" + string(opts)
}

// NormalizeText applies NFKC, trims surrounding space and case-folds.
func NormalizeText(text string) string {
	return cases.Fold().String(strings.TrimSpace(norm.NFKC.String(text)))
}
