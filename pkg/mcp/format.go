package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eyesofazrael/azrael/pkg/models"
)

func formatResults(results []models.SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s (%s, %s) id=%s score=%.3f\n", i+1, r.Name, r.Type, r.Mythology, r.ID, r.Score)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return b.String()
}

func formatEntity(e models.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", e.Name)
	fmt.Fprintf(&b, "Type: %s\nMythology: %s\nID: %s\n", e.Type, e.Mythology, e.ID)
	if len(e.Aliases) > 0 {
		fmt.Fprintf(&b, "Also known as: %s\n", strings.Join(e.Aliases, ", "))
	}
	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, e.Attributes[k])
	}
	if e.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", e.Description)
	}
	return b.String()
}

func formatMythologies(list []models.Mythology) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-14s %-24s %s\n", "ID", "Name", "Region", "Era")
	b.WriteString(strings.Repeat("-", 72) + "\n")
	for _, m := range list {
		fmt.Fprintf(&b, "%-12s %-14s %-24s %s\n", m.ID, m.Name, m.Region, m.Era)
	}
	return b.String()
}

func formatPopular(list []models.PopularSearch) string {
	if len(list) == 0 {
		return "No searches recorded yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%6s  %s\n", "Count", "Query")
	for _, p := range list {
		fmt.Fprintf(&b, "%6d  %s\n", p.Count, p.Query)
	}
	return b.String()
}

func formatMetrics(m models.SearchMetrics) string {
	rate := 0.0
	if m.Searches > 0 {
		rate = float64(m.CacheHits) / float64(m.Searches) * 100
	}
	return fmt.Sprintf("Searches:     %d\nCache hits:   %d\nHit rate:     %.1f%%\nAverage time: %.2f ms\n",
		m.Searches, m.CacheHits, rate, m.AverageTime)
}

func formatTopItems(items []models.ItemScore) string {
	if len(items) == 0 {
		return "No votes recorded."
	}
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%2d. %-40s %+d\n", i+1, it.ItemID, it.Score)
	}
	return b.String()
}
