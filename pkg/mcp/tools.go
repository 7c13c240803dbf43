package mcp

import (
	"context"
	"encoding/json"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/entities"
	"github.com/eyesofazrael/azrael/pkg/models"
)

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var toolHandlers = map[string]toolHandler{
	"azrael_search":           handleSearch,
	"azrael_entity":           handleEntity,
	"azrael_mythologies":      handleMythologies,
	"azrael_popular_searches": handlePopular,
	"azrael_search_metrics":   handleMetrics,
	"azrael_top_items":        handleTopItems,
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

var tools = []Tool{
	{
		Name:        "azrael_search",
		Description: "Search the mythology encyclopedia for deities, heroes, creatures, places, items and texts.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"query"},
			"properties": map[string]any{
				"query":     stringProp("Text to search for"),
				"mode":      map[string]any{"type": "string", "enum": []string{"generic", "exact", "prefix", "fuzzy"}},
				"limit":     intProp("Maximum results (optional)"),
				"mythology": stringProp("Restrict to a mythology id such as greek or norse (optional)"),
				"type":      stringProp("Restrict to an entity type such as deity or hero (optional)"),
			},
		},
	},
	{
		Name:        "azrael_entity",
		Description: "Fetch one encyclopedia entry by type and id.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"type", "id"},
			"properties": map[string]any{
				"type": stringProp("Entity type"),
				"id":   stringProp("Entity id"),
			},
		},
	},
	{
		Name:        "azrael_mythologies",
		Description: "List the mythological traditions covered by the encyclopedia.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	},
	{
		Name:        "azrael_popular_searches",
		Description: "Show the most frequent recent searches.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"limit": intProp("Number of searches (optional, default 10)")},
		},
	},
	{
		Name:        "azrael_search_metrics",
		Description: "Show search counters: total searches, cache hits and average upstream time.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	},
	{
		Name:        "azrael_top_items",
		Description: "Rank items of a type by vote score, all time or for one day.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"item_type"},
			"properties": map[string]any{
				"item_type": stringProp("Item type, for example deity"),
				"date":      stringProp("Day in YYYY-MM-DD format (optional, omit for all time)"),
				"limit":     intProp("Number of items (optional, default 10)"),
			},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

// failure reports err with its client-facing message.
func failure(prefix string, err error) ToolCallResult {
	return errorResult(prefix + ": " + apperr.Message(err))
}

func parseArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

type searchArgs struct {
	Query     string `json:"query"`
	Mode      string `json:"mode"`
	Limit     int    `json:"limit"`
	Mythology string `json:"mythology"`
	Type      string `json:"type"`
}

func handleSearch(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args searchArgs
	if err := parseArgs(raw, &args); err != nil {
		return errorResult("invalid arguments: " + err.Error())
	}
	if args.Query == "" {
		return errorResult("query is required")
	}
	results, err := s.search.Search(ctx, args.Query, models.SearchOptions{
		Mode:      models.SearchMode(args.Mode),
		Limit:     args.Limit,
		Mythology: args.Mythology,
		Type:      args.Type,
	})
	if err != nil {
		return failure("Search failed", err)
	}
	return textResult(formatResults(results))
}

type entityArgs struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func handleEntity(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args entityArgs
	if err := parseArgs(raw, &args); err != nil {
		return errorResult("invalid arguments: " + err.Error())
	}
	if args.Type == "" || args.ID == "" {
		return errorResult("type and id are required")
	}
	e, err := s.entities.Get(ctx, args.Type, args.ID)
	if err != nil {
		return failure("Lookup failed", err)
	}
	return textResult(formatEntity(e))
}

func handleMythologies(_ context.Context, _ *Server, _ json.RawMessage) ToolCallResult {
	return textResult(formatMythologies(entities.Mythologies()))
}

type limitArgs struct {
	Limit int `json:"limit"`
}

func handlePopular(_ context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args limitArgs
	if err := parseArgs(raw, &args); err != nil {
		return errorResult("invalid arguments: " + err.Error())
	}
	return textResult(formatPopular(s.search.PopularSearches(args.Limit)))
}

func handleMetrics(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	return textResult(formatMetrics(s.search.Metrics()))
}

type topItemsArgs struct {
	ItemType string `json:"item_type"`
	Date     string `json:"date"`
	Limit    int    `json:"limit"`
}

func handleTopItems(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	if s.votes == nil {
		return textResult("Voting is not configured.")
	}
	var args topItemsArgs
	if err := parseArgs(raw, &args); err != nil {
		return errorResult("invalid arguments: " + err.Error())
	}
	if args.ItemType == "" {
		return errorResult("item_type is required")
	}
	items, err := s.votes.TopItems(ctx, args.ItemType, args.Date, args.Limit)
	if err != nil {
		return failure("Ranking failed", err)
	}
	return textResult(formatTopItems(items))
}
