// Package mcp serves read-only encyclopedia tools to MCP clients over
// newline-delimited JSON-RPC on stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/eyesofazrael/azrael/pkg/models"
)

// Searcher answers cached corpus searches.
type Searcher interface {
	Search(ctx context.Context, text string, opts models.SearchOptions) ([]models.SearchResult, error)
	PopularSearches(limit int) []models.PopularSearch
	Metrics() models.SearchMetrics
}

// EntityReader loads published entities.
type EntityReader interface {
	Get(ctx context.Context, entityType, id string) (models.Entity, error)
}

// VoteRanker ranks items by vote score.
type VoteRanker interface {
	TopItems(ctx context.Context, itemType, date string, n int) ([]models.ItemScore, error)
}

// Server is an MCP server over a single reader/writer pair.
type Server struct {
	search   Searcher
	entities EntityReader
	votes    VoteRanker
	logger   *slog.Logger
	version  string
}

// New returns a Server. votes may be nil, in which case the ranking tool
// reports that voting is unavailable.
func New(search Searcher, entities EntityReader, votes VoteRanker, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		search:   search,
		entities: entities,
		votes:    votes,
		logger:   logger,
		version:  version,
	}
}

// Run reads one request per line from r and writes responses to w. It
// returns when r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParseError, Message: "parse error"}})
			continue
		}
		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, *resp)
		}
	}
	return scanner.Err()
}

// dispatch returns nil for notifications, which are messages without an id.
func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	if len(req.ID) == 0 {
		s.logger.Debug("mcp notification", "method", req.Method)
		return nil
	}
	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "azrael", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		}
	case "ping":
		resp.Result = map[string]any{}
	case "tools/list":
		resp.Result = ToolsListResult{Tools: tools}
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &RPCError{Code: codeInvalidParams, Message: "invalid params"}
			return resp
		}
		resp.Result = s.call(ctx, params)
	default:
		resp.Error = &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)}
	}
	return resp
}

func (s *Server) call(ctx context.Context, params ToolCallParams) ToolCallResult {
	handler, ok := toolHandlers[params.Name]
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool: %s", params.Name))
	}
	s.logger.Debug("mcp tool call", "tool", params.Name)
	return handler(ctx, s, params.Arguments)
}

func (s *Server) write(w io.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("mcp marshal failed", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.logger.Error("mcp write failed", "error", err)
	}
}
