package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/logging"
	"github.com/eyesofazrael/azrael/pkg/models"
)

type fakeSearcher struct {
	results []models.SearchResult
	lastOpt models.SearchOptions
	popular []models.PopularSearch
	metrics models.SearchMetrics
}

func (f *fakeSearcher) Search(_ context.Context, _ string, opts models.SearchOptions) ([]models.SearchResult, error) {
	f.lastOpt = opts
	return f.results, nil
}

func (f *fakeSearcher) PopularSearches(int) []models.PopularSearch { return f.popular }
func (f *fakeSearcher) Metrics() models.SearchMetrics { return f.metrics }

type fakeEntities map[string]models.Entity

func (f fakeEntities) Get(_ context.Context, entityType, id string) (models.Entity, error) {
	e, ok := f[entityType+"/"+id]
	if !ok {
		return models.Entity{}, apperr.NotFound("%s %q not found", entityType, id)
	}
	return e, nil
}

type fakeVotes []models.ItemScore

func (f fakeVotes) TopItems(context.Context, string, string, int) ([]models.ItemScore, error) {
	return f, nil
}

func newTestServer() (*Server, *fakeSearcher) {
	search := &fakeSearcher{
		results: []models.SearchResult{{ID: "greek-zeus", Name: "Zeus", Type: "deity", Mythology: "greek", Score: 1.5, Snippet: "King of the gods"}},
		popular: []models.PopularSearch{{Query: "zeus", Count: 3}},
		metrics: models.SearchMetrics{Searches: 4, CacheHits: 1, AverageTime: 2.5},
	}
	ents := fakeEntities{"deity/greek-zeus": {
		ID: "greek-zeus", Type: "deity", Mythology: "greek", Name: "Zeus",
		Description: "King of the gods.", Attributes: map[string]string{"domain": "sky"},
	}}
	votes := fakeVotes{{ItemID: "greek-zeus", Score: 7}}
	return New(search, ents, votes, logging.Discard(), "test"), search
}

func sendAndReceive(t *testing.T, srv *Server, req Request) Response {
	t.Helper()
	line, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	line = append(line, '\n')

	var out bytes.Buffer
	if err := srv.Run(context.Background(), bytes.NewReader(line), &out); err != nil {
		t.Fatal(err)
	}

	var resp Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, out.String())
	}
	return resp
}

func callTool(t *testing.T, srv *Server, name, args string) ToolCallResult {
	t.Helper()
	params, _ := json.Marshal(ToolCallParams{Name: name, Arguments: json.RawMessage(args)})
	resp := sendAndReceive(t, srv, Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`7`),
		Method:  "tools/call",
		Params:  params,
	})
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	data, _ := json.Marshal(resp.Result)
	var result ToolCallResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(result.Content))
	}
	return result
}

func TestInitialize(t *testing.T) {
	srv, _ := newTestServer()
	resp := sendAndReceive(t, srv, Request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "initialize"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	data, _ := json.Marshal(resp.Result)
	var result InitializeResult
	json.Unmarshal(data, &result)

	if result.ProtocolVersion != protocolVersion {
		t.Errorf("protocol version = %s, want %s", result.ProtocolVersion, protocolVersion)
	}
	if result.ServerInfo.Name != "azrael" {
		t.Errorf("server name = %s, want azrael", result.ServerInfo.Name)
	}
}

func TestToolsList(t *testing.T) {
	srv, _ := newTestServer()
	resp := sendAndReceive(t, srv, Request{JSONRPC: "2.0", ID: json.RawMessage(`2`), Method: "tools/list"})

	data, _ := json.Marshal(resp.Result)
	var result ToolsListResult
	json.Unmarshal(data, &result)

	if len(result.Tools) != len(toolHandlers) {
		t.Fatalf("got %d tools, want %d", len(result.Tools), len(toolHandlers))
	}
	for _, tool := range result.Tools {
		if _, ok := toolHandlers[tool.Name]; !ok {
			t.Errorf("tool %s has no handler", tool.Name)
		}
	}
}

func TestNotificationsHaveNoResponse(t *testing.T) {
	srv, _ := newTestServer()
	var out bytes.Buffer
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":4}}` + "\n" +
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"azrael_search"}}` + "\n")
	if err := srv.Run(context.Background(), in, &out); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestParseAndMethodErrors(t *testing.T) {
	srv, _ := newTestServer()
	var out bytes.Buffer
	in := strings.NewReader("not json\n" + `{"jsonrpc":"2.0","id":3,"method":"resources/list"}` + "\n")
	if err := srv.Run(context.Background(), in, &out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(lines))
	}
	var first, second Response
	json.Unmarshal([]byte(lines[0]), &first)
	json.Unmarshal([]byte(lines[1]), &second)
	if first.Error == nil || first.Error.Code != codeParseError {
		t.Errorf("expected parse error, got %+v", first.Error)
	}
	if second.Error == nil || second.Error.Code != codeMethodNotFound {
		t.Errorf("expected method not found, got %+v", second.Error)
	}
}

func TestSearchTool(t *testing.T) {
	srv, search := newTestServer()
	res := callTool(t, srv, "azrael_search", `{"query":"zeus","mode":"prefix","mythology":"greek"}`)
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content[0].Text)
	}
	if !strings.Contains(res.Content[0].Text, "Zeus (deity, greek) id=greek-zeus") {
		t.Errorf("unexpected output %q", res.Content[0].Text)
	}
	if search.lastOpt.Mode != models.SearchPrefix || search.lastOpt.Mythology != "greek" {
		t.Errorf("options not passed through: %+v", search.lastOpt)
	}

	res = callTool(t, srv, "azrael_search", `{}`)
	if !res.IsError {
		t.Error("expected error for missing query")
	}
}

func TestEntityTool(t *testing.T) {
	srv, _ := newTestServer()
	res := callTool(t, srv, "azrael_entity", `{"type":"deity","id":"greek-zeus"}`)
	if res.IsError || !strings.Contains(res.Content[0].Text, "domain: sky") {
		t.Errorf("unexpected output %+v", res)
	}

	res = callTool(t, srv, "azrael_entity", `{"type":"deity","id":"greek-hades"}`)
	if !res.IsError || !strings.Contains(res.Content[0].Text, "not found") {
		t.Errorf("expected not found, got %+v", res)
	}
}

func TestInfoTools(t *testing.T) {
	srv, _ := newTestServer()

	if res := callTool(t, srv, "azrael_mythologies", ""); !strings.Contains(res.Content[0].Text, "norse") {
		t.Errorf("expected norse in mythologies, got %q", res.Content[0].Text)
	}
	if res := callTool(t, srv, "azrael_popular_searches", `{"limit":5}`); !strings.Contains(res.Content[0].Text, "zeus") {
		t.Errorf("unexpected popular output %q", res.Content[0].Text)
	}
	if res := callTool(t, srv, "azrael_search_metrics", ""); !strings.Contains(res.Content[0].Text, "Hit rate:     25.0%") {
		t.Errorf("unexpected metrics output %q", res.Content[0].Text)
	}
	if res := callTool(t, srv, "azrael_top_items", `{"item_type":"deity"}`); !strings.Contains(res.Content[0].Text, "+7") {
		t.Errorf("unexpected ranking output %q", res.Content[0].Text)
	}
	if res := callTool(t, srv, "azrael_unknown", ""); !res.IsError {
		t.Error("expected error for unknown tool")
	}
}
