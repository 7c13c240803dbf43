package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eyesofazrael/azrael/pkg/app"
	"github.com/eyesofazrael/azrael/pkg/config"
	"github.com/eyesofazrael/azrael/pkg/logging"
	"github.com/eyesofazrael/azrael/pkg/models"
	"github.com/eyesofazrael/azrael/pkg/ratelimit"
)

const (
	adminEmail = "admin@example.com"
	testSalt   = "pepper"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "azrael.db")
	cfg.Search.CacheDBPath = filepath.Join(dir, "cache.db")
	cfg.LocalStore.Path = ""
	cfg.AdminEmails = []string{adminEmail}
	cfg.RateLimit.IPSalt = testSalt
	cfg.RateLimit.Limits["search"] = models.OperationLimit{Anonymous: 2, Authenticated: 10}

	a, err := app.New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })
	return New(a)
}

type requestOpt func(*http.Request)

func asUser(uid string) requestOpt {
	return func(r *http.Request) { r.Header.Set(headerUserID, uid) }
}

func asAdmin() requestOpt {
	return func(r *http.Request) {
		r.Header.Set(headerUserID, "admin-1")
		r.Header.Set(headerUserEmail, adminEmail)
	}
}

func fromIP(ip string) requestOpt {
	return func(r *http.Request) { r.Header.Set("X-Forwarded-For", ip+", 10.0.0.1") }
}

func do(t *testing.T, srv *Server, method, path, body string, opts ...requestOpt) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, w.Code, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	srv := setupServer(t)
	w := do(t, srv, http.MethodGet, "/healthz", "")
	expectStatus(t, w, http.StatusOK)
}

func TestSearchRateLimited(t *testing.T) {
	srv := setupServer(t)

	for i := 0; i < 2; i++ {
		w := do(t, srv, http.MethodGet, "/v1/search?q=zeus", "")
		expectStatus(t, w, http.StatusOK)
		var resp searchResponse
		decodeBody(t, w, &resp)
		if resp.Results == nil {
			t.Fatal("expected empty results array, got null")
		}
	}

	w := do(t, srv, http.MethodGet, "/v1/search?q=zeus", "")
	expectStatus(t, w, http.StatusTooManyRequests)
	var body errorBody
	decodeBody(t, w, &body)
	if body.Error.Status != "resource-exhausted" {
		t.Errorf("expected resource-exhausted, got %q", body.Error.Status)
	}

	// A signed-in caller has a separate, larger quota.
	w = do(t, srv, http.MethodGet, "/v1/search?q=zeus", "", asUser("u1"))
	expectStatus(t, w, http.StatusOK)
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "9" {
		t.Errorf("expected 9 remaining, got %q", got)
	}
}

func TestSearchUnknownMode(t *testing.T) {
	srv := setupServer(t)
	w := do(t, srv, http.MethodGet, "/v1/search?q=zeus&mode=regex", "")
	expectStatus(t, w, http.StatusBadRequest)
}

func TestCheckRateLimit(t *testing.T) {
	srv := setupServer(t)

	w := do(t, srv, http.MethodPost, "/v1/checkRateLimit", `{"operationType":"search"}`)
	expectStatus(t, w, http.StatusOK)
	var res models.RateLimitResult
	decodeBody(t, w, &res)
	if !res.Allowed || res.Limit != 2 || res.Remaining != 1 || res.UserType != models.UserAnonymous {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Window != 3600 {
		t.Errorf("expected window 3600, got %d", res.Window)
	}

	w = do(t, srv, http.MethodPost, "/v1/checkRateLimit", "", asAdmin())
	expectStatus(t, w, http.StatusOK)
	decodeBody(t, w, &res)
	if res.Limit != models.Unlimited || res.UserType != models.UserAdmin {
		t.Errorf("expected unlimited admin, got %+v", res)
	}
}

func TestAdminBlockIP(t *testing.T) {
	srv := setupServer(t)
	body := `{"ip":"203.0.113.9","reason":"abuse"}`

	expectStatus(t, do(t, srv, http.MethodPost, "/v1/adminBlockIP", body), http.StatusUnauthorized)
	expectStatus(t, do(t, srv, http.MethodPost, "/v1/adminBlockIP", body, asUser("u1")), http.StatusForbidden)

	w := do(t, srv, http.MethodPost, "/v1/adminBlockIP", body, asAdmin())
	expectStatus(t, w, http.StatusOK)
	var resp blockIPResponse
	decodeBody(t, w, &resp)
	if !resp.Success || resp.IPHash != ratelimit.HashIP("203.0.113.9", testSalt) {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.ExpiresAt == 0 {
		t.Error("expected default block duration to set expiresAt")
	}

	w = do(t, srv, http.MethodPost, "/v1/checkRateLimit", "", fromIP("203.0.113.9"))
	expectStatus(t, w, http.StatusTooManyRequests)

	expectStatus(t, do(t, srv, http.MethodPost, "/v1/adminUnblockIP", `{"ip":"203.0.113.9"}`, asAdmin()), http.StatusOK)
	w = do(t, srv, http.MethodPost, "/v1/checkRateLimit", "", fromIP("203.0.113.9"))
	expectStatus(t, w, http.StatusOK)

	w = do(t, srv, http.MethodPost, "/v1/getSecurityLogs", `{"eventType":"ip_blocked"}`, asAdmin())
	expectStatus(t, w, http.StatusOK)
	var logs struct {
		Logs []models.SecurityEvent `json:"logs"`
	}
	decodeBody(t, w, &logs)
	if len(logs.Logs) != 1 || logs.Logs[0].IPHash != resp.IPHash {
		t.Errorf("expected one ip_blocked event, got %+v", logs.Logs)
	}
}

func TestAdminBlockIPPermanent(t *testing.T) {
	srv := setupServer(t)
	w := do(t, srv, http.MethodPost, "/v1/adminBlockIP", `{"ip":"203.0.113.10","duration":0}`, asAdmin())
	expectStatus(t, w, http.StatusOK)
	var resp blockIPResponse
	decodeBody(t, w, &resp)
	if resp.ExpiresAt != 0 {
		t.Errorf("expected permanent block, got expiresAt %d", resp.ExpiresAt)
	}
}

func TestAdminDurationsAreCapped(t *testing.T) {
	srv := setupServer(t)
	huge := `"duration":9223372036854775807`

	expectStatus(t, do(t, srv, http.MethodPost, "/v1/adminBlockIP", `{"ip":"203.0.113.11",`+huge+`}`, asAdmin()),
		http.StatusBadRequest)
	expectStatus(t, do(t, srv, http.MethodPost, "/v1/moderation/bans", `{"userId":"u3",`+huge+`}`, asAdmin()),
		http.StatusBadRequest)

	w := do(t, srv, http.MethodGet, "/v1/blockedIPs", "", asAdmin())
	expectStatus(t, w, http.StatusOK)
	var list struct {
		Blocked []models.BlockedIP `json:"blocked"`
	}
	decodeBody(t, w, &list)
	if len(list.Blocked) != 0 {
		t.Errorf("expected no blocks, got %+v", list.Blocked)
	}

	w = do(t, srv, http.MethodPost, "/v1/adminBlockIP", `{"ip":"203.0.113.11","duration":3600}`, asAdmin())
	expectStatus(t, w, http.StatusOK)
	var resp blockIPResponse
	decodeBody(t, w, &resp)
	if resp.ExpiresAt == 0 {
		t.Error("expected an expiring block")
	}
}

func TestAssetReviewFlow(t *testing.T) {
	srv := setupServer(t)
	body := `{"type":"creature","mythology":"greek","name":"Lernaean Hydra",` +
		`"description":"A many-headed serpent slain by Heracles.","fields":{"appearance":"nine heads"}}`

	expectStatus(t, do(t, srv, http.MethodPost, "/v1/assets", body), http.StatusUnauthorized)

	w := do(t, srv, http.MethodPost, "/v1/assets", body, asUser("u1"))
	expectStatus(t, w, http.StatusCreated)
	var asset models.Asset
	decodeBody(t, w, &asset)
	if asset.Status != models.AssetPending {
		t.Fatalf("expected pending, got %s", asset.Status)
	}

	path := "/v1/assets/" + asset.ID
	expectStatus(t, do(t, srv, http.MethodGet, path, ""), http.StatusNotFound)
	expectStatus(t, do(t, srv, http.MethodGet, path, "", asUser("u1")), http.StatusOK)
	expectStatus(t, do(t, srv, http.MethodPost, path+"/review", `{"approve":true}`, asUser("u1")), http.StatusForbidden)
	expectStatus(t, do(t, srv, http.MethodPut, path, body, asUser("u2")), http.StatusNotFound)
	expectStatus(t, do(t, srv, http.MethodDelete, path, "", asUser("u2")), http.StatusNotFound)

	w = do(t, srv, http.MethodPost, path+"/review", `{"approve":true}`, asAdmin())
	expectStatus(t, w, http.StatusOK)
	expectStatus(t, do(t, srv, http.MethodGet, path, ""), http.StatusOK)

	w = do(t, srv, http.MethodGet, "/v1/entities/creature/"+asset.ID, "")
	expectStatus(t, w, http.StatusOK)

	w = do(t, srv, http.MethodGet, "/v1/search?q=hydra", "")
	expectStatus(t, w, http.StatusOK)
	var resp searchResponse
	decodeBody(t, w, &resp)
	if len(resp.Results) != 1 || resp.Results[0].ID != asset.ID {
		t.Errorf("expected approved asset in search results, got %+v", resp.Results)
	}
}

func TestBannedUserCannotSubmit(t *testing.T) {
	srv := setupServer(t)
	w := do(t, srv, http.MethodPost, "/v1/moderation/bans", `{"userId":"u2","reason":"spam"}`, asAdmin())
	expectStatus(t, w, http.StatusOK)

	body := `{"type":"deity","mythology":"norse","name":"Loki","description":"A shape-shifting trickster god.","fields":{"domain":"mischief"}}`
	expectStatus(t, do(t, srv, http.MethodPost, "/v1/assets", body, asUser("u2")), http.StatusForbidden)

	expectStatus(t, do(t, srv, http.MethodDelete, "/v1/moderation/bans/u2", "", asAdmin()), http.StatusOK)
	expectStatus(t, do(t, srv, http.MethodPost, "/v1/assets", body, asUser("u2")), http.StatusCreated)
}

func TestFlagAndResolve(t *testing.T) {
	srv := setupServer(t)
	body := `{"contentId":"a1","contentType":"asset","reason":"plagiarised"}`

	w := do(t, srv, http.MethodPost, "/v1/moderation/flags", body, asUser("u1"))
	expectStatus(t, w, http.StatusCreated)
	var f models.Flag
	decodeBody(t, w, &f)
	if f.ReporterID != "u1" {
		t.Errorf("expected reporter u1, got %q", f.ReporterID)
	}
	expectStatus(t, do(t, srv, http.MethodPost, "/v1/moderation/flags", body, asUser("u1")), http.StatusConflict)

	w = do(t, srv, http.MethodGet, "/v1/moderation/flags", "", asAdmin())
	expectStatus(t, w, http.StatusOK)
	var list struct {
		Flags []models.Flag `json:"flags"`
	}
	decodeBody(t, w, &list)
	if len(list.Flags) != 1 {
		t.Fatalf("expected 1 pending flag, got %d", len(list.Flags))
	}

	w = do(t, srv, http.MethodPost, "/v1/moderation/flags/"+f.ID+"/resolve", `{"action":"dismiss"}`, asAdmin())
	expectStatus(t, w, http.StatusOK)
	decodeBody(t, w, &f)
	if f.Status != models.FlagDismissed {
		t.Errorf("expected dismissed, got %s", f.Status)
	}
	w = do(t, srv, http.MethodPost, "/v1/moderation/flags/"+f.ID+"/resolve", `{"action":"dismiss"}`, asAdmin())
	expectStatus(t, w, http.StatusPreconditionFailed)
}

func TestVotes(t *testing.T) {
	srv := setupServer(t)
	body := `{"itemId":"greek-zeus","itemType":"deity","value":1}`

	expectStatus(t, do(t, srv, http.MethodPost, "/v1/votes", body), http.StatusUnauthorized)
	expectStatus(t, do(t, srv, http.MethodPost, "/v1/votes", body, asUser("u1")), http.StatusOK)
	w := do(t, srv, http.MethodPost, "/v1/votes", body, asUser("u2"))
	expectStatus(t, w, http.StatusOK)
	var total models.VoteTotal
	decodeBody(t, w, &total)
	if total.Score != 2 || total.Upvotes != 2 {
		t.Errorf("unexpected total %+v", total)
	}

	w = do(t, srv, http.MethodGet, "/v1/votes/top?itemType=deity", "")
	expectStatus(t, w, http.StatusOK)
	var top struct {
		Items []models.ItemScore `json:"items"`
	}
	decodeBody(t, w, &top)
	if len(top.Items) != 1 || top.Items[0].ItemID != "greek-zeus" {
		t.Errorf("unexpected top items %+v", top.Items)
	}

	w = do(t, srv, http.MethodGet, "/v1/votes/stats?itemType=deity", "")
	expectStatus(t, w, http.StatusOK)
	var stats struct {
		Stats []models.DailyVoteStats `json:"stats"`
	}
	decodeBody(t, w, &stats)
	if len(stats.Stats) != 1 || stats.Stats[0].Upvotes != 2 {
		t.Errorf("unexpected stats %+v", stats.Stats)
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/v1/votes/stats?itemType=deity&from=yesterday", ""), http.StatusBadRequest)
}

func TestMythologies(t *testing.T) {
	srv := setupServer(t)
	w := do(t, srv, http.MethodGet, "/v1/mythologies", "")
	expectStatus(t, w, http.StatusOK)
	var resp struct {
		Mythologies []models.Mythology `json:"mythologies"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Mythologies) != 16 {
		t.Errorf("expected 16 mythologies, got %d", len(resp.Mythologies))
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/v1/forms/dragon", ""), http.StatusNotFound)
	expectStatus(t, do(t, srv, http.MethodGet, "/v1/entities/deity/missing", ""), http.StatusNotFound)
}

func TestClearSearchCacheRequiresAdmin(t *testing.T) {
	srv := setupServer(t)
	expectStatus(t, do(t, srv, http.MethodDelete, "/v1/search/cache", "", asUser("u1")), http.StatusForbidden)
	expectStatus(t, do(t, srv, http.MethodDelete, "/v1/search/cache", "", asAdmin()), http.StatusOK)
}

func TestClearSearchHistoryRequiresAdmin(t *testing.T) {
	srv := setupServer(t)
	expectStatus(t, do(t, srv, http.MethodGet, "/v1/search?q=zeus", ""), http.StatusOK)

	expectStatus(t, do(t, srv, http.MethodDelete, "/v1/search/history", ""), http.StatusUnauthorized)
	expectStatus(t, do(t, srv, http.MethodDelete, "/v1/search/history", "", asUser("u1")), http.StatusForbidden)

	w := do(t, srv, http.MethodGet, "/v1/search/history", "")
	expectStatus(t, w, http.StatusOK)
	var hist struct {
		History []models.SearchHistoryEntry `json:"history"`
	}
	decodeBody(t, w, &hist)
	if len(hist.History) != 1 {
		t.Fatalf("expected history to survive, got %d entries", len(hist.History))
	}

	expectStatus(t, do(t, srv, http.MethodDelete, "/v1/search/history", "", asAdmin()), http.StatusOK)
}
