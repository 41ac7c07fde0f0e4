package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/notedit/internal/config"
	"github.com/dgallion1/notedit/internal/pipeline"
	"github.com/dgallion1/notedit/internal/render"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.DiscardHandler)
	orch := pipeline.NewOrchestrator(cfg, render.New(render.Options{}), log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	ts := httptest.NewServer(NewServer(orch, log, cfg))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string, header ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestOutline(t *testing.T) {
	ts := newTestServer(t, nil)
	body := `{"text":"# A\n## B\n---\n# C"}`
	resp := do(t, http.MethodPost, ts.URL+"/api/outline", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	type node struct {
		Label           string `json:"label"`
		SourceLine      int    `json:"source_line"`
		Children        []node `json:"children"`
		SeparatorBefore bool   `json:"separator_before"`
	}
	got := decode[struct {
		Headers []node `json:"headers"`
	}](t, resp)

	require.Len(t, got.Headers, 2)
	assert.Equal(t, "A", got.Headers[0].Label)
	require.Len(t, got.Headers[0].Children, 1)
	assert.Equal(t, 2, got.Headers[0].Children[0].SourceLine)
	assert.True(t, got.Headers[1].SeparatorBefore)
	assert.Equal(t, 4, got.Headers[1].SourceLine)
}

func TestOutline_EmptyText(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodPost, ts.URL+"/api/outline", `{"text":""}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string][]any](t, resp)
	assert.NotNil(t, got["headers"])
	assert.Empty(t, got["headers"])
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodPost, ts.URL+"/api/render", `{"text":"# Title\n\nbody"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[previewResponse](t, resp)
	assert.Contains(t, got.HTML, `data-source-line="1"`)
	assert.Equal(t, []int{1, 3}, got.Anchors)
	assert.Equal(t, pipeline.ContentHashHex([]byte("# Title\n\nbody")), got.Revision)
}

func TestRender_InvalidAttachment(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodPost, ts.URL+"/api/render", `{"text":"x","attachments":[{"name":"a.png"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRender_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.MaxDocumentBytes = 16 })
	resp := do(t, http.MethodPost, ts.URL+"/api/render", `{"text":"this is far too long for the limit"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodPost, ts.URL+"/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[map[string]string](t, resp)["session_id"]
	require.NotEmpty(t, id)
	base := ts.URL + "/api/sessions/" + id

	resp = do(t, http.MethodGet, base+"/preview", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/documents", `{"text":"# Hello"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var preview previewResponse
	require.Eventually(t, func() bool {
		resp := do(t, http.MethodGet, base+"/preview", "")
		if resp.StatusCode != http.StatusOK {
			return false
		}
		preview = decode[previewResponse](t, resp)
		return true
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, preview.HTML, "Hello")
	assert.Equal(t, []int{1}, preview.Anchors)

	resp = do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/preview", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSession_UnknownID(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodPost, ts.URL+"/api/sessions/nope/documents", `{"text":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSession_Limit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.MaxSessions = 1 })
	assert.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/api/sessions", "").StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, http.MethodPost, ts.URL+"/api/sessions", "").StatusCode)
}

func TestSyncPercentage(t *testing.T) {
	ts := newTestServer(t, nil)
	body := `{"source":{"scroll_top":400,"scroll_height":1100,"client_height":100},
	          "target":{"scroll_top":0,"scroll_height":2100,"client_height":100}}`
	resp := do(t, http.MethodPost, ts.URL+"/api/sync/percentage", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[map[string]float64](t, resp)
	assert.InDelta(t, 800, got["scroll_top"], 1e-9)
	assert.InDelta(t, 0.4, got["scroll_percentage"], 1e-9)
}

func TestSyncPercentage_NegativeGeometry(t *testing.T) {
	ts := newTestServer(t, nil)
	body := `{"source":{"scroll_top":0,"scroll_height":-1,"client_height":100},"target":{}}`
	resp := do(t, http.MethodPost, ts.URL+"/api/sync/percentage", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSyncAnchor(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodPost, ts.URL+"/api/sync/anchor", `{"line":15,"anchors":[5,10,20]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]int](t, resp)
	assert.Equal(t, 1, got["index"])
	assert.Equal(t, 10, got["line"])

	resp = do(t, http.MethodPost, ts.URL+"/api/sync/anchor", `{"line":3,"anchors":[]}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/sync/anchor", `{"line":-1,"anchors":[1,2]}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/sync/anchor", `{"anchors":[1,2]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRenderStats(t *testing.T) {
	ts := newTestServer(t, nil)
	do(t, http.MethodPost, ts.URL+"/api/sessions", "")

	resp := do(t, http.MethodGet, ts.URL+"/api/stats/render", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]any](t, resp)
	assert.EqualValues(t, 1, got["sessions"])
	assert.Contains(t, got, "stats")
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.APIKey = "secret" })

	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/health", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodPost, ts.URL+"/api/outline", `{"text":""}`).StatusCode)
	assert.Equal(t, http.StatusUnauthorized,
		do(t, http.MethodPost, ts.URL+"/api/outline", `{"text":""}`, "Authorization", "Bearer wrong").StatusCode)
	assert.Equal(t, http.StatusOK,
		do(t, http.MethodPost, ts.URL+"/api/outline", `{"text":""}`, "Authorization", "Bearer secret").StatusCode)
}
