package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen/internal/gateway/config"
	"sitegen/internal/gateway/run"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/types"
)

const (
	intentJSON = `{"intent":"bakery","pages":["home"],"features":["menu"],"style":"modern","components":["Hero"]}`
	homeCode   = "export default function Home() { return <main>Bread</main> }"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Port = "127.0.0.1:0"
	cfg.TraceDir = t.TempDir()
	cfg.RequestTimeout = time.Minute
	return cfg
}

func fakeClients() Option {
	return WithClients(
		llmclient.NewFakeClient("intent", llmclient.FakeReply{Text: intentJSON}),
		llmclient.NewFakeClient("code", llmclient.FakeReply{Text: homeCode}),
	)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestApp_GenerateIsTraced(t *testing.T) {
	a, err := New(testConfig(t), nil, fakeClients())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	resp := postJSON(t, srv.URL+"/api/ai/generate", types.GenerationRequest{Prompt: "Build a bakery landing page"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out types.GenerationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success)
	require.NotEmpty(t, out.RunID)

	logs, err := http.Get(srv.URL + "/debug/run-logs?run_id=" + out.RunID)
	require.NoError(t, err)
	defer logs.Body.Close()
	var trace struct {
		Events []run.TraceEvent `json:"events"`
	}
	require.NoError(t, json.NewDecoder(logs.Body).Decode(&trace))

	var stages []string
	for _, ev := range trace.Events {
		stages = append(stages, ev.Source+":"+ev.Stage)
	}
	assert.Equal(t, []string{
		"pipeline:start",
		"llm:intent.request",
		"llm:intent.response",
		"pipeline:intent_extracted",
		"llm:code.request",
		"llm:code.response",
		"pipeline:code_synthesized",
		"pipeline:validated",
		"pipeline:responded",
	}, stages)
}

func TestApp_SQLiteProjects(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "projects.db")
	a, err := New(cfg, nil, fakeClients())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	resp := postJSON(t, srv.URL+"/api/projects", map[string]string{"name": "Bakery", "userId": "u1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Project struct {
			ID string `json:"id"`
		} `json:"project"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = postJSON(t, srv.URL+"/api/ai/generate", types.GenerationRequest{Prompt: "Build a bakery landing page", ProjectID: created.Project.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	code, err := http.Get(srv.URL + "/api/projects/" + created.Project.ID + "/versions/1/code")
	require.NoError(t, err)
	defer code.Body.Close()
	assert.Equal(t, http.StatusOK, code.StatusCode)
}

func TestApp_IncompleteS3FallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Artifact.Enabled = true
	cfg.Artifact.Endpoint = "localhost:9000"
	a, err := New(cfg, nil, fakeClients())
	require.NoError(t, err)
	a.Close()
}

func TestApp_ServeAndShutdown(t *testing.T) {
	a, err := New(testConfig(t), nil, fakeClients())
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 5*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
