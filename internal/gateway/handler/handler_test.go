package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	artifactrepo "sitegen/internal/gateway/repository/artifact"
	projectrepo "sitegen/internal/gateway/repository/project"
	"sitegen/internal/gateway/service/generation"
	projectsvc "sitegen/internal/gateway/service/project"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/pipeline"
	"sitegen/internal/types"
)

const (
	intentJSON = `{"intent":"bakery landing page","pages":["home"],"features":["menu"],"style":"creative","components":["Hero"]}`
	homeCode   = "export default function Home() {\n  return <main>Fresh bread & cake</main>\n}"
)

type testEnv struct {
	mux      *http.ServeMux
	projects *projectsvc.Service
}

func newTestEnv(t *testing.T, codeReplies ...llmclient.FakeReply) testEnv {
	t.Helper()
	return newTestEnvWithIntent(t, intentJSON, codeReplies...)
}

func newTestEnvWithIntent(t *testing.T, intent string, codeReplies ...llmclient.FakeReply) testEnv {
	t.Helper()
	if len(codeReplies) == 0 {
		codeReplies = []llmclient.FakeReply{{Text: homeCode}}
	}
	orch := pipeline.NewOrchestrator(
		llmclient.NewFakeClient("intent", llmclient.FakeReply{Text: intent}),
		llmclient.NewFakeClient("code", codeReplies...),
	)
	projects := projectsvc.New(projectrepo.NewMemoryStore(), artifactrepo.NewMemoryStore(), nil)
	h := New(generation.New(orch, projects, time.Minute, nil), projects, nil)
	mux := http.NewServeMux()
	h.Register(mux)
	return testEnv{mux: mux, projects: projects}
}

func (e testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGenerate_Success(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/ai/generate", `{"prompt":"Build a bakery landing page","style":"creative"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<main>Fresh bread & cake</main>", "markup must not be escaped")

	var resp types.GenerationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Pages, 1)
	assert.Equal(t, "/", resp.Pages[0].Path)
	assert.NotNil(t, resp.Components)
}

func TestGenerate_InvalidRequest(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/ai/generate", `{"prompt":"short","style":"gothic"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Invalid request data", body["error"])
	details, ok := body["details"].([]any)
	require.True(t, ok)
	assert.Len(t, details, 2)

	rec = env.do(http.MethodPost, "/api/ai/generate", `{"prompt":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_PipelineFailureIs500(t *testing.T) {
	env := newTestEnv(t, llmclient.FakeReply{Text: ""})
	rec := env.do(http.MethodPost, "/api/ai/generate", `{"prompt":"Build a bakery landing page"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, pipeline.ErrCodeGeneration.Error(), decode(t, rec)["error"])
}

func TestGenerate_PersistsIntoProject(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/projects", `{"name":"Corner Bakery","userId":"u1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Project projectrepo.Project `json:"project"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "corner-bakery", created.Project.Slug)

	rec = env.do(http.MethodPost, "/api/ai/generate", `{"prompt":"Build a bakery landing page","projectId":"`+created.Project.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Project.ID, decode(t, rec)["projectId"])

	rec = env.do(http.MethodGet, "/api/projects/"+created.Project.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail projectsvc.Detail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Versions, 1)
	assert.Equal(t, homeCode, detail.Pages[0].Code)

	rec = env.do(http.MethodGet, "/api/projects/"+created.Project.ID+"/versions/1/code", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, homeCode, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/projects/"+created.Project.ID+"/versions/9/code", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(http.MethodGet, "/api/projects/"+created.Project.ID+"/versions/zero/code", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjects(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/projects", `{"name":"","userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/projects?userId=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"projects":[]}`, rec.Body.String())

	for _, name := range []string{"Site", "Site"} {
		rec = env.do(http.MethodPost, "/api/projects", `{"name":"`+name+`","userId":"u1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec = env.do(http.MethodGet, "/api/projects?userId=u1", "")
	var list struct {
		Projects []projectrepo.Project `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Projects, 2)
	slugs := []string{list.Projects[0].Slug, list.Projects[1].Slug}
	assert.ElementsMatch(t, []string{"site", "site-1"}, slugs)

	rec = env.do(http.MethodGet, "/api/projects/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found", decode(t, rec)["error"])
}

func TestComponentRefineValidate(t *testing.T) {
	env := newTestEnv(t,
		llmclient.FakeReply{Text: "export default function Hero() {}"},
		llmclient.FakeReply{Text: ""},
	)

	rec := env.do(http.MethodPost, "/api/ai/component", `{"name":"Hero","description":"banner"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "export default function Hero() {}", decode(t, rec)["code"])

	// An empty refinement keeps the submitted code.
	rec = env.do(http.MethodPost, "/api/ai/refine", `{"code":"export default function A() {}","feedback":"bigger"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "export default function A() {}", decode(t, rec)["code"])

	rec = env.do(http.MethodPost, "/api/ai/refine", `{"code":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/ai/validate", `{"code":"<div dangerouslySetInnerHTML={x} />"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res types.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.CategorySecurity, res.Warnings[0].Category)
}

func TestWriteServiceError_Unexpected(t *testing.T) {
	h := New(nil, nil, nil)
	rec := httptest.NewRecorder()
	h.writeServiceError(rec, context.DeadlineExceeded, "Generation failed")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Generation failed"}`, rec.Body.String())
}
