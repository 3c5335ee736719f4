package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen/internal/gateway/run"
)

func TestTraceHandler_FrontendTraceRoundTrip(t *testing.T) {
	h := NewTraceHandler(run.NewTraceLogger(t.TempDir()))
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/frontend-trace",
		strings.NewReader(`{"run_id":"r1","stage":"preview.rendered","level":"info","fields":{"ms":12}}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/run-logs?run_id=r1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		RunID  string           `json:"run_id"`
		Events []run.TraceEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "r1", out.RunID)
	require.Len(t, out.Events, 1)
	assert.Equal(t, run.SourceFrontend, out.Events[0].Source)
	assert.Equal(t, "preview.rendered", out.Events[0].Stage)
	assert.Equal(t, "info", out.Events[0].Fields["level"])
}

func TestTraceHandler_Validation(t *testing.T) {
	h := NewTraceHandler(run.NewTraceLogger(t.TempDir()))

	rec := httptest.NewRecorder()
	h.HandleFrontendTrace(rec, httptest.NewRequest(http.MethodGet, "/debug/frontend-trace", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleFrontendTrace(rec, httptest.NewRequest(http.MethodPost, "/debug/frontend-trace", strings.NewReader(`{"run_id":"r1"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleRunLogs(rec, httptest.NewRequest(http.MethodGet, "/debug/run-logs", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleRunLogs(rec, httptest.NewRequest(http.MethodGet, "/debug/run-logs?run_id=unknown", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"run_id":"unknown","events":[]}`, rec.Body.String())
}
