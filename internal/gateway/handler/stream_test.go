package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen/internal/pipeline"
	"sitegen/internal/types"
)

func dialStream(t *testing.T, env testEnv) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.mux)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ai/generate/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntilTerminal(t *testing.T, conn *websocket.Conn) []StreamMessage {
	t.Helper()
	var msgs []StreamMessage
	for {
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		msgs = append(msgs, msg)
		if msg.Type != MsgStage {
			return msgs
		}
	}
}

func TestGenerateStream_StagesThenResult(t *testing.T) {
	conn := dialStream(t, newTestEnv(t))
	require.NoError(t, conn.WriteJSON(types.GenerationRequest{Prompt: "Build a bakery landing page"}))

	msgs := readUntilTerminal(t, conn)
	last := msgs[len(msgs)-1]
	require.Equal(t, MsgResult, last.Type)
	require.NotNil(t, last.Response)
	assert.True(t, last.Response.Success)
	assert.Equal(t, homeCode, last.Response.Pages[0].Code)

	var stages []pipeline.Stage
	for _, m := range msgs[:len(msgs)-1] {
		assert.Equal(t, last.RunID, m.RunID)
		assert.NotNil(t, m.At)
		stages = append(stages, m.Stage)
	}
	assert.Equal(t, []pipeline.Stage{
		pipeline.StageStart,
		pipeline.StageIntentExtracted,
		pipeline.StageCodeSynthesized,
		pipeline.StageValidated,
		pipeline.StageResponded,
	}, stages)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestGenerateStream_FailedRunEndsInResult(t *testing.T) {
	conn := dialStream(t, newTestEnvWithIntent(t, "not json at all"))
	require.NoError(t, conn.WriteJSON(types.GenerationRequest{Prompt: "Build a bakery landing page"}))

	msgs := readUntilTerminal(t, conn)
	last := msgs[len(msgs)-1]
	require.Equal(t, MsgResult, last.Type)
	assert.False(t, last.Response.Success)
	assert.Contains(t, last.Response.Error, "failed to parse intent")
	assert.Equal(t, pipeline.StageFailed, msgs[len(msgs)-2].Stage)
}

func TestGenerateStream_InvalidRequest(t *testing.T) {
	conn := dialStream(t, newTestEnv(t))
	require.NoError(t, conn.WriteJSON(types.GenerationRequest{Prompt: "tiny"}))

	msgs := readUntilTerminal(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgError, msgs[0].Type)
	assert.Equal(t, "Invalid request data", msgs[0].Error)
	require.Len(t, msgs[0].Details, 1)
	assert.Equal(t, "prompt", msgs[0].Details[0].Field)
}

func TestGenerateStream_RequiresUpgrade(t *testing.T) {
	rec := newTestEnv(t).do(http.MethodGet, "/api/ai/generate/stream", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
