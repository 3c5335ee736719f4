package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen/internal/llm"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/pipeline"
	"sitegen/internal/types"
)

var _ pipeline.Observer = (*TraceLogger)(nil)
var _ llm.CallHook = (*TraceLogger)(nil)

func TestTraceLogger_AppendRead(t *testing.T) {
	l := NewTraceLogger(t.TempDir())
	l.Append("run/1", SourceFrontend, "click", map[string]any{"k": "v"})
	l.Append("run/1", SourceFrontend, "submit", nil)
	l.Append("", SourceFrontend, "dropped", nil)

	events, err := l.Read("run/1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "click", events[0].Stage)
	assert.Equal(t, "v", events[0].Fields["k"])
	assert.Equal(t, "run/1", events[1].RunID)

	none, err := l.Read("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTraceLogger_RecordsPipelineRun(t *testing.T) {
	l := NewTraceLogger(t.TempDir())
	intent := llmclient.NewFakeClient("intent", llmclient.FakeReply{
		Text: `{"intent":"bakery website","pages":["Home"],"features":[],"style":"modern","components":[]}`,
	})
	code := llmclient.NewFakeClient("code", llmclient.FakeReply{Text: "export default function Home() {}"})
	wrap := func(c llm.LLMClient) llm.LLMClient { return llm.Wrap(c, llm.WithHooks()) }
	o := pipeline.NewOrchestrator(wrap(intent), wrap(code), pipeline.WithStageObserver(l))

	ctx := llm.WithCallHook(context.Background(), l)
	resp := o.GenerateWebsite(ctx, types.GenerationRequest{Prompt: "a bakery landing page"})
	require.True(t, resp.Success)

	events, err := l.Read(resp.RunID)
	require.NoError(t, err)
	var stages []string
	for _, ev := range events {
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

func TestTraceLogger_OnStageError(t *testing.T) {
	l := NewTraceLogger(t.TempDir())
	l.OnStage(context.Background(), pipeline.Event{RunID: "r", Stage: pipeline.StageFailed, Elapsed: 2 * time.Second, Error: "boom"})
	l.After(context.Background(), "intent", "", errors.New("ignored without run id"))

	events, err := l.Read("r")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "boom", events[0].Fields["error"])
	assert.EqualValues(t, 2000, events[0].Fields["elapsed_ms"])
}
