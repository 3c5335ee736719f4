package run

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/pipeline"
)

var traceRunIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Trace sources.
const (
	SourcePipeline = "pipeline"
	SourceLLM      = "llm"
	SourceFrontend = "frontend"
)

// TraceEvent is a structured run trace event persisted as JSON.
type TraceEvent struct {
	Timestamp string         `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Source    string         `json:"source"`
	Stage     string         `json:"stage"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// TraceLogger persists run-scoped trace events into one JSONL file per run.
// It observes pipeline stages and, through CallHook, provider calls.
type TraceLogger struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

func NewTraceLogger(dir string) *TraceLogger {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		trimmed = filepath.Join("tmp", "run-logs")
	}
	_ = os.MkdirAll(trimmed, 0o755)
	return &TraceLogger{dir: trimmed, now: time.Now}
}

func sanitizeRunID(runID string) string {
	id := strings.TrimSpace(runID)
	if id == "" {
		return "unknown"
	}
	return traceRunIDSanitizer.ReplaceAllString(id, "_")
}

func (l *TraceLogger) filePath(runID string) string {
	return filepath.Join(l.dir, sanitizeRunID(runID)+".jsonl")
}

// Append writes one trace line for the run. Write failures are dropped.
func (l *TraceLogger) Append(runID, source, stage string, fields map[string]any) {
	if l == nil || strings.TrimSpace(runID) == "" {
		return
	}
	event := TraceEvent{
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		RunID:     strings.TrimSpace(runID),
		Source:    strings.TrimSpace(source),
		Stage:     strings.TrimSpace(stage),
	}
	if len(fields) > 0 {
		event.Fields = fields
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	raw = append(raw, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = os.MkdirAll(l.dir, 0o755)
	f, err := os.OpenFile(l.filePath(runID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(raw)
}

// Read returns all persisted trace events for a run.
func (l *TraceLogger) Read(runID string) ([]TraceEvent, error) {
	if l == nil {
		return nil, nil
	}
	f, err := os.Open(l.filePath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return []TraceEvent{}, nil
		}
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	out := make([]TraceEvent, 0, 16)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev TraceEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan trace file: %w", err)
	}
	return out, nil
}

// OnStage records a pipeline stage transition.
func (l *TraceLogger) OnStage(_ context.Context, ev pipeline.Event) {
	fields := map[string]any{"elapsed_ms": ev.Elapsed.Milliseconds()}
	for k, v := range ev.Detail {
		fields[k] = v
	}
	if ev.Error != "" {
		fields["error"] = ev.Error
	}
	l.Append(ev.RunID, SourcePipeline, string(ev.Stage), fields)
}

// Before records an outgoing provider call. Message bodies are not stored.
func (l *TraceLogger) Before(ctx context.Context, phase string, messages []llmclient.Message, params llmclient.Params) {
	size := 0
	for _, m := range messages {
		size += len(m.Content)
	}
	fields := map[string]any{"bytes": size, "max_tokens": params.MaxTokens}
	if params.Temperature != nil {
		fields["temperature"] = *params.Temperature
	}
	l.Append(pipeline.RunIDFrom(ctx), SourceLLM, phase+".request", fields)
}

// After records the provider's answer size or error.
func (l *TraceLogger) After(ctx context.Context, phase string, text string, err error) {
	fields := map[string]any{"bytes": len(text)}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.Append(pipeline.RunIDFrom(ctx), SourceLLM, phase+".response", fields)
}
