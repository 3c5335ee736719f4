package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sitegen/internal/gateway/service/generation"
	"sitegen/internal/pipeline"
	"sitegen/internal/types"
	"sitegen/internal/util/jsonutil"
)

const (
	requestReadTimeout = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// Stream message types.
const (
	MsgStage  = "stage"
	MsgResult = "result"
	MsgError  = "error"
)

// StreamMessage is one frame of the generation stream. A stream carries zero
// or more stage frames followed by exactly one result or error frame. Failed
// runs still end in a result frame whose response has success=false; error
// frames are reserved for requests that never started a run.
type StreamMessage struct {
	Type     string                    `json:"type"`
	Stage    pipeline.Stage            `json:"stage,omitempty"`
	RunID    string                    `json:"runId,omitempty"`
	At       *time.Time                `json:"at,omitempty"`
	Detail   map[string]any            `json:"detail,omitempty"`
	Response *types.GenerationResponse `json:"response,omitempty"`
	Error    string                    `json:"error,omitempty"`
	Details  []generation.FieldError   `json:"details,omitempty"`
}

type streamWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *streamWriter) send(msg StreamMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, err := jsonutil.MarshalNoEscape(msg)
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, body)
}

func (s *streamWriter) OnStage(_ context.Context, ev pipeline.Event) {
	at := ev.At
	_ = s.send(StreamMessage{Type: MsgStage, Stage: ev.Stage, RunID: ev.RunID, At: &at, Detail: ev.Detail})
}

// GenerateStream upgrades to a websocket, reads one GenerationRequest and
// streams stage transitions of the run before the final response. Closing
// the socket cancels the run.
func (h *Handler) GenerateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	out := &streamWriter{conn: conn}
	var req types.GenerationRequest
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	if err := conn.ReadJSON(&req); err != nil {
		_ = out.send(StreamMessage{Type: MsgError, Error: "invalid json body"})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain client frames so close and ping control messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	resp, err := h.gen.Generate(pipeline.WithObserver(ctx, out), req)
	switch {
	case err != nil:
		msg := StreamMessage{Type: MsgError, Error: "Generation failed"}
		if ve, ok := generation.AsValidation(err); ok {
			msg.Error = "Invalid request data"
			msg.Details = ve.Details
		}
		_ = out.send(msg)
	default:
		_ = out.send(StreamMessage{Type: MsgResult, RunID: resp.RunID, Response: &resp})
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = conn.Close()
	<-done
}
