package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sitegen/internal/gateway/service/generation"
	projectsvc "sitegen/internal/gateway/service/project"
	"sitegen/internal/util/jsonutil"
)

const maxBodyBytes = 1 << 20

// Handler serves the REST and websocket surfaces of the generation and
// project services.
type Handler struct {
	gen      *generation.Service
	projects *projectsvc.Service
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func New(gen *generation.Service, projects *projectsvc.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		gen:      gen,
		projects: projects,
		log:      log,
		upgrader: websocket.Upgrader{
			// Origin policy is enforced by the CORS middleware.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ai/generate", h.Generate)
	mux.HandleFunc("GET /api/ai/generate/stream", h.GenerateStream)
	mux.HandleFunc("POST /api/ai/component", h.GenerateComponent)
	mux.HandleFunc("POST /api/ai/refine", h.RefineCode)
	mux.HandleFunc("POST /api/ai/validate", h.ValidateCode)

	mux.HandleFunc("GET /api/projects", h.ListProjects)
	mux.HandleFunc("POST /api/projects", h.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", h.GetProject)
	mux.HandleFunc("GET /api/projects/{id}/versions/{version}/code", h.GetVersionCode)
}

type errorBody struct {
	Error   string                  `json:"error"`
	Details []generation.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeServiceError maps service errors onto status codes. Unexpected
// errors are logged and reported with fallback.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	if ve, ok := generation.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request data", Details: ve.Details})
		return
	}
	if errors.Is(err, projectsvc.ErrInvalid) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error(fallback, zap.Error(err))
	writeError(w, http.StatusInternalServerError, fallback)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "invalid json body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}
