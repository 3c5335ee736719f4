package server

import (
	"net/http"

	"sitegen/internal/gateway/handler"
	"sitegen/internal/gateway/handler/rpc"
	"sitegen/internal/gateway/middleware"
)

func NewMux(
	apiHandler *handler.Handler,
	generationHandler *rpc.GenerationHandler,
	traceHandler *handler.TraceHandler,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(generationHandler.Handler())

	// REST and websocket Handlers
	apiHandler.Register(mux)

	// Debug Handlers
	traceHandler.Register(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Middleware
	return middleware.CORS(mux)
}
