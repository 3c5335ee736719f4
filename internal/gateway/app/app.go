package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"sitegen/internal/gateway/config"
	"sitegen/internal/gateway/handler"
	"sitegen/internal/gateway/handler/rpc"
	"sitegen/internal/gateway/run"
	"sitegen/internal/gateway/server"
	"sitegen/internal/gateway/service/generation"
	gatewayproject "sitegen/internal/gateway/service/project"
	"sitegen/internal/llm"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/pipeline"
)

type App struct {
	log        *zap.Logger
	server     *server.Server
	handler    http.Handler
	generation *generation.Service
	stores     *gatewayStores
	clients    []llm.LLMClient
}

// Option overrides wiring defaults.
type Option func(*options)

type options struct {
	intent llm.LLMClient
	code   llm.LLMClient
}

// WithClients replaces the provider clients built from configuration. The
// clients are still wrapped with logging and hooks.
func WithClients(intent, code llm.LLMClient) Option {
	return func(o *options) {
		o.intent = intent
		o.code = code
	}
}

func New(cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Dependencies
	stores, err := initStores(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init stores: %w", err)
	}
	traces := run.NewTraceLogger(cfg.TraceDir)

	intentLLM, codeLLM := o.intent, o.code
	if intentLLM == nil || codeLLM == nil {
		registry := llmclient.NewRegistry()
		intentLLM = registry.Lazy(cfg.LLM.IntentProvider, cfg.LLM.IntentModel, wrapClient("SITEGEN_INTENT", cfg.LLM, log))
		codeLLM = registry.Lazy(cfg.LLM.CodeProvider, cfg.LLM.CodeModel, wrapClient("SITEGEN_CODE", cfg.LLM, log))
	} else {
		intentLLM = llm.Wrap(intentLLM, llm.WithLogging(log), llm.WithHooks())
		codeLLM = llm.Wrap(codeLLM, llm.WithLogging(log), llm.WithHooks())
	}

	orch := pipeline.NewOrchestrator(intentLLM, codeLLM,
		pipeline.WithLogger(log.Named("pipeline")),
		pipeline.WithStageObserver(traces),
	)
	projectSvc := gatewayproject.New(stores.project, stores.artifact, log.Named("project"))
	generationSvc := generation.New(orch, projectSvc, cfg.RequestTimeout, log.Named("generation"), generation.WithCallHook(traces))

	apiHandler := handler.New(generationSvc, projectSvc, log.Named("handler"))
	generationHandler := rpc.NewGenerationHandler(generationSvc)
	traceHandler := handler.NewTraceHandler(traces)

	// Routing & Server
	mux := server.NewMux(apiHandler, generationHandler, traceHandler)
	srv := server.New(cfg.Port, mux, log)

	return &App{
		log:        log,
		server:     srv,
		handler:    mux,
		generation: generationSvc,
		stores:     stores,
		clients:    []llm.LLMClient{intentLLM, codeLLM},
	}, nil
}

// wrapClient applies rate limiting, logging, hooks and provider quota
// backoff to a freshly built provider client. Stage-specific
// <prefix>_RPS/_BURST variables win over the shared LLM settings.
func wrapClient(prefix string, cfg config.LLMConfig, log *zap.Logger) func(llmclient.ProviderClient) llmclient.ProviderClient {
	limit := llm.RateLimit(cfg.RPS, cfg.Burst)
	if strings.TrimSpace(os.Getenv(prefix+"_RPS")) != "" {
		limit = llm.RateLimitFromEnv(prefix, "LLM")
	}
	return func(c llmclient.ProviderClient) llmclient.ProviderClient {
		return llm.Wrap(c,
			limit,
			llm.WithLogging(log.Named("llm")),
			llm.WithHooks(),
			llm.RespectRateLimitSignals(llmclient.HeaderRateLimitControlAdapter{}),
		)
	}
}

func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Generation() *generation.Service { return a.generation }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Serve(ln net.Listener) error {
	return a.server.Serve(ln)
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.Close()
	return err
}

// Close releases provider clients and store connections.
func (a *App) Close() {
	for _, c := range a.clients {
		if err := c.Close(); err != nil {
			a.log.Warn("close llm client", zap.Error(err))
		}
	}
	a.clients = nil
	if err := a.stores.close(); err != nil {
		a.log.Warn("close stores", zap.Error(err))
	}
}
