package generation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	projectsvc "sitegen/internal/gateway/service/project"
	"sitegen/internal/llm"
	"sitegen/internal/pipeline"
	"sitegen/internal/types"
)

const minPromptLength = 10

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field problem of a rejected request.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		msgs = append(msgs, d.Field+": "+d.Message)
	}
	return "invalid request data: " + strings.Join(msgs, "; ")
}

// AsValidation unwraps a ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// ValidateRequest enforces the caller-side request contract: a prompt of at
// least ten characters and, when given, a known style.
func ValidateRequest(req types.GenerationRequest) error {
	var details []FieldError
	if len([]rune(strings.TrimSpace(req.Prompt))) < minPromptLength {
		details = append(details, FieldError{Field: "prompt", Message: "Prompt must be at least 10 characters"})
	}
	if req.Style != "" && !slices.Contains(types.Styles, req.Style) {
		details = append(details, FieldError{
			Field:   "style",
			Message: fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", quoteStyles(), req.Style),
		})
	}
	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}

func quoteStyles() string {
	q := make([]string, 0, len(types.Styles))
	for _, s := range types.Styles {
		q = append(q, "'"+s+"'")
	}
	return strings.Join(q, " | ")
}

func required(fields ...FieldError) error {
	var details []FieldError
	for _, f := range fields {
		if f.Message != "" {
			details = append(details, FieldError{Field: f.Field, Message: f.Field + " is required"})
		}
	}
	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}

func missing(field, value string) FieldError {
	if strings.TrimSpace(value) == "" {
		return FieldError{Field: field, Message: "missing"}
	}
	return FieldError{Field: field}
}

// Service is the use-case layer shared by the REST, websocket and Connect
// surfaces.
type Service struct {
	orch     *pipeline.Orchestrator
	projects *projectsvc.Service
	timeout  time.Duration
	hook     llm.CallHook
	log      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCallHook attaches hook to every provider call the service issues.
func WithCallHook(hook llm.CallHook) Option {
	return func(s *Service) { s.hook = hook }
}

// New wires the service. projects may be nil, in which case projectId is
// ignored. A non-positive timeout disables the per-request deadline.
func New(orch *pipeline.Orchestrator, projects *projectsvc.Service, timeout time.Duration, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{orch: orch, projects: projects, timeout: timeout, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.hook != nil {
		ctx = llm.WithCallHook(ctx, s.hook)
	}
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Generate validates req, runs the pipeline and, for successful runs tied to
// an existing project, records the pages as a new version. Only validation
// problems are returned as errors; pipeline failures are in the response.
func (s *Service) Generate(ctx context.Context, req types.GenerationRequest) (types.GenerationResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return types.GenerationResponse{}, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	resp := s.orch.GenerateWebsite(ctx, req)
	if !resp.Success || s.projects == nil || strings.TrimSpace(req.ProjectID) == "" {
		return resp, nil
	}

	projectID := strings.TrimSpace(req.ProjectID)
	log := s.log.With(zap.String("run_id", resp.RunID), zap.String("project_id", projectID))
	ok, err := s.projects.Exists(ctx, projectID)
	if err != nil || !ok {
		log.Warn("generation not recorded: project unavailable", zap.Error(err))
		return resp, nil
	}
	// Persist even if the request deadline is close; the pages are already paid for.
	v, err := s.projects.RecordGeneration(context.WithoutCancel(ctx), projectID, resp)
	if err != nil {
		log.Error("failed to record generation", zap.Error(err))
		if v.Number == 0 {
			return resp, nil
		}
	}
	log.Info("generation recorded", zap.Int("version", v.Number))
	resp.ProjectID = projectID
	return resp, nil
}

// GenerateComponent returns the code of one reusable component.
func (s *Service) GenerateComponent(ctx context.Context, name, description, style string) (string, error) {
	if err := required(missing("name", name), missing("description", description)); err != nil {
		return "", err
	}
	if style != "" && !slices.Contains(types.Styles, style) {
		return "", &ValidationError{Details: []FieldError{{Field: "style", Message: "Invalid enum value"}}}
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	return s.orch.GenerateComponent(ctx, name, description, style)
}

// RefineCode rewrites code according to feedback.
func (s *Service) RefineCode(ctx context.Context, code, feedback string) (string, error) {
	if err := required(missing("code", code), missing("feedback", feedback)); err != nil {
		return "", err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	return s.orch.RefineCode(ctx, code, feedback)
}

// Validate runs the local code checks only.
func (s *Service) Validate(code string) types.ValidationResult {
	return s.orch.Validator().Validate(types.CodeArtifact(code))
}
