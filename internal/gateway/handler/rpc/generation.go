package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"sitegen/internal/gateway/service/generation"
	"sitegen/internal/types"
)

// ServiceName is the fully-qualified name of the generation service.
const ServiceName = "sitegen.v1.GenerationService"

// Procedure paths.
const (
	GenerateWebsiteProcedure   = "/" + ServiceName + "/GenerateWebsite"
	GenerateComponentProcedure = "/" + ServiceName + "/GenerateComponent"
	RefineCodeProcedure        = "/" + ServiceName + "/RefineCode"
	ValidateCodeProcedure      = "/" + ServiceName + "/ValidateCode"
)

type GenerationHandler struct {
	svc *generation.Service
}

func NewGenerationHandler(svc *generation.Service) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

// Handler returns the service path prefix and an http.Handler serving every
// procedure, in the shape of generated connect code.
func (h *GenerationHandler) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(GenerateWebsiteProcedure, connect.NewUnaryHandler(GenerateWebsiteProcedure, h.GenerateWebsite, opts...))
	mux.Handle(GenerateComponentProcedure, connect.NewUnaryHandler(GenerateComponentProcedure, h.GenerateComponent, opts...))
	mux.Handle(RefineCodeProcedure, connect.NewUnaryHandler(RefineCodeProcedure, h.RefineCode, opts...))
	mux.Handle(ValidateCodeProcedure, connect.NewUnaryHandler(ValidateCodeProcedure, h.ValidateCode, opts...))
	return "/" + ServiceName + "/", mux
}

func (h *GenerationHandler) GenerateWebsite(ctx context.Context, req *connect.Request[types.GenerationRequest]) (*connect.Response[types.GenerationResponse], error) {
	resp, err := h.svc.Generate(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !resp.Success {
		return nil, connect.NewError(connect.CodeInternal, errors.New(resp.Error))
	}
	return connect.NewResponse(&resp), nil
}

func (h *GenerationHandler) GenerateComponent(ctx context.Context, req *connect.Request[types.ComponentRequest]) (*connect.Response[types.CodeResponse], error) {
	code, err := h.svc.GenerateComponent(ctx, req.Msg.Name, req.Msg.Description, req.Msg.Style)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&types.CodeResponse{Code: code}), nil
}

func (h *GenerationHandler) RefineCode(ctx context.Context, req *connect.Request[types.RefineRequest]) (*connect.Response[types.CodeResponse], error) {
	code, err := h.svc.RefineCode(ctx, req.Msg.Code, req.Msg.Feedback)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&types.CodeResponse{Code: code}), nil
}

func (h *GenerationHandler) ValidateCode(_ context.Context, req *connect.Request[types.CodeRequest]) (*connect.Response[types.ValidationResult], error) {
	res := h.svc.Validate(req.Msg.Code)
	return connect.NewResponse(&res), nil
}

func toConnectError(err error) error {
	if _, ok := generation.AsValidation(err); ok {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("generation service failed: %w", err))
	}
}
