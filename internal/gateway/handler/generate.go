package handler

import (
	"net/http"

	"sitegen/internal/types"
)

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.gen.Generate(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "Generation failed")
		return
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Generation failed"
		}
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GenerateComponent(w http.ResponseWriter, r *http.Request) {
	var req types.ComponentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code, err := h.gen.GenerateComponent(r.Context(), req.Name, req.Description, req.Style)
	if err != nil {
		h.writeServiceError(w, err, "Component generation failed")
		return
	}
	writeJSON(w, http.StatusOK, types.CodeResponse{Code: code})
}

func (h *Handler) RefineCode(w http.ResponseWriter, r *http.Request) {
	var req types.RefineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code, err := h.gen.RefineCode(r.Context(), req.Code, req.Feedback)
	if err != nil {
		h.writeServiceError(w, err, "Code refinement failed")
		return
	}
	writeJSON(w, http.StatusOK, types.CodeResponse{Code: code})
}

func (h *Handler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req types.CodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.gen.Validate(req.Code))
}
