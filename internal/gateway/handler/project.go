package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	artifactrepo "sitegen/internal/gateway/repository/artifact"
	projectrepo "sitegen/internal/gateway/repository/project"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	projects, err := h.projects.List(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch projects")
		return
	}
	if projects == nil {
		projects = []projectrepo.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "Name and userId are required")
		return
	}
	p, err := h.projects.Create(r.Context(), req.Name, req.Description, req.UserID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": p})
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	detail, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, projectrepo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch project")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetVersionCode serves the stored code of one page of a project version as
// plain text. The page is selected with ?path=, defaulting to "/".
func (h *Handler) GetVersionCode(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || version < 1 {
		writeError(w, http.StatusBadRequest, "version must be a positive integer")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	body, err := h.projects.Artifact(r.Context(), r.PathValue("id"), version, path)
	if errors.Is(err, artifactrepo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Code not found")
		return
	}
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch code")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(body)
}
