package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	artifactrepo "sitegen/internal/gateway/repository/artifact"
	projectrepo "sitegen/internal/gateway/repository/project"
	"sitegen/internal/types"
)

// ErrInvalid marks caller mistakes that map to 400.
var ErrInvalid = errors.New("invalid request")

// Service implements project business logic over the project and artifact
// stores. The artifact store is optional.
type Service struct {
	store     projectrepo.Store
	artifacts artifactrepo.Store
	log       *zap.Logger
}

func New(store projectrepo.Store, artifacts artifactrepo.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, artifacts: artifacts, log: log}
}

// Detail is a project with its current pages and version history.
type Detail struct {
	Project  projectrepo.Project   `json:"project"`
	Pages    []projectrepo.Page    `json:"pages"`
	Versions []projectrepo.Version `json:"versions"`
}

func (s *Service) List(ctx context.Context, userID string) ([]projectrepo.Project, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalid)
	}
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) Create(ctx context.Context, name, description, userID string) (projectrepo.Project, error) {
	name = strings.TrimSpace(name)
	userID = strings.TrimSpace(userID)
	if name == "" {
		return projectrepo.Project{}, fmt.Errorf("%w: Name is required", ErrInvalid)
	}
	if userID == "" {
		return projectrepo.Project{}, fmt.Errorf("%w: userId is required", ErrInvalid)
	}
	p, err := projectrepo.CreateWithUniqueSlug(ctx, s.store, projectrepo.Project{
		Name:        name,
		Description: strings.TrimSpace(description),
		UserID:      userID,
	})
	if err != nil {
		return projectrepo.Project{}, err
	}
	s.log.Info("project created", zap.String("project_id", p.ID), zap.String("slug", p.Slug))
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	pages, err := s.store.Pages(ctx, p.ID)
	if err != nil {
		return Detail{}, err
	}
	versions, err := s.store.Versions(ctx, p.ID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Project: p, Pages: pages, Versions: versions}, nil
}

// Exists reports whether a project with id is stored.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.store.Get(ctx, id)
	if errors.Is(err, projectrepo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// RecordGeneration saves the pages of a successful run as a new version and
// mirrors their code into the artifact store.
func (s *Service) RecordGeneration(ctx context.Context, projectID string, resp types.GenerationResponse) (projectrepo.Version, error) {
	v, err := s.store.SavePages(ctx, projectID, resp.RunID, resp.Pages)
	if err != nil {
		return projectrepo.Version{}, err
	}
	if s.artifacts == nil {
		return v, nil
	}
	for _, page := range resp.Pages {
		path := artifactrepo.VersionPath(v.Number, page.Path)
		if err := s.artifacts.Put(ctx, projectID, path, []byte(page.Code)); err != nil {
			return v, fmt.Errorf("store artifact %s: %w", path, err)
		}
	}
	return v, nil
}

// Artifact returns stored page code for a project version.
func (s *Service) Artifact(ctx context.Context, projectID string, version int, pagePath string) ([]byte, error) {
	if s.artifacts == nil {
		return nil, artifactrepo.ErrNotFound
	}
	return s.artifacts.Get(ctx, projectID, artifactrepo.VersionPath(version, pagePath))
}
