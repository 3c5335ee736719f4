package project

import (
	"context"
	"errors"
	"time"

	"sitegen/internal/types"
)

var (
	ErrNotFound  = errors.New("project not found")
	ErrSlugTaken = errors.New("project slug already exists")
)

// Store persists projects, their current pages and a version history of
// page snapshots.
type Store interface {
	// Create stores p. ID, CreatedAt and UpdatedAt are assigned when empty;
	// Slug must already be set and unique.
	Create(ctx context.Context, p Project) (Project, error)
	Get(ctx context.Context, id string) (Project, error)
	GetBySlug(ctx context.Context, slug string) (Project, error)
	// ListByUser returns the user's projects, most recently updated first.
	ListByUser(ctx context.Context, userID string) ([]Project, error)
	// SavePages replaces the current pages and records them as a new version.
	SavePages(ctx context.Context, projectID, runID string, pages []types.GeneratedPage) (Version, error)
	Pages(ctx context.Context, projectID string) ([]Page, error)
	// Versions returns the version history, newest first.
	Versions(ctx context.Context, projectID string) ([]Version, error)
}

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Page struct {
	ProjectID      string    `json:"projectId"`
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	Code           string    `json:"code"`
	SEOTitle       string    `json:"seoTitle,omitempty"`
	SEODescription string    `json:"seoDescription,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Version is an immutable snapshot of a project's pages.
type Version struct {
	ProjectID string                `json:"projectId"`
	Number    int                   `json:"number"`
	RunID     string                `json:"runId,omitempty"`
	Pages     []types.GeneratedPage `json:"pages"`
	CreatedAt time.Time             `json:"createdAt"`
}

func pagesFrom(projectID string, in []types.GeneratedPage, at time.Time) []Page {
	out := make([]Page, 0, len(in))
	for _, p := range in {
		out = append(out, Page{
			ProjectID:      projectID,
			Name:           p.Name,
			Path:           p.Path,
			Code:           p.Code,
			SEOTitle:       p.SEOTitle,
			SEODescription: p.SEODescription,
			UpdatedAt:      at,
		})
	}
	return out
}
