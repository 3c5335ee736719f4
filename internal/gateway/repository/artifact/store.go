package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store persists generated page code. Objects are addressed by a project
// prefix and a relative path; VersionPath builds the conventional layout.
type Store interface {
	Put(ctx context.Context, projectID, path string, content []byte) error
	Get(ctx context.Context, projectID, path string) ([]byte, error)
	List(ctx context.Context, projectID string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

// VersionPath is the object path of a page inside a project version, e.g.
// "v3/index.tsx" for "/" or "v3/about.tsx" for "/about".
func VersionPath(version int, pagePath string) string {
	p := strings.Trim(strings.TrimSpace(pagePath), "/")
	if p == "" {
		p = "index"
	}
	return fmt.Sprintf("v%d/%s.tsx", version, p)
}

func objectKey(projectID, path string) string {
	return strings.TrimSpace(projectID) + "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
}

func validate(projectID, path string) error {
	if strings.TrimSpace(projectID) == "" {
		return fmt.Errorf("project_id is required")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
