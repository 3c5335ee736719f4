package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Slugify lowercases name and collapses every run of characters other than
// a-z and 0-9 into a single "-", trimming dashes at both ends.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// UniqueSlug returns Slugify(name), or the first of name-1, name-2, ...
// not already used by a project in s.
func UniqueSlug(ctx context.Context, s Store, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "project"
	}
	slug := base
	for i := 1; ; i++ {
		_, err := s.GetBySlug(ctx, slug)
		if errors.Is(err, ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// CreateWithUniqueSlug assigns a free slug to p and stores it. A concurrent
// create that claims the same slug is retried with the next candidate.
func CreateWithUniqueSlug(ctx context.Context, s Store, p Project) (Project, error) {
	for attempt := 0; attempt < 5; attempt++ {
		slug, err := UniqueSlug(ctx, s, p.Name)
		if err != nil {
			return Project{}, err
		}
		p.Slug = slug
		created, err := s.Create(ctx, p)
		if errors.Is(err, ErrSlugTaken) {
			continue
		}
		return created, err
	}
	return Project{}, ErrSlugTaken
}
