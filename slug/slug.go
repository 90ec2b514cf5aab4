// Package slug derives URL-safe article identifiers from titles.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// fallback is used when a title has no [a-z0-9] characters at all.
const fallback = "article"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lower-cases title, collapses every run of characters outside [a-z0-9]
// into a single hyphen and trims hyphens from both ends.
func Make(title string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fallback
	}
	return s
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Generator finds the first free slug for a title by probing base, base-1,
// base-2 and so on. Probing is not atomic with the insert that follows it,
// so callers still rely on the store's unique index and retry on conflict.
type Generator struct {
	exists ExistsFunc
	// MaxProbes bounds the number of candidates tried. Zero means unbounded.
	MaxProbes int
}

// NewGenerator returns a Generator that asks exists about each candidate.
func NewGenerator(exists ExistsFunc) *Generator {
	return &Generator{exists: exists}
}

// Unique returns the first candidate derived from title that is not taken.
func (g *Generator) Unique(ctx context.Context, title string) (string, error) {
	base := Make(title)
	candidate := base
	for n := 1; ; n++ {
		taken, err := g.exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		if g.MaxProbes > 0 && n >= g.MaxProbes {
			return "", fmt.Errorf("slug: no free candidate for %q after %d probes", base, n)
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
