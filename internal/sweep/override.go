package sweep

import (
	"fmt"

	"github.com/gobwas/glob"
)

// overrideMatcher holds compiled override globs.
type overrideMatcher struct {
	globs []glob.Glob
}

func newOverrideMatcher(patterns []string) (*overrideMatcher, error) {
	matcher := &overrideMatcher{}

	for _, pattern := range patterns {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid override pattern %q: %w", pattern, err)
		}

		matcher.globs = append(matcher.globs, compiled)
	}

	return matcher, nil
}

// Match reports whether any override pattern matches the slug.
func (m *overrideMatcher) Match(repoSlug string) bool {
	for _, g := range m.globs {
		if g.Match(repoSlug) {
			return true
		}
	}

	return false
}
