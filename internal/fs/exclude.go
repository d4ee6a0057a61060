package fs

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Excluder checks descendant paths against the configured exclusions: literal
// canonical paths, full-path globs, and filename globs matched against the
// final component only. An Excluder is immutable once constructed and safe
// for concurrent use. Exclusions never apply to the root of a walk.
type Excluder struct {
	paths         map[string]struct{}
	pathGlobs     []string
	filenameGlobs []string
}

// NewExcluder builds an Excluder from raw exclusion strings. Literal paths
// are canonicalized; globs are validated up front so a bad pattern fails the
// run instead of being silently skipped.
func NewExcluder(paths, pathGlobs, filenameGlobs []string) (*Excluder, error) {
	e := &Excluder{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		canonical, err := Canonicalize(p)
		if err != nil {
			return nil, fmt.Errorf("exclude path %q: %w", p, err)
		}
		e.paths[canonical] = struct{}{}
	}
	for _, g := range pathGlobs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid exclude path glob %q", g)
		}
		e.pathGlobs = append(e.pathGlobs, g)
	}
	for _, g := range filenameGlobs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid exclude filename glob %q", g)
		}
		e.filenameGlobs = append(e.filenameGlobs, g)
	}
	return e, nil
}

// Empty reports whether no exclusions are configured.
func (e *Excluder) Empty() bool {
	return len(e.paths) == 0 && len(e.pathGlobs) == 0 && len(e.filenameGlobs) == 0
}

// Excluded reports whether the given canonical path matches any configured
// exclusion.
func (e *Excluder) Excluded(path string) bool {
	if _, ok := e.paths[path]; ok {
		return true
	}
	slashPath := filepath.ToSlash(path)
	for _, g := range e.pathGlobs {
		if ok, _ := doublestar.Match(g, slashPath); ok {
			return true
		}
	}
	if len(e.filenameGlobs) > 0 {
		filename := filepath.Base(path)
		for _, g := range e.filenameGlobs {
			if ok, _ := doublestar.Match(g, filename); ok {
				return true
			}
		}
	}
	return false
}
