package scan

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// ExcludeFilter matches candidate paths against a set of glob patterns.
// Patterns are interpreted relative to baseDir (normally the process working
// directory), so "build/*" excludes build/ under where the user invoked the
// tool, not under every scanned subtree. Matching happens before any stat or
// hash I/O on the candidate.
type ExcludeFilter struct {
	baseDir  string
	patterns []glob.Glob
}

// NewExcludeFilter compiles patterns with '/' as the separator. An empty
// pattern list yields a filter that matches nothing. Returns an error for a
// malformed pattern.
func NewExcludeFilter(baseDir string, patterns []string) (*ExcludeFilter, error) {
	f := &ExcludeFilter{baseDir: baseDir}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

// Match reports whether path is excluded. Both the path relative to baseDir
// and the entry's base name are tested, so "*.tmp" excludes temp files at any
// depth.
func (f *ExcludeFilter) Match(path string) bool {
	if f == nil || len(f.patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(f.baseDir, path)
	if err != nil {
		rel = path
	}
	name := filepath.Base(path)
	for _, g := range f.patterns {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}
