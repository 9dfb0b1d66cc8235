package walker

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skipDirs are directory names never descended into, whatever the patterns.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".chunkdoc":    true,
	".idea":        true,
	".vscode":      true,
	".venv":        true,
	".next":        true,
	"__pycache__":  true,
	"node_modules": true,
	"vendor":       true,
}

// Filter selects paths by doublestar include and exclude globs matched
// against slash-separated relative paths. As in .gitignore, a pattern without
// a slash matches at any depth, so "*.go" behaves like "**/*.go".
type Filter struct {
	include []string
	exclude []string
}

// NewFilter validates the patterns. An empty include list keeps everything.
func NewFilter(include, exclude []string) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.include, err = normalizePatterns(include); err != nil {
		return nil, fmt.Errorf("include: %w", err)
	}
	if f.exclude, err = normalizePatterns(exclude); err != nil {
		return nil, fmt.Errorf("exclude: %w", err)
	}
	return f, nil
}

func normalizePatterns(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob %q", p)
		}
		if !strings.Contains(p, "/") && !strings.HasPrefix(p, "**") {
			p = "**/" + p
		}
		out = append(out, p)
	}
	return out, nil
}

// Keep reports whether the file at relPath passes both pattern lists.
func (f *Filter) Keep(relPath string) bool {
	rel := filepath.ToSlash(relPath)
	if len(f.include) > 0 && !matchAny(f.include, rel) {
		return false
	}
	return !matchAny(f.exclude, rel)
}

// SkipDir reports whether a directory can be pruned: its name is in the
// fixed skip list or the directory itself matches an exclude pattern.
func (f *Filter) SkipDir(relDir string) bool {
	rel := filepath.ToSlash(relDir)
	if skipDirs[path.Base(rel)] {
		return true
	}
	return rel != "." && matchAny(f.exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
