// Package walker finds the source files a documentation run should cover.
package walker

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
)

// DefaultMaxFileSize is the maximum file size to process (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// sniffLen is how much of a file is checked for NUL bytes.
const sniffLen = 512

// FileInfo holds metadata about a single file discovered during traversal.
type FileInfo struct {
	Path     string    // Absolute path on disk.
	RelPath  string    // Slash-separated path relative to the walked root.
	Size     int64     // File size in bytes.
	Lines    int       // Number of lines in the file.
	Language string    // Detected language.
	Key      cache.Key // Whole-file cache key of the content.
	IsTest   bool      // Whether the file appears to be a test file.
}

// WalkerConfig controls Walk and Collect.
type WalkerConfig struct {
	RootDir     string   // Root directory to walk.
	Include     []string // Doublestar globs; only matching files are kept.
	Exclude     []string // Doublestar globs; matching files and directories are dropped.
	Languages   []string // Languages to keep (empty = all recognised ones).
	SkipTests   bool     // Drop files that look like tests.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

func (c WalkerConfig) maxFileSize() int64 {
	if c.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return c.MaxFileSize
}

// Walk returns every file under config.RootDir that passes the filters, in
// lexical order. Patterns from a .gitignore at the root are added to the
// excludes. Unreadable entries, binary files and oversized files are skipped
// silently.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}

	filter, err := NewFilter(config.Include, config.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	// Already root-relative; NewFilter would unanchor single-segment entries.
	filter.exclude = append(filter.exclude, gitignorePatterns(filepath.Join(root, ".gitignore"))...)

	var files []FileInfo
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if rel != "." && filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !filter.Keep(rel) {
			return nil
		}
		if f, ok := inspect(p, rel, config); ok {
			files = append(files, f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}
	return files, nil
}

// inspect applies the per-file checks and reads the file.
func inspect(abs, rel string, config WalkerConfig) (FileInfo, bool) {
	lang := DetectLanguage(rel)
	if !Supported(lang, config.Languages) {
		return FileInfo{}, false
	}
	isTest := isTestFile(rel)
	if isTest && config.SkipTests {
		return FileInfo{}, false
	}
	st, err := os.Stat(abs)
	if err != nil || st.Size() > config.maxFileSize() {
		return FileInfo{}, false
	}
	data, err := os.ReadFile(abs)
	if err != nil || isBinary(data) {
		return FileInfo{}, false
	}
	return FileInfo{
		Path:     abs,
		RelPath:  filepath.ToSlash(rel),
		Size:     st.Size(),
		Lines:    countLines(data),
		Language: lang,
		Key:      cache.FileKey(string(data)),
		IsTest:   isTest,
	}, true
}

// Collect resolves command-line arguments into files. Directories are walked
// with config (RootDir is replaced by each directory). Plain files are kept
// with RelPath equal to the cleaned argument. Unlike Walk, Collect reports a
// named file it cannot document as an error.
func Collect(paths []string, config WalkerConfig) ([]FileInfo, error) {
	var out []FileInfo
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("walker: %w", err)
		}
		if st.IsDir() {
			cfg := config
			cfg.RootDir = p
			files, err := Walk(cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}

		if lang := DetectLanguage(p); !Supported(lang, config.Languages) {
			return nil, fmt.Errorf("walker: %s: unsupported language %q", p, lang)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("walker: resolve %s: %w", p, err)
		}
		cfg := config
		cfg.SkipTests = false
		cfg.MaxFileSize = max(st.Size(), config.maxFileSize())
		f, ok := inspect(abs, filepath.Clean(p), cfg)
		if !ok {
			return nil, fmt.Errorf("walker: %s: unreadable or binary", p)
		}
		out = append(out, f)
	}
	return out, nil
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), sniffLen)], 0) >= 0
}

func countLines(data []byte) int {
	n := bytes.Count(data, []byte{'\n'})
	if len(data) > 0 && data[len(data)-1] != '\n' {
		n++
	}
	return n
}

var testSuffixes = []string{
	"_test.go", "_test.py",
	".test.js", ".test.ts", ".test.tsx", ".spec.js", ".spec.ts", ".spec.tsx",
}

// isTestFile reports whether rel names a test file by its base name or
// because it sits under a test/ or tests/ directory.
func isTestFile(rel string) bool {
	lower := strings.ToLower(filepath.ToSlash(rel))
	base := path.Base(lower)
	if strings.HasPrefix(base, "test_") {
		return true
	}
	for _, s := range testSuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	for _, dir := range strings.Split(path.Dir(lower), "/") {
		if dir == "test" || dir == "tests" {
			return true
		}
	}
	return false
}

// gitignorePatterns translates the simple forms of .gitignore lines into
// doublestar globs: "name" matches at any depth, a leading "/" anchors to the
// root and a trailing "/" matches directories. Negations and lines that are
// not valid globs are dropped.
func gitignorePatterns(file string) []string {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		dirOnly := strings.HasSuffix(line, "/")
		line = strings.TrimSuffix(line, "/")
		anchored := strings.Contains(line, "/")
		line = strings.TrimPrefix(line, "/")
		if !anchored {
			line = "**/" + line
		}
		if !doublestar.ValidatePattern(line) {
			continue
		}
		if dirOnly {
			out = append(out, line+"/**")
			continue
		}
		out = append(out, line, line+"/**")
	}
	return out
}
