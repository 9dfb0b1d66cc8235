package walker

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
)

// sampleProject returns the absolute path of testdata/sample_project.
func sampleProject(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	dir, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "sample_project"))
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("testdata dir: %v", err)
	}
	return dir
}

// writeTree creates files (slash-separated relative paths) under a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func walk(t *testing.T, cfg WalkerConfig) []string {
	t.Helper()
	files, err := Walk(cfg)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	return relPaths(files)
}

func TestWalk_SampleProject(t *testing.T) {
	files, err := Walk(WalkerConfig{RootDir: sampleProject(t)})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	want := map[string]string{
		"main.go":            "Go",
		"config.yaml":        "YAML",
		"Dockerfile":         "Dockerfile",
		"utils.py":           "Python",
		"auth/middleware.go": "Go",
	}
	got := map[string]string{}
	for _, f := range files {
		got[f.RelPath] = f.Language
		if !filepath.IsAbs(f.Path) {
			t.Errorf("%s: Path %q is not absolute", f.RelPath, f.Path)
		}
		if f.Size <= 0 || f.Lines <= 0 {
			t.Errorf("%s: Size %d, Lines %d, want both > 0", f.RelPath, f.Size, f.Lines)
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			t.Fatal(err)
		}
		if f.Key != cache.FileKey(string(data)) {
			t.Errorf("%s: Key does not match the content", f.RelPath)
		}
	}
	for path, lang := range want {
		if got[path] != lang {
			t.Errorf("language of %q = %q, want %q", path, got[path], lang)
		}
	}
}

func TestWalk_Filters(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":              "package main\n",
		"main_test.go":         "package main\n",
		"pkg/util.go":          "package pkg\n",
		"pkg/util.py":          "x = 1\n",
		"tests/helpers.py":     "y = 2\n",
		"gen/api_gen.go":       "package gen\n",
		"notes.txt":            "not a language\n",
		"node_modules/a.js":    "a\n",
		"vendor/dep/dep.go":    "package dep\n",
		".git/hooks/x.sh":      "echo\n",
		"web/app.component.ts": "export {}\n",
	})

	tests := []struct {
		name string
		cfg  WalkerConfig
		want []string
	}{
		{
			name: "defaults",
			want: []string{"gen/api_gen.go", "main.go", "main_test.go", "pkg/util.go", "pkg/util.py", "tests/helpers.py", "web/app.component.ts"},
		},
		{
			name: "include",
			cfg:  WalkerConfig{Include: []string{"*.go"}},
			want: []string{"gen/api_gen.go", "main.go", "main_test.go", "pkg/util.go"},
		},
		{
			name: "exclude directory",
			cfg:  WalkerConfig{Include: []string{"**/*.go"}, Exclude: []string{"gen/**"}},
			want: []string{"main.go", "main_test.go", "pkg/util.go"},
		},
		{
			name: "languages",
			cfg:  WalkerConfig{Languages: []string{"python"}},
			want: []string{"pkg/util.py", "tests/helpers.py"},
		},
		{
			name: "skip tests",
			cfg:  WalkerConfig{SkipTests: true, Languages: []string{"go", "python"}},
			want: []string{"gen/api_gen.go", "main.go", "pkg/util.go", "pkg/util.py"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.RootDir = root
			got := walk(t, cfg)
			if !slices.Equal(got, tc.want) {
				t.Errorf("Walk() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWalk_SkipsBinaryAndLargeFiles(t *testing.T) {
	binary := string(append([]byte("package x\n"), 0, 1, 2))
	root := writeTree(t, map[string]string{
		"ok.go":     "package ok\n",
		"binary.go": binary,
		"big.go":    "package big\n// " + strings.Repeat("a", 120) + "\n",
	})

	got := walk(t, WalkerConfig{RootDir: root, MaxFileSize: 100})
	if !slices.Equal(got, []string{"ok.go"}) {
		t.Errorf("Walk() = %v, want [ok.go]", got)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":        "# build output\n*.log.go\n/secret.go\ntmp/\n!keep.go\n",
		"app.go":            "package main\n",
		"debug.log.go":      "package main\n",
		"sub/trace.log.go":  "package sub\n",
		"secret.go":         "package main\n",
		"sub/secret.go":     "package sub\n",
		"tmp/scratch.go":    "package tmp\n",
		"sub/tmp/deeper.go": "package tmp\n",
	})

	got := walk(t, WalkerConfig{RootDir: root, Languages: []string{"go"}})
	want := []string{"app.go", "sub/secret.go"}
	if !slices.Equal(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

func TestWalk_InvalidPattern(t *testing.T) {
	if _, err := Walk(WalkerConfig{RootDir: t.TempDir(), Exclude: []string{"{a,b"}}); err == nil {
		t.Error("Walk should reject an invalid exclude pattern")
	}
}

func TestGitignorePatterns(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(file, []byte("\n# c\n*.tmp\n/dist\nbuild/\ndocs/api\n!x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := gitignorePatterns(file)
	want := []string{"**/*.tmp", "**/*.tmp/**", "dist", "dist/**", "**/build/**", "docs/api", "docs/api/**"}
	if !slices.Equal(got, want) {
		t.Errorf("gitignorePatterns() = %v, want %v", got, want)
	}
	if gitignorePatterns(filepath.Join(dir, "missing")) != nil {
		t.Error("a missing .gitignore should yield no patterns")
	}
}

func TestCollect_FilesAndDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"one_test.py": "a = 1\nb = 2",
		"pkg/two.go":  "package pkg\n",
	})
	single := filepath.Join(root, "one_test.py")

	files, err := Collect([]string{single, filepath.Join(root, "pkg")}, WalkerConfig{SkipTests: true})
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Lines != 2 || files[0].Language != "Python" || !files[0].IsTest {
		t.Errorf("named test file should be kept with its metadata: %+v", files[0])
	}
	if files[0].Key != cache.FileKey("a = 1\nb = 2") {
		t.Errorf("Key = %s, want FileKey of content", files[0].Key)
	}
	if files[1].RelPath != "two.go" || files[1].Lines != 1 {
		t.Errorf("unexpected walked file info: %+v", files[1])
	}
}

func TestCollect_Rejects(t *testing.T) {
	root := writeTree(t, map[string]string{
		"notes.xyz": "hello",
		"blob.go":   "package x\x00",
	})
	for _, name := range []string{"notes.xyz", "blob.go", "missing.go"} {
		if _, err := Collect([]string{filepath.Join(root, name)}, WalkerConfig{}); err == nil {
			t.Errorf("Collect(%s) should fail", name)
		}
	}
}

func TestIsTestFile(t *testing.T) {
	tests := map[string]bool{
		"internal/walker/walker_test.go": true,
		"test_utils.py":                  true,
		"src/app.test.js":                true,
		"src/App.Spec.tsx":               true,
		"test/helper.go":                 true,
		"pkg/tests/fixtures.py":          true,
		"main.go":                        false,
		"utils.py":                       false,
		"contest/main.go":                false,
		"latest.go":                      false,
	}
	for rel, want := range tests {
		if got := isTestFile(rel); got != want {
			t.Errorf("isTestFile(%q) = %v, want %v", rel, got, want)
		}
	}
}

func TestCountLines(t *testing.T) {
	tests := map[string]int{"": 0, "a": 1, "a\n": 1, "a\nb": 2, "a\nb\n\n": 3}
	for in, want := range tests {
		if got := countLines([]byte(in)); got != want {
			t.Errorf("countLines(%q) = %d, want %d", in, got, want)
		}
	}
}

// --- Language detection ---

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "Go"},
		{"MAIN.GO", "Go"},
		{"app.py", "Python"},
		{"src/components/App.tsx", "TypeScript"},
		{"index.mjs", "JavaScript"},
		{"Main.java", "Java"},
		{"Main.kt", "Kotlin"},
		{"Program.cs", "C#"},
		{"lib.rs", "Rust"},
		{"util.h", "C"},
		{"main.cc", "C++"},
		{"app.rb", "Ruby"},
		{"index.php", "PHP"},
		{"script.sh", "Shell"},
		{"query.sql", "SQL"},
		{"style.scss", "CSS"},
		{"config.yml", "YAML"},
		{"main.tf", "Terraform"},
		{"README.md", "Markdown"},
		{"schema.proto", "Protobuf"},
		{"Page.svelte", "Svelte"},
		{"analysis.R", "R"},
		{"Dockerfile", "Dockerfile"},
		{"deploy/Dockerfile", "Dockerfile"},
		{"Makefile", "Makefile"},
		{"Jenkinsfile", "Groovy"},
		{"Gemfile", "Ruby"},
		{"noextension", Unknown},
		{"file.xyz", Unknown},
	}
	for _, tc := range tests {
		if got := DetectLanguage(tc.path); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestSupported(t *testing.T) {
	if Supported(Unknown, nil) || Supported("", nil) {
		t.Error("unknown languages should not be supported")
	}
	if !Supported("Go", nil) {
		t.Error("Go should be supported with no allow list")
	}
	if !Supported("Go", []string{"python", "go"}) {
		t.Error("allow list should match case-insensitively")
	}
	if Supported("Rust", []string{"go"}) {
		t.Error("Rust should not pass a Go-only allow list")
	}
}

func TestLanguages(t *testing.T) {
	names := Languages()
	if !slices.IsSorted(names) {
		t.Error("Languages() should be sorted")
	}
	if !slices.Contains(names, "Go") || !slices.Contains(names, "Dockerfile") {
		t.Errorf("Languages() = %v, missing Go or Dockerfile", names)
	}
	if !Known("python") || Known("cobol") {
		t.Error("Known should match recognised names case-insensitively")
	}
}

// --- Filter ---

func mustFilter(t *testing.T, include, exclude []string) *Filter {
	t.Helper()
	f, err := NewFilter(include, exclude)
	if err != nil {
		t.Fatalf("NewFilter() error: %v", err)
	}
	return f
}

func TestFilter_Keep(t *testing.T) {
	f := mustFilter(t, nil, nil)
	if !f.Keep("anything.go") || !f.Keep("deep/nested/file.py") {
		t.Error("empty patterns should keep everything")
	}

	f = mustFilter(t, []string{"*.go"}, []string{"*_gen.go", "internal/legacy/**"})
	tests := map[string]bool{
		"main.go":                true,
		"pkg/util/strings.go":    true,
		"main.py":                false,
		"api/types_gen.go":       false,
		"internal/legacy/old.go": false,
	}
	for rel, want := range tests {
		if got := f.Keep(rel); got != want {
			t.Errorf("Keep(%q) = %v, want %v", rel, got, want)
		}
	}
}

func TestFilter_SkipDir(t *testing.T) {
	f := mustFilter(t, nil, []string{"generated"})
	for _, dir := range []string{".git", "node_modules", "src/vendor", "generated"} {
		if !f.SkipDir(dir) {
			t.Errorf("SkipDir(%q) = false, want true", dir)
		}
	}
	if f.SkipDir("src") {
		t.Error("SkipDir(src) = true, want false")
	}
}

func TestNewFilter_InvalidPattern(t *testing.T) {
	if _, err := NewFilter([]string{"src/[a-"}, nil); err == nil {
		t.Error("expected an error for an unterminated character class")
	}
}
