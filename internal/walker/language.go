package walker

import (
	"path/filepath"
	"slices"
	"strings"
)

// Unknown is the language reported for files no entry recognises.
const Unknown = "unknown"

// Language is one entry of the recognised-language table.
type Language struct {
	Name       string
	Extensions []string // lower-case, with the leading dot
	Filenames  []string // exact base names, e.g. "Dockerfile"
}

var languages = []Language{
	{Name: "Go", Extensions: []string{".go"}},
	{Name: "Python", Extensions: []string{".py", ".pyi"}},
	{Name: "TypeScript", Extensions: []string{".ts", ".tsx", ".mts", ".cts"}},
	{Name: "JavaScript", Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}},
	{Name: "Java", Extensions: []string{".java"}},
	{Name: "Kotlin", Extensions: []string{".kt", ".kts"}},
	{Name: "Scala", Extensions: []string{".scala", ".sc"}},
	{Name: "C#", Extensions: []string{".cs"}},
	{Name: "C", Extensions: []string{".c", ".h"}},
	{Name: "C++", Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hxx"}},
	{Name: "Rust", Extensions: []string{".rs"}},
	{Name: "Swift", Extensions: []string{".swift"}},
	{Name: "Ruby", Extensions: []string{".rb"}, Filenames: []string{"Gemfile", "Rakefile", "Vagrantfile"}},
	{Name: "PHP", Extensions: []string{".php"}},
	{Name: "Dart", Extensions: []string{".dart"}},
	{Name: "Elixir", Extensions: []string{".ex", ".exs"}},
	{Name: "Haskell", Extensions: []string{".hs"}},
	{Name: "Lua", Extensions: []string{".lua"}},
	{Name: "Perl", Extensions: []string{".pl", ".pm"}},
	{Name: "R", Extensions: []string{".r"}},
	{Name: "Shell", Extensions: []string{".sh", ".bash", ".zsh"}},
	{Name: "SQL", Extensions: []string{".sql"}},
	{Name: "Protobuf", Extensions: []string{".proto"}},
	{Name: "Terraform", Extensions: []string{".tf", ".tfvars"}},
	{Name: "HTML", Extensions: []string{".html", ".htm"}},
	{Name: "CSS", Extensions: []string{".css", ".scss", ".sass", ".less"}},
	{Name: "Vue", Extensions: []string{".vue"}},
	{Name: "Svelte", Extensions: []string{".svelte"}},
	{Name: "YAML", Extensions: []string{".yaml", ".yml"}},
	{Name: "JSON", Extensions: []string{".json"}},
	{Name: "TOML", Extensions: []string{".toml"}},
	{Name: "Markdown", Extensions: []string{".md", ".markdown"}},
	{Name: "Dockerfile", Filenames: []string{"Dockerfile"}},
	{Name: "Makefile", Filenames: []string{"Makefile", "GNUmakefile"}},
	{Name: "Groovy", Extensions: []string{".groovy"}, Filenames: []string{"Jenkinsfile"}},
}

var (
	byExtension = map[string]string{}
	byFilename  = map[string]string{}
)

func init() {
	for _, l := range languages {
		for _, ext := range l.Extensions {
			byExtension[ext] = l.Name
		}
		for _, name := range l.Filenames {
			byFilename[name] = l.Name
		}
	}
}

// Languages returns the names of all recognised languages, sorted.
func Languages() []string {
	names := make([]string, 0, len(languages))
	for _, l := range languages {
		names = append(names, l.Name)
	}
	slices.Sort(names)
	return names
}

// Known reports whether name is a recognised language, ignoring case.
func Known(name string) bool {
	for _, l := range languages {
		if strings.EqualFold(l.Name, name) {
			return true
		}
	}
	return false
}

// Supported reports whether lang is a recognised language and, when allowed
// is non-empty, one of the allowed languages (compared case-insensitively).
func Supported(lang string, allowed []string) bool {
	if lang == Unknown || lang == "" {
		return false
	}
	return len(allowed) == 0 || slices.ContainsFunc(allowed, func(a string) bool {
		return strings.EqualFold(a, lang)
	})
}

// DetectLanguage names the language of path from its base name, falling back
// to the lower-cased extension. It returns Unknown when neither matches.
func DetectLanguage(path string) string {
	base := filepath.Base(path)
	if lang, ok := byFilename[base]; ok {
		return lang
	}
	if lang, ok := byExtension[strings.ToLower(filepath.Ext(base))]; ok {
		return lang
	}
	return Unknown
}
