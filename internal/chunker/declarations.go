package chunker

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"sort"
	"strings"

	"github.com/ziadkadry99/chunkdoc/internal/walker"
)

// Declaration kinds.
const (
	KindFunction = "function"
	KindMethod   = "method"
	KindClass    = "class"
)

// Declaration is a named top-level or nested definition found in a file.
type Declaration struct {
	Name string
	Kind string
	Line int // 1-based line the declaration (or its doc comment) starts on
}

type pattern struct {
	re   *regexp.Regexp
	kind string
}

var (
	goPatterns = []pattern{
		{regexp.MustCompile(`^func\s+\([^)]*\)\s*(\w+)`), KindMethod},
		{regexp.MustCompile(`^func\s+(\w+)`), KindFunction},
		{regexp.MustCompile(`^type\s+(\w+)`), KindClass},
	}
	pythonPatterns = []pattern{
		{regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)`), KindFunction},
		{regexp.MustCompile(`^\s*class\s+(\w+)`), KindClass},
	}
	jsPatterns = []pattern{
		{regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)`), KindFunction},
		{regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s*)?(?:\([^)]*\)|\w+)\s*=>`), KindFunction},
		{regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?(?:class|interface)\s+(\w+)`), KindClass},
	}
	jvmPatterns = []pattern{
		{regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|abstract|final|static|sealed|partial|data|open)\s+)*(?:class|interface|enum|record|object)\s+(\w+)`), KindClass},
		{regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|override|suspend|inline|open)\s+)*fun\s+(?:<[^>]+>\s*)?(?:[\w.]+\.)?(\w+)\s*\(`), KindFunction},
		{regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|final|abstract|synchronized|override|virtual|async)\s+)+[\w<>\[\],.?]+\s+(\w+)\s*\(`), KindMethod},
	}
	rubyPatterns = []pattern{
		{regexp.MustCompile(`^\s*def\s+(?:self\.)?(\w+[?!=]?)`), KindFunction},
		{regexp.MustCompile(`^\s*(?:class|module)\s+([\w:]+)`), KindClass},
	}
	rustPatterns = []pattern{
		{regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+(\w+)`), KindFunction},
		{regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+(\w+)`), KindClass},
		{regexp.MustCompile(`^\s*impl(?:<[^>]*>)?\s+(?:[\w:<>]+\s+for\s+)?(\w+)`), KindClass},
	}
	phpPatterns = []pattern{
		{regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|abstract|final)\s+)*function\s+(\w+)`), KindFunction},
		{regexp.MustCompile(`^\s*(?:(?:abstract|final)\s+)?(?:class|interface|trait)\s+(\w+)`), KindClass},
	}
)

var languagePatterns = map[string][]pattern{
	"Go":         goPatterns,
	"Python":     pythonPatterns,
	"JavaScript": jsPatterns,
	"TypeScript": jsPatterns,
	"Java":       jvmPatterns,
	"Kotlin":     jvmPatterns,
	"C#":         jvmPatterns,
	"Scala":      jvmPatterns,
	"Ruby":       rubyPatterns,
	"Rust":       rustPatterns,
	"PHP":        phpPatterns,
}

// Declarations returns the declarations found in content, ordered by
// line. Go files are parsed; other languages are matched line by line.
// Unsupported languages yield no declarations.
func Declarations(path, content string) []Declaration {
	lang := walker.DetectLanguage(path)
	if lang == "Go" {
		if decls, ok := goDeclarations(path, content); ok {
			return decls
		}
	}
	patterns, ok := languagePatterns[lang]
	if !ok {
		return nil
	}
	return matchDeclarations(content, patterns)
}

func matchDeclarations(content string, patterns []pattern) []Declaration {
	var decls []Declaration
	for i, line := range splitLines(content) {
		for _, p := range patterns {
			if m := p.re.FindStringSubmatch(line); m != nil {
				decls = append(decls, Declaration{Name: m[1], Kind: p.kind, Line: i + 1})
				break
			}
		}
	}
	return decls
}

// goDeclarations parses a Go file. It reports false when the file does not
// parse, so the caller can fall back to pattern matching.
func goDeclarations(path, content string) ([]Declaration, bool) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, content, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, false
	}

	var decls []Declaration
	startLine := func(node ast.Node, doc *ast.CommentGroup) int {
		if doc != nil {
			return fset.Position(doc.Pos()).Line
		}
		return fset.Position(node.Pos()).Line
	}
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			kind, name := KindFunction, d.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				kind = KindMethod
				if recv := receiverName(d.Recv.List[0].Type); recv != "" {
					name = recv + "." + name
				}
			}
			decls = append(decls, Declaration{Name: name, Kind: kind, Line: startLine(d, d.Doc)})
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				line := startLine(d, d.Doc)
				if d.Lparen.IsValid() {
					line = startLine(ts, ts.Doc)
				}
				decls = append(decls, Declaration{Name: ts.Name.Name, Kind: KindClass, Line: line})
			}
		}
	}
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].Line < decls[j].Line })
	return decls, true
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	default:
		return ""
	}
}

// Analysis is a lightweight structural description of a whole file.
type Analysis struct {
	Language  string   `json:"language"`
	Lines     int      `json:"lines"`
	Functions []string `json:"functions"`
	Classes   []string `json:"classes"`
}

// Analyze describes content without splitting it.
func Analyze(path, content string) *Analysis {
	a := &Analysis{
		Language:  walker.DetectLanguage(path),
		Lines:     len(splitLines(content)),
		Functions: []string{},
		Classes:   []string{},
	}
	for _, d := range Declarations(path, content) {
		if d.Kind == KindClass {
			a.Classes = append(a.Classes, d.Name)
		} else {
			a.Functions = append(a.Functions, d.Name)
		}
	}
	return a
}

// Map returns the analysis as a metadata-friendly map.
func (a *Analysis) Map() map[string]any {
	return map[string]any{
		"language":  a.Language,
		"lines":     a.Lines,
		"functions": toAny(a.Functions),
		"classes":   toAny(a.Classes),
	}
}

// Describe renders the analysis as prompt text.
func (a *Analysis) Describe() string {
	var b strings.Builder
	b.WriteString("Language: " + a.Language + "\n")
	if len(a.Functions) > 0 {
		b.WriteString("Functions: " + strings.Join(a.Functions, ", ") + "\n")
	}
	if len(a.Classes) > 0 {
		b.WriteString("Types/Classes: " + strings.Join(a.Classes, ", ") + "\n")
	}
	return b.String()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
