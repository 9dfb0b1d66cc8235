// Package render turns generated Markdown documentation into HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md   goldmark.Markdown
	page *template.Template
}

// New creates a Renderer with GFM and syntax highlighting enabled.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		// Chunk error markers are HTML comments and must survive rendering.
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Renderer{
		md:   md,
		page: template.Must(template.New("page").Parse(pageTemplate)),
	}
}

// Fragment renders markdown to an HTML fragment.
func (r *Renderer) Fragment(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

type pageData struct {
	Title   string
	Content template.HTML
}

// Page renders markdown as a standalone HTML document. The title is taken
// from the first top-level heading, or from path when there is none.
func (r *Renderer) Page(path, markdown string) ([]byte, error) {
	frag, err := r.Fragment(markdown)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = r.page.Execute(&buf, pageData{
		Title:   Title(markdown, path),
		Content: template.HTML(frag),
	})
	if err != nil {
		return nil, fmt.Errorf("executing page template: %w", err)
	}
	return buf.Bytes(), nil
}

// Title returns the text of the first "# " heading, or the base name of
// path without its extension.
func Title(markdown, path string) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #1f2328; }
    pre { padding: 1rem; overflow: auto; border-radius: 6px; }
    code { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 0.9em; }
    table { border-collapse: collapse; }
    th, td { border: 1px solid #d0d7de; padding: 0.4rem 0.8rem; }
    hr { border: 0; border-top: 1px solid #d0d7de; margin: 2rem 0; }
  </style>
</head>
<body>
<main>
{{.Content}}
</main>
</body>
</html>
`
