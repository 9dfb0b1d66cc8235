// Package chunker splits large source files into overlapping, line-based
// chunks whose edges prefer declaration boundaries.
package chunker

import (
	"fmt"
	"sort"
	"strings"
)

// Default chunking limits, in lines.
const (
	DefaultMaxChunkLines = 1000
	DefaultMinChunkLines = 300
	DefaultOverlapLines  = 50
)

// Chunk types.
const (
	TypeFunction = "function"
	TypeClass    = "class"
	TypeMixed    = "mixed"
	TypeModule   = "module"
)

// Options bounds chunk sizes.
type Options struct {
	MaxChunkLines int
	MinChunkLines int
	OverlapLines  int
}

// DefaultOptions returns the default chunking limits.
func DefaultOptions() Options {
	return Options{
		MaxChunkLines: DefaultMaxChunkLines,
		MinChunkLines: DefaultMinChunkLines,
		OverlapLines:  DefaultOverlapLines,
	}
}

// Validate checks that the limits describe a chunking that always makes
// progress.
func (o Options) Validate() error {
	if o.MaxChunkLines <= 0 {
		return fmt.Errorf("max_chunk_lines must be positive, got %d", o.MaxChunkLines)
	}
	if o.MinChunkLines < 0 || o.MinChunkLines >= o.MaxChunkLines {
		return fmt.Errorf("min_chunk_lines must be in [0, %d), got %d", o.MaxChunkLines, o.MinChunkLines)
	}
	if o.OverlapLines < 0 || o.OverlapLines >= o.MaxChunkLines {
		return fmt.Errorf("overlap_lines must be in [0, %d), got %d", o.MaxChunkLines, o.OverlapLines)
	}
	return nil
}

// Chunk is one contiguous span of a file.
type Chunk struct {
	Ordinal   int      `json:"ordinal"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Type      string   `json:"type"`
	Elements  []string `json:"elements,omitempty"`
	Content   string   `json:"-"`
}

// Lines formats the chunk's line range as "start-end".
func (c Chunk) Lines() string {
	return fmt.Sprintf("%d-%d", c.StartLine, c.EndLine)
}

// LineCount returns the number of lines the chunk spans.
func (c Chunk) LineCount() int {
	return c.EndLine - c.StartLine + 1
}

// Chunker splits files according to its Options. It is safe for
// concurrent use.
type Chunker struct {
	opts Options
}

// New creates a Chunker. A zero Options means DefaultOptions.
func New(opts Options) (*Chunker, error) {
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	return &Chunker{opts: opts}, nil
}

// Options returns the limits in effect.
func (c *Chunker) Options() Options { return c.opts }

// ShouldChunk reports whether content is longer than one chunk.
func (c *Chunker) ShouldChunk(content string) bool {
	return len(splitLines(content)) > c.opts.MaxChunkLines
}

// ChunkFile splits content into chunks with contiguous ordinals starting
// at zero. A chunk ends just before the last declaration that keeps it
// longer than MinChunkLines and no longer than MaxChunkLines; without such
// a declaration it ends at MaxChunkLines. Each following chunk starts
// OverlapLines before the previous end.
func (c *Chunker) ChunkFile(path, content string) []Chunk {
	lines := splitLines(content)
	n := len(lines)
	if n == 0 {
		return nil
	}

	decls := Declarations(path, content)
	starts := make([]int, 0, len(decls))
	for _, d := range decls {
		starts = append(starts, d.Line)
	}

	var chunks []Chunk
	start := 1
	for {
		end := start + c.opts.MaxChunkLines - 1
		if end >= n {
			end = n
		} else if b := lastBoundary(starts, start+c.opts.MinChunkLines+1, start+c.opts.MaxChunkLines); b > 0 {
			end = b - 1
		}

		chunks = append(chunks, newChunk(len(chunks), start, end, lines, decls))
		if end == n {
			break
		}
		next := end + 1 - c.opts.OverlapLines
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// lastBoundary returns the greatest declaration line in [lo, hi], or 0.
func lastBoundary(starts []int, lo, hi int) int {
	i := sort.SearchInts(starts, hi+1) - 1
	if i >= 0 && starts[i] >= lo {
		return starts[i]
	}
	return 0
}

func newChunk(ordinal, start, end int, lines []string, decls []Declaration) Chunk {
	var (
		elements []string
		seen     = make(map[string]bool)
		funcs    bool
		classes  bool
	)
	for _, d := range decls {
		if d.Line < start || d.Line > end {
			continue
		}
		if d.Kind == KindClass {
			classes = true
		} else {
			funcs = true
		}
		if !seen[d.Name] {
			seen[d.Name] = true
			elements = append(elements, d.Name)
		}
	}

	typ := TypeModule
	switch {
	case funcs && classes:
		typ = TypeMixed
	case classes:
		typ = TypeClass
	case funcs:
		typ = TypeFunction
	}

	return Chunk{
		Ordinal:   ordinal,
		StartLine: start,
		EndLine:   end,
		Type:      typ,
		Elements:  elements,
		Content:   strings.Join(lines[start-1:end], "\n"),
	}
}

// splitLines splits content on newlines, ignoring one trailing newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
