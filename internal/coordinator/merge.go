package coordinator

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/chunkdoc/internal/chunker"
)

// chunkContext describes a chunk's place in its file for the generator.
func chunkContext(filePath string, ch chunker.Chunk) string {
	contains := "code"
	if len(ch.Elements) > 0 {
		contains = strings.Join(ch.Elements, ", ")
	}
	return fmt.Sprintf(`This is part of a larger file (%s).

**Chunk Information:**
- Chunk %d
- Lines: %s
- Type: %s
- Contains: %s

Generate documentation for this specific chunk. Focus on the functions/classes present.
`, filePath, ch.Ordinal+1, ch.Lines(), ch.Type, contains)
}

// Merge assembles results, which must be sorted by ordinal, into one
// document. It is a pure function of its inputs.
func Merge(filePath string, chunks []chunker.Chunk, results []ChunkResult) string {
	byOrdinal := make(map[int]chunker.Chunk, len(chunks))
	for _, ch := range chunks {
		byOrdinal[ch.Ordinal] = ch
	}

	parts := []string{
		"# Documentation: " + filePath,
		"",
		fmt.Sprintf("*This file was processed in %d chunks using boundary-aware chunking.*", len(chunks)),
		"",
	}
	for _, r := range results {
		ch := byOrdinal[r.Ordinal]
		parts = append(parts, fmt.Sprintf("## Chunk %d: Lines %s", r.Ordinal+1, ch.Lines()), "")
		if len(ch.Elements) > 0 {
			parts = append(parts, "*Contains: "+strings.Join(ch.Elements, ", ")+"*", "")
		}
		parts = append(parts, stripTitle(r.Documentation), "", "---", "")
	}
	return strings.Join(parts, "\n")
}

// stripTitle drops the first line when it is a top-level heading.
func stripTitle(doc string) string {
	lines := strings.Split(doc, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "# ") {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
