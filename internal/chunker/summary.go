package chunker

// Summary describes a chunked file.
type Summary struct {
	TotalChunks  int            `json:"total_chunks"`
	TotalLines   int            `json:"total_lines"`
	AverageLines float64        `json:"average_chunk_lines"`
	Types        map[string]int `json:"chunk_types"`
	Chunks       []ChunkInfo    `json:"chunks"`
}

// ChunkInfo is the per-chunk part of a Summary.
type ChunkInfo struct {
	Ordinal  int      `json:"chunk_id"`
	Lines    string   `json:"lines"`
	Type     string   `json:"type"`
	Elements []string `json:"elements"`
}

// Summarize describes chunks. TotalLines is the last line covered, so
// overlapping lines are counted once.
func (c *Chunker) Summarize(chunks []Chunk) Summary {
	s := Summary{
		TotalChunks: len(chunks),
		Types:       make(map[string]int),
		Chunks:      make([]ChunkInfo, 0, len(chunks)),
	}
	if len(chunks) == 0 {
		return s
	}
	spanned := 0
	for _, ch := range chunks {
		spanned += ch.LineCount()
		s.Types[ch.Type]++
		if ch.EndLine > s.TotalLines {
			s.TotalLines = ch.EndLine
		}
		elements := ch.Elements
		if elements == nil {
			elements = []string{}
		}
		s.Chunks = append(s.Chunks, ChunkInfo{
			Ordinal:  ch.Ordinal,
			Lines:    ch.Lines(),
			Type:     ch.Type,
			Elements: elements,
		})
	}
	s.AverageLines = float64(spanned) / float64(len(chunks))
	return s
}
