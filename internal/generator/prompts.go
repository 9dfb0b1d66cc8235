package generator

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/chunkdoc/internal/llm"
	"github.com/ziadkadry99/chunkdoc/internal/walker"
)

const systemPrompt = `You are a senior software engineer writing reference documentation for a codebase. Document the provided source code in Markdown. Be precise and factual. Do not invent details that are not present in the code.`

const documentPromptTemplate = `Write Markdown documentation for this %s code.

Start with a single top-level heading naming the file. Then cover:
- Overview: what the code does and its role
- Each function, method, class or type: purpose, parameters, return values, errors
- Important logic, side effects and dependencies
- A short usage example when the intent is not obvious

File path: %s
`

// buildMessages assembles the system and user messages for one request.
func buildMessages(req Request) []llm.Message {
	language := walker.DetectLanguage(stripLabel(req.FilePath))

	var b strings.Builder
	fmt.Fprintf(&b, documentPromptTemplate, language, req.FilePath)

	if req.Analysis != nil {
		b.WriteString("\nStatic analysis:\n")
		b.WriteString(req.Analysis.Describe())
	}
	if req.Context != "" {
		b.WriteString("\n")
		b.WriteString(req.Context)
		b.WriteString("\n")
	}

	fence := strings.ToLower(language)
	if language == walker.Unknown {
		fence = ""
	}
	fmt.Fprintf(&b, "\n```%s\n%s\n```\n", fence, req.Code)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}
}

// stripLabel removes a " (Chunk N)" annotation from a path label.
func stripLabel(label string) string {
	if i := strings.Index(label, " ("); i > 0 {
		return label[:i]
	}
	return label
}
