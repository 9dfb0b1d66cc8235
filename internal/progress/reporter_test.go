package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ziadkadry99/chunkdoc/internal/coordinator"
)

func TestCIReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}

	r.Start(2)
	r.Update(1, "main.go")
	r.Chunk(coordinator.Progress{FilePath: "main.go", Done: 1, Total: 3, Ordinal: 2, Cached: true})
	r.Chunk(coordinator.Progress{FilePath: "main.go", Done: 2, Total: 3, Ordinal: 0, Failed: true})
	r.Chunk(coordinator.Progress{FilePath: "main.go", Done: 3, Total: 3, Ordinal: 1})
	r.Finish()

	want := []string{
		"Starting documentation generation for 2 files",
		"[1/2] main.go",
		"    main.go chunk 3 (1/3) cached",
		"    main.go chunk 1 (2/3) failed",
		"    main.go chunk 2 (3/3) generated",
		"Documentation generation complete",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewReporter(t *testing.T) {
	if _, ok := NewReporter(true).(Discard); !ok {
		t.Error("quiet reporter should discard")
	}

	t.Setenv("CI", "true")
	if _, ok := NewReporter(false).(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}

	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	if _, ok := NewReporter(false).(*TerminalReporter); !ok {
		t.Error("expected TerminalReporter outside CI")
	}
}

func TestTerminalReporterChunkBeforeStart(t *testing.T) {
	r := &TerminalReporter{}
	// No bar yet; must not panic.
	r.Chunk(coordinator.Progress{Done: 1, Total: 2})
	r.Update(1, "a.go")
	r.Finish()
}
