package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/ziadkadry99/chunkdoc/internal/coordinator"
)

// Reporter provides progress feedback during documentation generation.
// Chunk may be called from several goroutines at once.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Chunk(p coordinator.Progress)
	Finish()
}

// NewReporter returns a TerminalReporter if running in an interactive terminal,
// or a CIReporter if the CI environment variable is set. Quiet discards
// everything.
func NewReporter(quiet bool) Reporter {
	if quiet {
		return Discard{}
	}
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr}
	}
	return &TerminalReporter{}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	current int
	message string
}

func (r *TerminalReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Generating docs"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current, r.message = current, message
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Set(current)
	}
}

// Chunk appends the chunk count of the file in flight to the bar's
// description.
func (r *TerminalReporter) Chunk(p coordinator.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		return
	}
	r.bar.Describe(fmt.Sprintf("%s [chunk %d/%d]", r.message, p.Done, p.Total))
}

func (r *TerminalReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	Out   io.Writer
	mu    sync.Mutex
	total int
}

func (r *CIReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	fmt.Fprintf(r.Out, "Starting documentation generation for %d files\n", total)
}

func (r *CIReporter) Update(current int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.Out, "[%d/%d] %s\n", current, r.total, message)
}

func (r *CIReporter) Chunk(p coordinator.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := "generated"
	switch {
	case p.Failed:
		state = "failed"
	case p.Cached:
		state = "cached"
	}
	fmt.Fprintf(r.Out, "    %s chunk %d (%d/%d) %s\n", p.FilePath, p.Ordinal+1, p.Done, p.Total, state)
}

func (r *CIReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.Out, "Documentation generation complete")
}

// Discard ignores all progress.
type Discard struct{}

func (Discard) Start(int)                  {}
func (Discard) Update(int, string)         {}
func (Discard) Chunk(coordinator.Progress) {}
func (Discard) Finish()                    {}
