package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/chunkdoc/internal/app"
	"github.com/ziadkadry99/chunkdoc/internal/config"
	"github.com/ziadkadry99/chunkdoc/internal/docgen"
	"github.com/ziadkadry99/chunkdoc/internal/progress"
	"github.com/ziadkadry99/chunkdoc/internal/render"
	"github.com/ziadkadry99/chunkdoc/internal/walker"
)

var generateCmd = &cobra.Command{
	Use:   "generate [paths...]",
	Short: "Generate documentation for files or directories",
	Long: `Documents each file given on the command line, walking directories with the
configured include/exclude globs. Output is written to <output_dir>/<path>.md.
Unchanged files and chunks are served from the cache.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Bool("dry-run", false, "estimate costs without making API calls")
	generateCmd.Flags().Int("concurrency", 0, "max parallel LLM calls (overrides config)")
	generateCmd.Flags().String("languages", "", "comma-separated languages to document (overrides config)")
	generateCmd.Flags().Bool("html", false, "also write rendered HTML next to each Markdown file")
	generateCmd.Flags().Bool("quiet", false, "hide the progress bar")
	rootCmd.AddCommand(generateCmd)
}

// generateSummary totals a generate run.
type generateSummary struct {
	mu           sync.Mutex
	processed    int
	cached       int
	chunked      int
	failedChunks int
	failed       int
	tokens       int64
	cost         decimal.Decimal
	errors       []error
}

func (s *generateSummary) add(res *docgen.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	if res.Cached {
		s.cached++
	}
	if res.Chunked {
		s.chunked++
		s.failedChunks += res.Chunking.FailedChunks
	}
	s.tokens += res.TotalTokens
	s.cost = s.cost.Add(res.TotalCost)
}

func (s *generateSummary) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
	s.errors = append(s.errors, err)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override concurrency from flag if provided.
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency > 0 {
		cfg.MaxConcurrency = concurrency
	}
	if langs, _ := cmd.Flags().GetString("languages"); langs != "" {
		cfg.Languages = config.SplitList(langs)
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	writeHTML, _ := cmd.Flags().GetBool("html")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := walker.Collect(args, walkerConfig(cfg))
	if err != nil {
		return fmt.Errorf("collecting files: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Found %d files to process\n", len(files))
	}
	if len(files) == 0 {
		fmt.Println("No files found to document.")
		return nil
	}

	if dryRun {
		a, err := openAppWith(ctx, cfg, app.Options{Offline: true})
		if err != nil {
			return err
		}
		defer a.Close()
		return printEstimates(ctx, a, cfg, files)
	}

	reporter := progress.NewReporter(quiet || verbose)
	a, err := openAppWith(ctx, cfg, app.Options{OnProgress: reporter.Chunk})
	if err != nil {
		return err
	}
	defer a.Close()

	var renderer *render.Renderer
	if writeHTML {
		renderer = render.New()
	}

	summary := &generateSummary{}
	var done atomic.Int64
	reporter.Start(len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.MaxConcurrency, 1))
	for _, f := range files {
		g.Go(func() error {
			path := docPath(f.Path, f.RelPath)
			if err := generateFile(gctx, a, renderer, cfg.OutputDir, path, f.Path, summary); err != nil {
				summary.fail(fmt.Errorf("%s: %w", path, err))
			}
			reporter.Update(int(done.Add(1)), path)
			// Only cancellation stops the run; per-file failures are reported at the end.
			return ctx.Err()
		})
	}
	err = g.Wait()
	reporter.Finish()
	if err != nil {
		return fmt.Errorf("generation interrupted: %w", err)
	}

	fmt.Println()
	fmt.Println("Documentation generation complete!")
	fmt.Printf("  Files processed: %d\n", summary.processed)
	fmt.Printf("  Served from cache: %d\n", summary.cached)
	fmt.Printf("  Chunked files:   %d\n", summary.chunked)
	if summary.failedChunks > 0 {
		fmt.Printf("  Failed chunks:   %d\n", summary.failedChunks)
	}
	fmt.Printf("  Files failed:    %d\n", summary.failed)
	fmt.Printf("  Tokens used:     %d\n", summary.tokens)
	fmt.Printf("  Cost:            %s\n", formatCost(summary.cost))
	fmt.Printf("  Duration:        %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Output:          %s\n", cfg.OutputDir)

	if len(summary.errors) > 0 {
		fmt.Fprintf(os.Stderr, "\nWarnings (%d):\n", len(summary.errors))
		for _, e := range summary.errors {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
	}
	return nil
}

func generateFile(ctx context.Context, a *app.App, renderer *render.Renderer, outputDir, path, abs string, summary *generateSummary) error {
	content, err := os.ReadFile(abs)
	if err != nil {
		return err
	}
	if len(content) == 0 {
		return nil
	}
	res, err := a.Docs.Document(ctx, docgen.Request{FilePath: path, Content: string(content)})
	if err != nil {
		return err
	}
	summary.add(res)

	mdPath := outputFile(outputDir, path, ".md")
	if err := os.MkdirAll(filepath.Dir(mdPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(mdPath, []byte(res.Documentation), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mdPath, err)
	}
	if renderer == nil {
		return nil
	}
	page, err := renderer.Page(path, res.Documentation)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return os.WriteFile(outputFile(outputDir, path, ".html"), page, 0o644)
}

func walkerConfig(cfg *config.Config) walker.WalkerConfig {
	return walker.WalkerConfig{
		Include:   cfg.Include,
		Exclude:   append(append([]string{}, cfg.Exclude...), filepath.ToSlash(filepath.Clean(cfg.OutputDir))+"/**"),
		Languages: cfg.Languages,
		SkipTests: cfg.SkipTests,
	}
}
