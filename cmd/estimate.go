package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chunkdoc/internal/app"
	"github.com/ziadkadry99/chunkdoc/internal/config"
	"github.com/ziadkadry99/chunkdoc/internal/docgen"
	"github.com/ziadkadry99/chunkdoc/internal/walker"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [paths...]",
	Short: "Estimate API costs for generating documentation",
	Long:  `Counts chunks, checks which of them are already cached, and estimates the tokens and cost of documenting the rest without making any API calls.`,
	RunE:  runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := walker.Collect(args, walkerConfig(cfg))
	if err != nil {
		return fmt.Errorf("collecting files: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No files found to document.")
		return nil
	}

	a, err := openAppWith(ctx, cfg, app.Options{Offline: true})
	if err != nil {
		return err
	}
	defer a.Close()
	return printEstimates(ctx, a, cfg, files)
}

// printEstimates displays cost estimate results.
func printEstimates(ctx context.Context, a *app.App, cfg *config.Config, files []walker.FileInfo) error {
	var chunks, cached, tokens, chunkedFiles int
	cost := decimal.Zero
	for _, f := range files {
		path := docPath(f.Path, f.RelPath)
		content, err := os.ReadFile(f.Path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if len(content) == 0 {
			continue
		}
		est, err := a.Docs.Estimate(ctx, docgen.Request{FilePath: path, Content: string(content)})
		if err != nil {
			return fmt.Errorf("estimating %s: %w", path, err)
		}
		if verbose {
			fmt.Printf("  %-50s %4d chunks  %4d cached  ~%s\n", path, est.TotalChunks, est.CachedChunks, formatCost(est.EstimatedCost))
		}
		chunks += est.TotalChunks
		cached += est.CachedChunks
		tokens += est.EstimatedTokens
		cost = cost.Add(est.EstimatedCost)
		if est.Chunked {
			chunkedFiles++
		}
	}

	fmt.Println("Cost Estimate (dry run)")
	fmt.Println("=======================")
	fmt.Printf("  Files:               %d (%d chunked)\n", len(files), chunkedFiles)
	fmt.Printf("  Chunks:              %d (%d cached)\n", chunks, cached)
	fmt.Printf("  Estimated tokens:    %d\n", tokens)
	fmt.Printf("  Estimated total:     %s\n", formatCost(cost))
	fmt.Println()
	fmt.Printf("  Provider:            %s\n", cfg.Provider)
	fmt.Printf("  Model:               %s\n", cfg.Model)
	return nil
}
