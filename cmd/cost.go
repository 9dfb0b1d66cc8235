package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chunkdoc/internal/app"
	"github.com/ziadkadry99/chunkdoc/internal/costlog"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show what documentation requests have cost",
	Long:  `Summarises the cost ledger over a period and lists the most recent requests.`,
	Args:  cobra.NoArgs,
	RunE:  runCost,
}

func init() {
	costCmd.Flags().Duration("since", costlog.DefaultSummaryWindow, "summarise requests newer than this")
	costCmd.Flags().String("file", "", "only show requests for this file path")
	costCmd.Flags().Int("limit", 20, "number of recent requests to list (0 hides the list)")
	costCmd.Flags().Duration("prune", 0, "delete ledger rows older than this before reporting")
	rootCmd.AddCommand(costCmd)
}

func runCost(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	since, _ := cmd.Flags().GetDuration("since")
	file, _ := cmd.Flags().GetString("file")
	limit, _ := cmd.Flags().GetInt("limit")
	prune, _ := cmd.Flags().GetDuration("prune")

	a, err := openApp(ctx, app.Options{Offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now().UTC()
	if prune > 0 {
		n, err := a.Ledger.DeleteBefore(ctx, now.Add(-prune))
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d ledger rows older than %s\n\n", n, prune)
	}

	from := now.Add(-since)
	sum, err := a.Ledger.Summary(ctx, from)
	if err != nil {
		return err
	}
	fmt.Printf("Cost Summary (since %s)\n", sum.Since.Format(time.DateTime))
	fmt.Println("==============================================")
	fmt.Printf("  Requests:          %d (%d served from cache)\n", sum.Requests, sum.CachedRequests)
	fmt.Printf("  Chunked requests:  %d\n", sum.ChunkedRequests)
	fmt.Printf("  Chunks:            %d (%d cache hits, %d failed)\n", sum.TotalChunks, sum.ChunkCacheHits, sum.FailedChunks)
	fmt.Printf("  Tokens:            %d\n", sum.TotalTokens)
	fmt.Printf("  Total cost:        %s\n", formatCost(sum.TotalCost))

	if limit <= 0 {
		return nil
	}
	records, err := a.Ledger.Query(ctx, costlog.Filter{FilePath: file, Since: &from, Limit: limit})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("  Recent requests:")
	for _, r := range records {
		state := "generated"
		if r.Cached {
			state = "cached"
		}
		chunks := "-"
		if r.Chunked {
			chunks = fmt.Sprintf("%d/%d", r.CacheHits, r.TotalChunks)
		}
		fmt.Printf("    %s  %-40s %-9s chunks %-7s %8d tok  %s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.FilePath, state, chunks, r.Tokens, formatCost(r.Cost))
	}
	return nil
}
