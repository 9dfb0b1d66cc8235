package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chunkdoc/internal/app"
	"github.com/ziadkadry99/chunkdoc/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the documentation cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache backend, item count and status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, err := openApp(ctx, app.Options{Offline: true})
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.Cache.Stats(ctx)
		fmt.Printf("Backend:   %s\n", s.Identifier)
		fmt.Printf("Status:    %s\n", s.Status)
		fmt.Printf("Items:     %d\n", s.ItemCount)
		if s.Error != "" {
			fmt.Printf("Error:     %s\n", s.Error)
		}
		return nil
	},
}

var cacheGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a cache entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		key, err := cache.ParseKey(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(ctx, app.Options{Offline: true})
		if err != nil {
			return err
		}
		defer a.Close()

		e, ok := a.Cache.Lookup(ctx, key)
		if !ok {
			return fmt.Errorf("no live cache entry for %s", key)
		}
		if docOnly, _ := cmd.Flags().GetBool("doc"); docOnly {
			fmt.Println(e.Documentation)
			return nil
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	},
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove cache entries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		keys := make([]cache.Key, 0, len(args))
		for _, arg := range args {
			key, err := cache.ParseKey(arg)
			if err != nil {
				return err
			}
			keys = append(keys, key)
		}
		a, err := openApp(ctx, app.Options{Offline: true})
		if err != nil {
			return err
		}
		defer a.Close()

		for _, key := range keys {
			if err := a.Cache.Remove(ctx, key); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", key)
		}
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	Long:  `Deletes expired entries now instead of waiting for the periodic purge. DynamoDB expires items through its TTL attribute and needs no purge.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, err := openApp(ctx, app.Options{Offline: true})
		if err != nil {
			return err
		}
		defer a.Close()

		p, ok := a.Store.(cache.Purger)
		if !ok {
			fmt.Printf("The %s backend expires entries itself; nothing to purge.\n", a.Store.Name())
			return nil
		}
		n, err := p.PurgeExpired(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("purging %s cache: %w", a.Store.Name(), err)
		}
		fmt.Printf("Purged %d expired entries from the %s cache.\n", n, a.Store.Name())
		return nil
	},
}

func init() {
	cacheGetCmd.Flags().Bool("doc", false, "print only the documentation")
	cacheCmd.AddCommand(cacheStatsCmd, cacheGetCmd, cacheRmCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
