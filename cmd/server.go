package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chunkdoc/internal/app"
	"github.com/ziadkadry99/chunkdoc/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the documentation HTTP API",
	Long:  `Starts the chunkdoc HTTP API: document files, estimate costs, inspect the cache and query the cost ledger.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort > 0 {
			cfg.Server.Port = serverPort
		}

		logger := newLogger(os.Stderr)
		a, err := openAppWith(ctx, cfg, app.Options{Logger: logger})
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			AllowAll:       cfg.Server.AllowAllOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
		}, a.Docs, a.Cache, a.Ledger, logger)

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown", "error", err)
			}
		}()

		fmt.Fprintf(os.Stderr, "chunkdoc server %s starting on port %d\n", buildVersion(), cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Cache backend: %s\n", a.Store.Name())
		fmt.Fprintf(os.Stderr, "  Database: %s\n", a.DB.Path())
		fmt.Fprintf(os.Stderr, "  Model: %s (%s)\n", cfg.Model, cfg.Provider)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
