package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/ziadkadry99/chunkdoc/internal/app"
	"github.com/ziadkadry99/chunkdoc/internal/config"
)

// newLogger builds the process logger. Logs always go to w (stderr) so
// stdout stays free for command output and the MCP protocol.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if logJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `chunkdoc init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openApp loads the config and wires the application.
func openApp(ctx context.Context, opts app.Options) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openAppWith(ctx, cfg, opts)
}

func openAppWith(ctx context.Context, cfg *config.Config, opts app.Options) (*app.App, error) {
	if opts.Logger == nil {
		opts.Logger = newLogger(os.Stderr)
	}
	return app.New(ctx, cfg, opts)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// docPath names a file in requests and output: relative to the working
// directory when it lies below it, otherwise as walked.
func docPath(abs, rel string) string {
	wd, err := os.Getwd()
	if err != nil {
		return rel
	}
	r, err := filepath.Rel(wd, abs)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return rel
	}
	return filepath.ToSlash(r)
}

// outputFile is where the documentation of path is written.
func outputFile(outputDir, path, ext string) string {
	return filepath.Join(outputDir, filepath.FromSlash(path)+ext)
}

func formatCost(d decimal.Decimal) string {
	return "$" + d.StringFixed(4)
}
