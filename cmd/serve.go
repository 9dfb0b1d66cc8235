package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chunkdoc/internal/app"
	mcpserver "github.com/ziadkadry99/chunkdoc/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing documentation, cost estimate and cache tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		// Stdout carries the protocol; everything else goes to stderr.
		a, err := openApp(ctx, app.Options{Logger: newLogger(os.Stderr)})
		if err != nil {
			return err
		}
		defer a.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = buildVersion()

		fmt.Fprintf(os.Stderr, "chunkdoc MCP server started on stdio (docs=%s, cache=%s)\n", a.Config.OutputDir, a.Store.Name())

		srv := mcpserver.NewServer(a.Docs, a.Cache, a.Config.OutputDir)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
