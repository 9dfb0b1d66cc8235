package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chunkdoc/internal/config"
)

var (
	cfgFile string
	verbose bool
	logJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "chunkdoc",
	Short: "AI-powered source documentation with chunking and content-addressed caching",
	Long: `chunkdoc documents source files with an LLM. Large files are split into
overlapping, declaration-aware chunks that are documented in parallel and
merged back in order. Every result is cached by content hash, so re-running
on an unchanged file (or an unchanged chunk of a changed file) costs nothing.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFileName, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON instead of text")
}
