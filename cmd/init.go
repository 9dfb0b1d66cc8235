package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chunkdoc/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default chunkdoc configuration",
	Long:  `Writes a .chunkdoc.yml with default settings for the chosen provider, quality tier and cache backend.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		quality, _ := cmd.Flags().GetString("quality")
		backend, _ := cmd.Flags().GetString("backend")
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(cfgFile); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
		}

		cfg := config.DefaultConfig()
		cfg.Provider = config.ProviderType(provider)
		cfg.Quality = config.QualityTier(quality)
		cfg.Model = config.GetPreset(cfg.Provider, cfg.Quality)
		cfg.Cache.Backend = config.CacheBackend(backend)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}

		fmt.Printf("Wrote %s (provider %s, model %s, cache %s)\n", cfgFile, cfg.Provider, cfg.Model, cfg.Cache.Backend)
		if env := config.APIKeyEnvVar(cfg.Provider); env != "" && os.Getenv(env) == "" {
			fmt.Printf("Remember to set %s before running `chunkdoc generate`.\n", env)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().String("provider", string(config.ProviderAnthropic), "LLM provider")
	initCmd.Flags().String("quality", string(config.QualityNormal), "quality tier: lite, normal or max")
	initCmd.Flags().String("backend", string(config.CacheSQLite), "cache backend: sqlite, memory or dynamodb")
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
