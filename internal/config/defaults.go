package config

import "time"

// DefaultFileName is the configuration file looked up in the working directory.
const DefaultFileName = ".chunkdoc.yml"

// qualityPresets maps each provider+quality combination to its model.
var qualityPresets = map[ProviderType]map[QualityTier]string{
	ProviderAnthropic: {
		QualityLite:   "claude-haiku-4-5-20251001",
		QualityNormal: "claude-sonnet-4-5-20250929",
		QualityMax:    "claude-opus-4-6",
	},
	ProviderOpenAI: {
		QualityLite:   "gpt-4o-mini",
		QualityNormal: "gpt-4o",
		QualityMax:    "gpt-4",
	},
	ProviderGoogle: {
		QualityLite:   "gemini-3-flash-preview",
		QualityNormal: "gemini-3-pro-preview",
		QualityMax:    "gemini-3-pro-preview",
	},
	ProviderOllama: {
		QualityLite:   "llama3",
		QualityNormal: "llama3",
		QualityMax:    "llama3:70b",
	},
	ProviderMiniMax: {
		QualityLite:   "MiniMax-M2.5-highspeed",
		QualityNormal: "MiniMax-M2.5",
		QualityMax:    "MiniMax-M2.5",
	},
	ProviderOpenRouter: {
		QualityLite:   "minimax/minimax-m2.5",
		QualityNormal: "minimax/minimax-m2.5",
		QualityMax:    "minimax/minimax-m2.5",
	},
	ProviderBedrock: {
		QualityLite:   "anthropic.claude-3-haiku-20240307-v1:0",
		QualityNormal: "us.anthropic.claude-3-5-haiku-20241022-v1:0",
		QualityMax:    "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
	},
}

// DefaultExcludes are glob patterns excluded from documentation by default.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"*.min.js",
	"*.min.css",
	"*.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderAnthropic,
		Model:          "claude-sonnet-4-5-20250929",
		Quality:        QualityNormal,
		MaxTokens:      4096,
		MaxConcurrency: 5,
		Include:        []string{"**"},
		Exclude:        DefaultExcludes,
		OutputDir:      "docs",
		DataDir:        ".chunkdoc",
		Cache: CacheConfig{
			Backend:       CacheSQLite,
			TTLHours:      24,
			RetainSource:  true,
			MemorySize:    10000,
			TableName:     "chunkdoc-cache",
			PurgeInterval: time.Hour,
		},
		Chunking: ChunkingConfig{
			MaxChunkLines: 1000,
			MinChunkLines: 300,
			OverlapLines:  50,
		},
		Server: ServerConfig{
			Port:           8080,
			RequestTimeout: 15 * time.Minute,
		},
	}
}

// GetPreset returns the model for the given provider and tier.
// Returns the Normal Anthropic model if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) string {
	if tiers, ok := qualityPresets[provider]; ok {
		if model, ok := tiers[tier]; ok {
			return model
		}
	}
	return qualityPresets[ProviderAnthropic][QualityNormal]
}
