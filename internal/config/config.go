package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/chunkdoc/internal/walker"
)

// EnvPrefix marks environment variables that override the file.
const EnvPrefix = "CHUNKDOC_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CHUNKDOC_*). A double underscore in a
// variable name descends into a section: CHUNKDOC_CACHE__BACKEND sets
// cache.backend.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// A provider or quality tier without an explicit model picks the preset.
	if !k.Exists("model") && (k.Exists("provider") || k.Exists("quality")) {
		cfg.Model = GetPreset(cfg.Provider, cfg.Quality)
	}

	return cfg, nil
}

// envKey maps CHUNKDOC_CACHE__TTL_HOURS to cache.ttl_hours.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic:  true,
	ProviderOpenAI:     true,
	ProviderOpenRouter: true,
	ProviderMiniMax:    true,
	ProviderGoogle:     true,
	ProviderOllama:     true,
	ProviderBedrock:    true,
}

// validQualityTiers is the set of recognized quality tier values.
var validQualityTiers = map[QualityTier]bool{
	QualityLite:   true,
	QualityNormal: true,
	QualityMax:    true,
}

var validBackends = map[CacheBackend]bool{
	CacheSQLite:   true,
	CacheMemory:   true,
	CacheDynamoDB: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, openrouter, minimax, google, ollama, bedrock", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if c.Quality != "" && !validQualityTiers[c.Quality] {
		return fmt.Errorf("invalid quality %q: must be one of lite, normal, max", c.Quality)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.RateLimitRPM < 0 {
		return fmt.Errorf("rate_limit_rpm must be non-negative")
	}

	if c.Cache.Backend != "" && !validBackends[c.Cache.Backend] {
		return fmt.Errorf("invalid cache.backend %q: must be one of sqlite, memory, dynamodb", c.Cache.Backend)
	}
	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("cache.ttl_hours must be positive")
	}
	if c.Cache.Backend == CacheDynamoDB && c.Cache.TableName == "" {
		return fmt.Errorf("cache.table_name is required for the dynamodb backend")
	}

	ch := c.Chunking
	if ch.MinChunkLines <= 0 || ch.MaxChunkLines <= ch.MinChunkLines {
		return fmt.Errorf("chunking: need 0 < min_chunk_lines < max_chunk_lines, got %d and %d", ch.MinChunkLines, ch.MaxChunkLines)
	}
	if ch.OverlapLines < 0 || ch.OverlapLines >= ch.MinChunkLines {
		return fmt.Errorf("chunking: overlap_lines must be in [0, min_chunk_lines)")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	for _, lang := range c.Languages {
		if !walker.Known(lang) {
			return fmt.Errorf("unknown language %q in languages: known are %s", lang, strings.Join(walker.Languages(), ", "))
		}
	}

	return nil
}

// DatabasePath is the SQLite file holding the cache and the cost ledger.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "chunkdoc.db")
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderMiniMax:
		return "MINIMAX_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// SplitList splits a comma-separated string and trims whitespace.
func SplitList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
