package config

import "time"

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderMiniMax    ProviderType = "minimax"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
	ProviderBedrock    ProviderType = "bedrock"
)

// CacheBackend names a key-value store for the documentation cache.
type CacheBackend string

const (
	CacheSQLite   CacheBackend = "sqlite"
	CacheMemory   CacheBackend = "memory"
	CacheDynamoDB CacheBackend = "dynamodb"
)

// Config is the top-level chunkdoc configuration, corresponding to .chunkdoc.yml.
type Config struct {
	Provider       ProviderType   `yaml:"provider" koanf:"provider"`
	Model          string         `yaml:"model" koanf:"model"`
	Quality        QualityTier    `yaml:"quality" koanf:"quality"`
	MaxTokens      int            `yaml:"max_tokens" koanf:"max_tokens"`
	RateLimitRPM   int            `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	MaxConcurrency int            `yaml:"max_concurrency" koanf:"max_concurrency"`
	Languages      []string       `yaml:"languages" koanf:"languages"`
	Include        []string       `yaml:"include" koanf:"include"`
	Exclude        []string       `yaml:"exclude" koanf:"exclude"`
	SkipTests      bool           `yaml:"skip_tests" koanf:"skip_tests"`
	OutputDir      string         `yaml:"output_dir" koanf:"output_dir"`
	DataDir        string         `yaml:"data_dir" koanf:"data_dir"`
	OpenAIBaseURL  string         `yaml:"openai_base_url" koanf:"openai_base_url"`
	Cache          CacheConfig    `yaml:"cache" koanf:"cache"`
	Chunking       ChunkingConfig `yaml:"chunking" koanf:"chunking"`
	Server         ServerConfig   `yaml:"server" koanf:"server"`
	Bedrock        BedrockConfig  `yaml:"bedrock" koanf:"bedrock"`
}

// CacheConfig selects and tunes the documentation cache.
type CacheConfig struct {
	Backend       CacheBackend  `yaml:"backend" koanf:"backend"`
	TTLHours      int           `yaml:"ttl_hours" koanf:"ttl_hours"`
	RetainSource  bool          `yaml:"retain_source" koanf:"retain_source"`
	MemorySize    int           `yaml:"memory_size" koanf:"memory_size"`
	TableName     string        `yaml:"table_name" koanf:"table_name"`
	Region        string        `yaml:"region" koanf:"region"`
	Endpoint      string        `yaml:"endpoint" koanf:"endpoint"`
	PurgeInterval time.Duration `yaml:"purge_interval" koanf:"purge_interval"`
}

// ChunkingConfig holds the chunk size thresholds, in lines.
type ChunkingConfig struct {
	MaxChunkLines int `yaml:"max_chunk_lines" koanf:"max_chunk_lines"`
	MinChunkLines int `yaml:"min_chunk_lines" koanf:"min_chunk_lines"`
	OverlapLines  int `yaml:"overlap_lines" koanf:"overlap_lines"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port            int           `yaml:"port" koanf:"port"`
	AllowAllOrigins bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	RequestTimeout  time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
}

// BedrockConfig holds AWS settings for the bedrock provider.
type BedrockConfig struct {
	Region  string `yaml:"region" koanf:"region"`
	Profile string `yaml:"profile" koanf:"profile"`
}
