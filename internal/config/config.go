// Package config loads the YAML configuration and resolves provider credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/assessrec/internal/secrets"
)

// Vector store drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverQdrant = "qdrant"
	DriverMemory = "memory"
)

// Enhancement providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Environment variables consulted for provider keys.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvQdrantKey = "QDRANT_API_KEY"
)

// Config holds the assessrec configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Logging     LoggingConfig     `yaml:"logging"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Enhancement EnhancementConfig `yaml:"enhancement"`
	Fetcher     FetcherConfig     `yaml:"fetcher"`
	Catalog     CatalogConfig     `yaml:"catalog"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// VectorStoreConfig selects and configures the index backend.
type VectorStoreConfig struct {
	Driver         string `yaml:"driver"` // valkey, redis, qdrant, memory (default: memory)
	Collection     string `yaml:"collection"`
	LenientFilters bool   `yaml:"lenient_filters"`

	// valkey / redis
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`

	// qdrant
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"`
	TimeoutSec int    `yaml:"timeout_sec"`

	// memory; empty keeps the index volatile
	DataDir string `yaml:"data_dir"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider      string `yaml:"provider"`
	APIKey        string `yaml:"api_key"`
	APIKeyFile    string `yaml:"api_key_file"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"`
	BatchSize     int    `yaml:"batch_size"`
	BatchPauseMs  int    `yaml:"batch_pause_ms"` // negative disables the pause
	MaxInputWords int    `yaml:"max_input_words"`
	TimeoutSec    int    `yaml:"timeout_sec"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"` // 0 = no expiry
}

// EnhancementConfig holds the query rewriter settings.
type EnhancementConfig struct {
	Provider   string `yaml:"provider"` // openai, gemini, none
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	MaxTokens  int    `yaml:"max_tokens"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// FetcherConfig holds job description fetch settings.
type FetcherConfig struct {
	TimeoutSec int `yaml:"timeout_sec"`
}

// CatalogConfig holds default data file locations for the CLI.
type CatalogConfig struct {
	DataFile    string `yaml:"data_file"`
	QueriesFile string `yaml:"queries_file"`
}

// Credentials are provider keys resolved once at start-up.
type Credentials struct {
	Embedding   string
	Enhancement string
	Qdrant      string
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates the configuration at path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	vs := &c.VectorStore
	if vs.Driver == "" {
		vs.Driver = DriverMemory
	}
	if vs.Collection == "" {
		vs.Collection = "shl_assessments"
	}
	if vs.ReadinessTimeout <= 0 {
		vs.ReadinessTimeout = 10
	}
	if vs.HNSWM <= 0 {
		vs.HNSWM = 16
	}
	if vs.HNSWEFConstruct <= 0 {
		vs.HNSWEFConstruct = 200
	}
	if vs.TimeoutSec <= 0 {
		vs.TimeoutSec = 30
	}

	emb := &c.Embedding
	if emb.Provider == "" {
		emb.Provider = ProviderOpenAI
	}
	if emb.Model == "" {
		emb.Model = "text-embedding-ada-002"
	}
	if emb.Dimensions <= 0 {
		emb.Dimensions = 1536
	}
	if emb.BatchSize <= 0 {
		emb.BatchSize = 100
	}
	if emb.BatchPauseMs < 0 {
		emb.BatchPauseMs = 0
	} else if emb.BatchPauseMs == 0 {
		emb.BatchPauseMs = 500
	}
	if emb.MaxInputWords <= 0 {
		emb.MaxInputWords = 8000
	}
	if emb.TimeoutSec <= 0 {
		emb.TimeoutSec = 60
	}

	enh := &c.Enhancement
	if enh.Provider == "" {
		enh.Provider = ProviderOpenAI
	}
	if enh.MaxTokens <= 0 {
		enh.MaxTokens = 500
	}
	if enh.TimeoutSec <= 0 {
		enh.TimeoutSec = 30
	}

	if c.Fetcher.TimeoutSec <= 0 {
		c.Fetcher.TimeoutSec = 10
	}

	if c.Catalog.DataFile == "" {
		c.Catalog.DataFile = "data/shl_assessments.csv"
	}
	if c.Catalog.QueriesFile == "" {
		c.Catalog.QueriesFile = "data/test_queries.json"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.VectorStore.Driver {
	case DriverValkey, DriverRedis:
		if len(c.VectorStore.Addrs) == 0 {
			return fmt.Errorf("vector_store.addrs is required for driver %q", c.VectorStore.Driver)
		}
	case DriverQdrant:
		if c.VectorStore.URL == "" {
			return errors.New("vector_store.url is required for driver \"qdrant\"")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("vector_store.driver must be one of valkey, redis, qdrant, memory; got %q",
			c.VectorStore.Driver)
	}

	if c.Embedding.Provider != ProviderOpenAI {
		return fmt.Errorf("embedding.provider must be \"openai\", got %q", c.Embedding.Provider)
	}

	switch c.Enhancement.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("enhancement.provider must be one of openai, gemini, none; got %q",
			c.Enhancement.Provider)
	}
	return nil
}

// ResolveCredentials resolves every provider key with the precedence
// config value > environment variable > secrets file.
// The embedding key is required; the others are optional and stay empty when not found.
func (c *Config) ResolveCredentials(r secrets.Resolver) (Credentials, error) {
	var creds Credentials

	key, err := r.Resolve("embedding api key", secrets.Source{
		Explicit: c.Embedding.APIKey,
		EnvVar:   EnvOpenAIKey,
		File:     c.Embedding.APIKeyFile,
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("resolve credentials: %w", err)
	}
	creds.Embedding = key

	if src, ok := c.enhancementSource(); ok {
		key, err := r.Resolve("enhancement api key", src)
		if err != nil && !errors.Is(err, secrets.ErrNotFound) {
			return Credentials{}, fmt.Errorf("resolve credentials: %w", err)
		}
		creds.Enhancement = key
	}

	if c.VectorStore.Driver == DriverQdrant {
		key, err := r.Resolve("qdrant api key", secrets.Source{
			Explicit: c.VectorStore.APIKey,
			EnvVar:   EnvQdrantKey,
			File:     c.VectorStore.APIKeyFile,
		})
		if err != nil && !errors.Is(err, secrets.ErrNotFound) {
			return Credentials{}, fmt.Errorf("resolve credentials: %w", err)
		}
		creds.Qdrant = key
	}

	return creds, nil
}

func (c *Config) enhancementSource() (secrets.Source, bool) {
	enh := c.Enhancement
	switch enh.Provider {
	case ProviderOpenAI:
		// Same account as the embedding provider unless configured separately.
		explicit := enh.APIKey
		if explicit == "" {
			explicit = c.Embedding.APIKey
		}
		file := enh.APIKeyFile
		if file == "" {
			file = c.Embedding.APIKeyFile
		}
		return secrets.Source{Explicit: explicit, EnvVar: EnvOpenAIKey, File: file}, true
	case ProviderGemini:
		return secrets.Source{Explicit: enh.APIKey, EnvVar: EnvGeminiKey, File: enh.APIKeyFile}, true
	default:
		return secrets.Source{}, false
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package directories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
