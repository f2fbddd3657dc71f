package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchd API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Corpora   []CorpusConfig  `yaml:"corpora"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW settings used when bootstrapping indexes.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	// RecreateOnBoot drops and recreates each corpus index at startup.
	// Documents keep their hashes; the index is rebuilt from the prefixes.
	RecreateOnBoot bool `yaml:"recreate_on_boot"`
}

// SearchConfig holds retrieval tuning knobs.
type SearchConfig struct {
	FusionCandidateFactor int `yaml:"fusion_candidate_factor"` // per-leg widening factor for hybrid mode
	MinFusionCandidates   int `yaml:"min_fusion_candidates"`   // per-leg floor for hybrid mode
	RequestTimeoutMs      int `yaml:"request_timeout_ms"`      // 0 = no deadline
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers   map[string]ProviderConfig   `yaml:"providers"`
	Vectorizers map[string]VectorizerConfig `yaml:"vectorizers"`
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// CorpusConfig declares one searchable corpus.
type CorpusConfig struct {
	Name         string            `yaml:"name"`
	Vectorizer   string            `yaml:"vectorizer"`    // key into embedding.vectorizers
	VectorFields map[string]string `yaml:"vector_fields"` // search field -> index attribute
	FilterFields []string          `yaml:"filter_fields"`
	StatusField  string            `yaml:"status_field"`
	ExcludeToken string            `yaml:"exclude_token"` // status_filter value that means exclusion
	ExcludeValue string            `yaml:"exclude_value"` // status value excluded by the token
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Search.FusionCandidateFactor <= 0 {
		c.Search.FusionCandidateFactor = 2
	}
	if c.Search.MinFusionCandidates <= 0 {
		c.Search.MinFusionCandidates = 20
	}
	for i := range c.Corpora {
		if len(c.Corpora[i].VectorFields) == 0 {
			c.Corpora[i].VectorFields = map[string]string{"content": "content_vector"}
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if len(c.Corpora) == 0 {
		return fmt.Errorf("at least one corpus is required")
	}

	seen := make(map[string]bool, len(c.Corpora))
	for _, corp := range c.Corpora {
		if corp.Name == "" {
			return fmt.Errorf("corpora[].name is required")
		}
		if seen[corp.Name] {
			return fmt.Errorf("duplicate corpus %q", corp.Name)
		}
		seen[corp.Name] = true

		vec, ok := c.Embedding.Vectorizers[corp.Vectorizer]
		if !ok {
			return fmt.Errorf("corpus %s references unknown vectorizer %q", corp.Name, corp.Vectorizer)
		}
		if vec.Dimensions <= 0 {
			return fmt.Errorf("embedding.vectorizers.%s.dimensions must be positive", corp.Vectorizer)
		}
		if _, ok := c.Embedding.Providers[vec.Provider]; !ok {
			return fmt.Errorf("vectorizer %s references unknown provider %q", corp.Vectorizer, vec.Provider)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
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
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
