// Package config loads espalier settings from a YAML file and the
// environment, then validates them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/espalier/pkg/adapters/openai"
	"github.com/aretw0/espalier/pkg/adapters/tavily"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/research"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing default file is not an error.
const DefaultPath = "espalier.yaml"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store backends.
const (
	StoreNone     = "none"
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StoreS3       = "s3"
	StorePostgres = "postgres"
)

// Search providers.
const (
	SearchTavily = "tavily"
	SearchMemory = "memory"
)

type Config struct {
	Log      LogConfig       `yaml:"log"`
	Server   ServerConfig    `yaml:"server"`
	Pipeline research.Config `yaml:"pipeline"`
	LLM      openai.Config   `yaml:"llm"`
	Search   SearchConfig    `yaml:"search"`
	Store    StoreConfig     `yaml:"store"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
	MaxTopicLength  int           `yaml:"max_topic_length" validate:"gt=0"`
}

type SearchConfig struct {
	Provider string        `yaml:"provider" validate:"oneof=tavily memory"`
	Tavily   tavily.Config `yaml:"tavily"`

	// CorpusPath points at a YAML document list for the memory provider.
	CorpusPath string      `yaml:"corpus_path" validate:"required_if=Provider memory"`
	Cache      CacheConfig `yaml:"cache"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
}

type StoreConfig struct {
	Backend     string        `yaml:"backend" validate:"oneof=none memory file redis s3 postgres"`
	Path        string        `yaml:"path"`
	RedisURL    string        `yaml:"redis_url" validate:"required_if=Backend redis"`
	Bucket      string        `yaml:"bucket" validate:"required_if=Backend s3"`
	DatabaseURL string        `yaml:"database_url" validate:"required_if=Backend postgres"`
	Table       string        `yaml:"table"`
	TTL         time.Duration `yaml:"ttl" validate:"gte=0"`
	SaveTimeout time.Duration `yaml:"save_timeout" validate:"gte=0"`
	LockTTL     time.Duration `yaml:"lock_ttl" validate:"gte=0"`

	// EncryptionKey enables AES-256-GCM at rest (base64 or hex, 32 bytes).
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`

	// Redact lists regular expressions masked before snapshots are written.
	Redact []string `yaml:"redact"`
}

// Default returns the built-in configuration.
func Default() Config {
	llm := openai.DefaultConfig()
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxTopicLength:  500,
		},
		Pipeline: research.DefaultConfig(),
		LLM:      llm,
		Search: SearchConfig{
			Provider: SearchTavily,
			Tavily: tavily.Config{
				BaseURL:    tavily.DefaultBaseURL,
				MaxResults: tavily.DefaultMaxResults,
				Timeout:    tavily.DefaultTimeout,
			},
			Cache: CacheConfig{TTL: time.Hour},
		},
		Store: StoreConfig{
			Backend:     StoreFile,
			SaveTimeout: 10 * time.Second,
			LockTTL:     5 * time.Minute,
		},
	}
}

// Load reads path (if any), applies environment overrides and validates.
// An empty path tries DefaultPath and tolerates its absence.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&cfg.Log.Level, "ESPALIER_LOG_LEVEL")
	set(&cfg.Log.Format, "ESPALIER_LOG_FORMAT")
	set(&cfg.Server.Addr, "ESPALIER_ADDR")
	set(&cfg.Search.Provider, "ESPALIER_SEARCH_PROVIDER")
	set(&cfg.Store.Backend, "ESPALIER_STORE")
	set(&cfg.Store.Path, "ESPALIER_STORE_PATH")
	set(&cfg.Store.EncryptionKey, "ESPALIER_ENCRYPTION_KEY")
	set(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	set(&cfg.LLM.Model, "ESPALIER_MODEL")
	set(&cfg.Search.Tavily.APIKey, "TAVILY_API_KEY")
	set(&cfg.Store.Bucket, "STATE_BUCKET")
	set(&cfg.Store.RedisURL, "REDIS_URL")
	set(&cfg.Store.DatabaseURL, "DATABASE_URL")

	if v := strings.TrimSpace(getenv("ESPALIER_MAX_QUERIES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ESPALIER_MAX_QUERIES: %w", err)
		}
		cfg.Pipeline.MaxQueries = n
	}
	if v := strings.TrimSpace(getenv("ESPALIER_SEARCH_CACHE")); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ESPALIER_SEARCH_CACHE: %w", err)
		}
		cfg.Search.Cache.Enabled = on
	}

	// A bucket without an explicit backend means the deployment stores to S3.
	if getenv("STATE_BUCKET") != "" && getenv("ESPALIER_STORE") == "" && cfg.Store.Backend == StoreFile {
		cfg.Store.Backend = StoreS3
	}
	return nil
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Search.Cache.Enabled && c.Store.RedisURL == "" {
		return errors.New("invalid configuration: search cache requires store.redis_url")
	}
	return nil
}

// RequireCredentials reports missing provider keys. Serving commands call it
// at startup; the error wraps ports.ErrNotConfigured.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Search.Provider == SearchTavily && c.Search.Tavily.APIKey == "" {
		missing = append(missing, "TAVILY_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), ports.ErrNotConfigured)
	}
	return nil
}
