package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "espalier.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load("", env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Pipeline.MaxQueries)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.Search.Tavily.MaxResults)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
  format: json
server:
  addr: ":9090"
pipeline:
  max_queries: 5
llm:
  model: gpt-4o
  timeout: 30s
store:
  backend: redis
  redis_url: redis://localhost:6379/0
  ttl: 24h
`)

	cfg, err := load(path, env(map[string]string{
		"OPENAI_API_KEY": "sk-x",
		"TAVILY_API_KEY": "tvly-x",
		"ESPALIER_ADDR":  ":7070",
	}))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":7070", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, 5, cfg.Pipeline.MaxQueries)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "sk-x", cfg.LLM.APIKey)
	assert.NoError(t, cfg.RequireCredentials())
}

func TestLoad_StateBucketSelectsS3(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load("", env(map[string]string{"STATE_BUCKET": "research-states"}))
	require.NoError(t, err)
	assert.Equal(t, StoreS3, cfg.Store.Backend)
	assert.Equal(t, "research-states", cfg.Store.Bucket)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"unknown backend", "store:\n  backend: floppy\n", nil},
		{"redis without url", "store:\n  backend: redis\n", nil},
		{"bad level", "log:\n  level: loud\n", nil},
		{"negative queries", "pipeline:\n  max_queries: -1\n", nil},
		{"cache without redis", "search:\n  cache:\n    enabled: true\n", nil},
		{"memory search without corpus", "search:\n  provider: memory\n", nil},
		{"bad env int", "", map[string]string{"ESPALIER_MAX_QUERIES": "many"}},
		{"malformed yaml", "log: [", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeFile(t, tt.content), env(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	assert.Error(t, err)
}

func TestRequireCredentials(t *testing.T) {
	cfg := Default()
	err := cfg.RequireCredentials()
	require.ErrorIs(t, err, ports.ErrNotConfigured)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "TAVILY_API_KEY")

	cfg.LLM.APIKey = "sk"
	cfg.Search.Provider = SearchMemory
	assert.NoError(t, cfg.RequireCredentials())
}
