package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stressoscope/internal/llm"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GROQ_API_KEY",
		"STRESSOSCOPE_LLM_API_KEY",
		"STRESSOSCOPE_LLM_PROVIDER",
		"STRESSOSCOPE_LLM_MODEL",
		"STRESSOSCOPE_SERVER_ADDR",
		"STRESSOSCOPE_ANALYSIS_CACHE_SIZE",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stressoscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, llm.ProviderGroq, cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, llm.DefaultTimeout, cfg.LLM.Timeout)
	assert.Equal(t, llm.DefaultTemperature, cfg.LLMClientConfig().Temperature)
	assert.False(t, cfg.Analysis.RepairJSON)
	assert.Equal(t, 256, cfg.Analysis.CacheSize)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, BackendMemory, cfg.Sessions.Backend)
	assert.False(t, cfg.LLMClientConfig().Enabled())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  addr: ":9000"
  allowed_origins: ["https://stress.example"]
llm:
  provider: gemini
  api_key: file-key
  timeout: 5s
analysis:
  repair_json: true
  cache_size: 0
logging:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://stress.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Analysis.RepairJSON)
	assert.Equal(t, 0, cfg.Analysis.CacheSize)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestZeroTemperatureIsKept(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeFile(t, "llm:\n  temperature: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.LLMClientConfig().Temperature)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "llm:\n  model: from-file\n  api_key: file-key\n")
	t.Setenv("STRESSOSCOPE_LLM_MODEL", "from-env")
	t.Setenv("STRESSOSCOPE_SERVER_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
}

func TestGroqAPIKeyAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GROQ_API_KEY", "gsk-alias")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gsk-alias", cfg.LLM.APIKey)
	assert.True(t, cfg.LLMClientConfig().Enabled())

	t.Setenv("STRESSOSCOPE_LLM_API_KEY", "prefixed")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.LLM.APIKey)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "llm:\n  provider: carrier-pigeon\nsessions:\n  capacity: 0\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "carrier-pigeon")
	assert.ErrorContains(t, err, "sessions.capacity")
}

func TestSessionsBackend(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeFile(t, "sessions:\n  backend: sqlite\n  sqlite_path: /tmp/s.db\n  retention: 24h\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Sessions.Backend)
	assert.Equal(t, "/tmp/s.db", cfg.Sessions.SQLitePath)
	assert.Equal(t, 24*time.Hour, cfg.Sessions.Retention)
	assert.Equal(t, time.Hour, cfg.Sessions.PruneInterval)

	_, err = Load(writeFile(t, "sessions:\n  backend: redis\n"))
	assert.ErrorContains(t, err, "sessions.backend")

	_, err = Load(writeFile(t, "sessions:\n  backend: sqlite\n  sqlite_path: ''\n"))
	assert.ErrorContains(t, err, "sessions.sqlite_path")
}
