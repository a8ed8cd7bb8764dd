package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv 屏蔽宿主机上的覆盖变量
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APP_ENV", "LLM_API_KEY", "GEMINI_API_KEY", "LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "PORT", "LOG_LEVEL", "GIN_MODE"} {
		t.Setenv(k, "")
	}
}

func TestParse_AppliesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte("llm:\n  api_key: k\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.EqualValues(t, 64<<10, cfg.Server.MaxBodyBytes)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.RetryInitialInterval)
	assert.Equal(t, 2*time.Second, cfg.LLM.RetryMaxInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Mediator.Strict)
}

func TestParse_ReadsDurationsAndMediator(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(`
llm:
  provider: ollama
  timeout: 5s
  max_retries: 3
  rate_per_second: 2
mediator:
  strict: true
  max_actions: 10
`))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 1, cfg.LLM.Burst)
	assert.True(t, cfg.Mediator.Strict)
	assert.Equal(t, 10, cfg.Mediator.MaxActions)
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LLM_MODEL", "gemini-2.0-flash")
	t.Setenv("GIN_MODE", "debug")

	cfg, err := Parse([]byte("server:\n  port: 8080\n"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Server.Mode)

	t.Setenv("LLM_API_KEY", "generic-key")
	cfg, err = Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "generic-key", cfg.LLM.APIKey)
}

func TestParse_BadPortEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	_, err := Parse([]byte("llm:\n  api_key: k\n"))
	assert.ErrorContains(t, err, "PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing key", "llm:\n  provider: openai\n", "llm.api_key is required"},
		{"unknown provider", "llm:\n  provider: claude\n", "unknown llm.provider"},
		{"port range", "server:\n  port: 70000\nllm:\n  provider: ollama\n", "out of range"},
		{"negative timeout", "llm:\n  provider: ollama\n  timeout: -1s\n", "llm.timeout"},
		{"negative retries", "llm:\n  provider: ollama\n  max_retries: -1\n", "llm.max_retries"},
		{"negative max actions", "llm:\n  provider: ollama\nmediator:\n  max_actions: -1\n", "mediator.max_actions"},
		{"server mode", "server:\n  mode: prod\nllm:\n  provider: ollama\n", "server.mode"},
		{"log format", "llm:\n  provider: ollama\nlog:\n  format: text\n", "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: ollama\n  model: llama3.1\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", cfg.LLM.Model)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_ShippedLocalConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "k")
	cfg, err := LoadFile("local.yaml")
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.LLM.ForceJSON)
}

func TestEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	assert.Equal(t, "local", Env())
	t.Setenv("APP_ENV", "prod")
	assert.Equal(t, "prod", Env())
}
