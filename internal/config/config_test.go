package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigFileDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := LoadConfigFile(writeConfig(t, "server:\n  port: \"9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 50, cfg.App.MinTextLength)
	assert.Equal(t, int64(10*1024*1024), cfg.App.MaxFileSize)
	assert.Equal(t, 30, cfg.App.MaxInterviewTurns)
	assert.Equal(t, "fpdf", cfg.Render.Engine)
	assert.Equal(t, "Arial", cfg.Render.FontFamily)
	assert.InDelta(t, 10.0, cfg.Render.FontSize, 0.001)
	assert.Equal(t, 2*time.Hour, cfg.Server.Sessions.TTL)
	assert.Contains(t, cfg.App.AllowedExtensions, ".docx")
	assert.NoError(t, cfg.RequireAIKey())
}

func TestOperationConfigFallbacks(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfig(t, `
ai:
  apiKey: test-key
  model: gemini-2.5-pro
  chat:
    model: gemini-2.5-flash
    temperature: 0.9
  synthesize:
    apiKey: synth-key
`))
	require.NoError(t, err)

	chat := cfg.OperationConfig(OpChat)
	assert.Equal(t, "gemini-2.5-flash", chat.Model)
	assert.Equal(t, "gemini", chat.Provider)
	assert.Equal(t, "test-key", chat.APIKey)
	require.NotNil(t, chat.Temperature)
	assert.InDelta(t, 0.9, *chat.Temperature, 0.0001)

	analyze := cfg.OperationConfig(OpAnalyze)
	assert.Equal(t, "gemini-2.5-pro", analyze.Model)
	require.NotNil(t, analyze.Timeout)
	assert.Equal(t, 75*time.Second, *analyze.Timeout)
	assert.True(t, analyze.CircuitBreaker.Enabled)

	assert.Equal(t, "synth-key", cfg.OperationConfig(OpSynthesize).APIKey)

	unknown := cfg.OperationConfig(Operation("tailor"))
	assert.Equal(t, "gemini-2.5-pro", unknown.Model)
	require.NotNil(t, unknown.MaxRetries)
	assert.Equal(t, 3, *unknown.MaxRetries)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AI:     AIConfig{Timeout: time.Second},
			Server: ServerConfig{Port: "8080", Sessions: SessionsConfig{TTL: time.Minute}, TLS: TLSConfig{Mode: "disabled"}},
			App: AppConfig{
				DefaultFormat:     "text",
				SupportedFormats:  []string{"json", "text"},
				MaxFileSize:       1024,
				MinTextLength:     50,
				MaxInterviewTurns: 10,
			},
			Render: RenderConfig{Engine: "fpdf"},
		}
	}

	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero timeout", func(c *Config) { c.AI.Timeout = 0 }, "AI timeout"},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "server port"},
		{"unsupported default format", func(c *Config) { c.App.DefaultFormat = "xml" }, "default format"},
		{"bad render engine", func(c *Config) { c.Render.Engine = "latex" }, "render engine"},
		{"no interview bound", func(c *Config) { c.App.MaxInterviewTurns = 0 }, "interview turns"},
		{"no session ttl", func(c *Config) { c.Server.Sessions.TTL = 0 }, "session TTL"},
		{"bad tls", func(c *Config) { c.Server.TLS.Mode = "maybe" }, "invalid TLS mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestRequireAIKey(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequireAIKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestApplyFallbacksSplitsAPIKeys(t *testing.T) {
	cfg := &Config{Server: ServerConfig{APIKeys: []string{" a , b,,c "}, Sessions: SessionsConfig{TTL: time.Minute}}}
	cfg.applyFallbacks()

	assert.Equal(t, []string{"a", "b", "c"}, cfg.Server.APIKeys)
	assert.Equal(t, time.Minute, cfg.Server.Sessions.CleanupInterval)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
}
