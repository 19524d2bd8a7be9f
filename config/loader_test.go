// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv 清空会影响加载结果的兼容环境变量
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, e := range legacyEnv {
		t.Setenv(e.key, "")
	}
}

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ノエル", cfg.Game.Agent1Name)
	assert.Equal(t, "フレア", cfg.Game.Agent2Name)
	assert.Equal(t, 20, cfg.Game.MaxTurns)
	assert.Equal(t, 2, cfg.Game.MaxRetries)
	assert.Equal(t, 180*time.Second, cfg.Game.Timeout)
	assert.False(t, cfg.Game.SaveLog)

	assert.Equal(t, "gemini-3-flash-preview", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "shiritori", cfg.Metrics.Namespace)

	assert.NoError(t, cfg.Validate())
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 20, cfg.Game.MaxTurns)
	assert.Equal(t, "ノエル", cfg.Game.Agent1Name)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
game:
  agent1_name: "すばる"
  max_turns: 8
  timeout: 45s
  save_log: true
llm:
  model: "gemini-2.5-flash"
  temperature: 1.1
log:
  level: debug
  format: json
  output_paths: ["stdout"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "すばる", cfg.Game.Agent1Name)
	assert.Equal(t, "フレア", cfg.Game.Agent2Name)
	assert.Equal(t, 8, cfg.Game.MaxTurns)
	assert.Equal(t, 45*time.Second, cfg.Game.Timeout)
	assert.True(t, cfg.Game.SaveLog)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 1.1, cfg.LLM.Temperature)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"stdout"}, cfg.Log.OutputPaths)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SHIRITORI_GAME_MAX_TURNS", "12")
	t.Setenv("SHIRITORI_GAME_TIMEOUT", "30s")
	t.Setenv("SHIRITORI_GAME_AGENT2_NAME", "ぺこら")
	t.Setenv("SHIRITORI_LLM_TEMPERATURE", "0.2")
	t.Setenv("SHIRITORI_LOG_OUTPUT_PATHS", "stdout, /tmp/shiritori.log")
	t.Setenv("SHIRITORI_METRICS_ADDR", ":9091")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Game.MaxTurns)
	assert.Equal(t, 30*time.Second, cfg.Game.Timeout)
	assert.Equal(t, "ぺこら", cfg.Game.Agent2Name)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, []string{"stdout", "/tmp/shiritori.log"}, cfg.Log.OutputPaths)
	assert.Equal(t, ":9091", cfg.Metrics.Addr)
}

func TestLoader_LegacyEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SHIRITORI_MAX_TURNS", "6")
	t.Setenv("SHIRITORI_TIMEOUT", "12.5")
	t.Setenv("AGENT1_NAME", "みこ")
	t.Setenv("AGENT2_NAME", "すいせい")
	t.Setenv("SAVE_GAME_LOG", "TRUE")
	t.Setenv("GOOGLE_API_KEY", "key-123")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Game.MaxTurns)
	assert.Equal(t, 12500*time.Millisecond, cfg.Game.Timeout)
	assert.Equal(t, "みこ", cfg.Game.Agent1Name)
	assert.Equal(t, "すいせい", cfg.Game.Agent2Name)
	assert.True(t, cfg.Game.SaveLog)
	assert.Equal(t, "key-123", cfg.LLM.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_PrefixedAPIKeyWinsOverLegacy(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SHIRITORI_LLM_API_KEY", "prefixed")
	t.Setenv("GOOGLE_API_KEY", "legacy")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.LLM.APIKey)
}

func TestLoader_InvalidLegacyValue(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SHIRITORI_MAX_TURNS", "many")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHIRITORI_MAX_TURNS")
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
game:
  max_turns: 8
  agent1_name: "yaml-agent"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))
	t.Setenv("SHIRITORI_GAME_MAX_TURNS", "3")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Game.MaxTurns)
	assert.Equal(t, "yaml-agent", cfg.Game.Agent1Name)
}

func TestLoader_EnvFiles(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SHIRITORI_GAME_LOG_DIR=/var/log/shiritori\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("SHIRITORI_GAME_LOG_DIR") })

	cfg, err := NewLoader().
		WithEnvFiles(filepath.Join(dir, "missing.env"), envPath).
		Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/log/shiritori", cfg.Game.LogDir)
}

func TestLoader_EnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SHIRITORI_LLM_MODEL=from-file\n"), 0644))
	t.Setenv("SHIRITORI_LLM_MODEL", "from-process")

	cfg, err := NewLoader().WithEnvFiles(envPath).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-process", cfg.LLM.Model)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MYAPP_GAME_MAX_TURNS", "4")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Game.MaxTurns)
}

func TestLoader_WithValidator(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SHIRITORI_GAME_MAX_TURNS", "0")

	_, err := NewLoader().
		WithValidator(func(cfg *Config) error { return cfg.Validate() }).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_turns")
}

func TestLoader_NonExistentFile(t *testing.T) {
	isolateEnv(t)

	cfg, err := NewLoader().WithConfigPath("/non/existent/path/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Game.MaxTurns)
}

func TestLoader_InvalidYAML(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("game: [unclosed"), 0644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

func TestLoader_InvalidEnvDuration(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SHIRITORI_GAME_TIMEOUT", "soon")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHIRITORI_GAME_TIMEOUT")
}

// --- Validate 测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr []string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{
			name:    "zero max turns",
			modify:  func(c *Config) { c.Game.MaxTurns = 0 },
			wantErr: []string{"max_turns"},
		},
		{
			name:    "negative retries",
			modify:  func(c *Config) { c.Game.MaxRetries = -1 },
			wantErr: []string{"max_retries"},
		},
		{
			name:    "same agent names",
			modify:  func(c *Config) { c.Game.Agent2Name = c.Game.Agent1Name },
			wantErr: []string{"distinct"},
		},
		{
			name:    "empty agent name",
			modify:  func(c *Config) { c.Game.Agent1Name = "  " },
			wantErr: []string{"must not be empty"},
		},
		{
			name: "several errors at once",
			modify: func(c *Config) {
				c.Game.Timeout = 0
				c.LLM.Temperature = 3
				c.Log.Format = "xml"
			},
			wantErr: []string{"timeout", "temperature", "log.format"},
		},
		{
			name:    "sample rate out of range",
			modify:  func(c *Config) { c.Telemetry.SampleRate = 1.5 },
			wantErr: []string{"sample_rate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestConfig_RequireAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	assert.EqualError(t, cfg.LLM.RequireAPIKey(), "GOOGLE_API_KEYが設定されていません")

	cfg.LLM.APIKey = "k"
	assert.NoError(t, cfg.LLM.RequireAPIKey())
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30", 30 * time.Second, false},
		{"0.5", 500 * time.Millisecond, false},
		{"2m", 2 * time.Minute, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSeconds(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMustLoad_InvalidFile(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("game: [unclosed"), 0644))

	assert.Panics(t, func() { MustLoad(configPath) })
}
