// =============================================================================
// 📦 しりとり 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Game:      DefaultGameConfig(),
		LLM:       DefaultLLMConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// DefaultGameConfig 返回默认对局配置
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Agent1Name: "ノエル",
		Agent2Name: "フレア",
		MaxTurns:   20,
		MaxRetries: 2,
		Timeout:    180 * time.Second,
		SaveLog:    false,
		LogDir:     ".",
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:          "gemini-3-flash-preview",
		Temperature:    0.7,
		MaxTokens:      1000,
		RateLimitRPS:   0,
		RateLimitBurst: 1,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "shiritori",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Addr:      "",
		Namespace: "shiritori",
	}
}
