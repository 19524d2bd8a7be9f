// =============================================================================
// 📦 しりとり 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + .env 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvFiles(".env").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → .env 文件 → 前缀环境变量 → 兼容环境变量
// =============================================================================
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix 是环境变量默认前缀
const DefaultEnvPrefix = "SHIRITORI"

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是しりとり对局的完整配置结构
type Config struct {
	// Game 对局配置
	Game GameConfig `yaml:"game" env:"GAME"`

	// LLM 单词生成配置
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics Prometheus 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// GameConfig 对局配置
type GameConfig struct {
	// 先手 Agent 名称
	Agent1Name string `yaml:"agent1_name" env:"AGENT1_NAME"`
	// 后手 Agent 名称
	Agent2Name string `yaml:"agent2_name" env:"AGENT2_NAME"`
	// 最大回合数
	MaxTurns int `yaml:"max_turns" env:"MAX_TURNS"`
	// 同一位置非终局失败的重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 单次生成时限
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 是否保存对局日志
	SaveLog bool `yaml:"save_log" env:"SAVE_LOG"`
	// 日志目录
	LogDir string `yaml:"log_dir" env:"LOG_DIR"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 温度参数
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// 最大 Token 数
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// 基础 URL（可选）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 每秒请求数, <= 0 表示不限速
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 突发请求数
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// /metrics 监听地址, 为空则不启动 HTTP 服务
	Addr string `yaml:"addr" env:"ADDR"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	envFiles   []string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  DefaultEnvPrefix,
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithEnvFiles 设置 .env 文件, 不存在的文件会被忽略
func (l *Loader) WithEnvFiles(paths ...string) *Loader {
	l.envFiles = append(l.envFiles, paths...)
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → .env 文件 → 前缀环境变量 → 兼容环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. .env 文件只补充进程中尚未设置的变量
	if err := l.loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	// 4. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := loadLegacyEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 5. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadEnvFiles() error {
	var existing []string
	for _, p := range l.envFiles {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		existing = append(existing, p)
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// legacyEnv 是命令行工具历来使用的环境变量名
var legacyEnv = []struct {
	key   string
	apply func(cfg *Config, value string) error
}{
	{"SHIRITORI_MAX_TURNS", func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		cfg.Game.MaxTurns = n
		return nil
	}},
	{"SHIRITORI_TIMEOUT", func(cfg *Config, v string) error {
		d, err := ParseSeconds(v)
		if err != nil {
			return err
		}
		cfg.Game.Timeout = d
		return nil
	}},
	{"AGENT1_NAME", func(cfg *Config, v string) error { cfg.Game.Agent1Name = v; return nil }},
	{"AGENT2_NAME", func(cfg *Config, v string) error { cfg.Game.Agent2Name = v; return nil }},
	{"SAVE_GAME_LOG", func(cfg *Config, v string) error {
		cfg.Game.SaveLog = strings.EqualFold(strings.TrimSpace(v), "true")
		return nil
	}},
	{"GOOGLE_API_KEY", func(cfg *Config, v string) error {
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
		return nil
	}},
	{"LOG_LEVEL", func(cfg *Config, v string) error {
		cfg.Log.Level = strings.ToLower(v)
		return nil
	}},
}

// loadLegacyEnv 应用兼容环境变量
func loadLegacyEnv(cfg *Config) error {
	for _, e := range legacyEnv {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		if err := e.apply(cfg, v); err != nil {
			return fmt.Errorf("failed to set %s: %w", e.key, err)
		}
	}
	return nil
}

// ParseSeconds 接受秒数 ("30", "12.5") 或 Go duration ("30s")
func ParseSeconds(v string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 验证配置, 汇总所有错误
func (c *Config) Validate() error {
	var errs []error

	if c.Game.MaxTurns <= 0 {
		errs = append(errs, errors.New("game.max_turns must be positive"))
	}
	if c.Game.MaxRetries < 0 {
		errs = append(errs, errors.New("game.max_retries must not be negative"))
	}
	if c.Game.Timeout <= 0 {
		errs = append(errs, errors.New("game.timeout must be positive"))
	}
	if strings.TrimSpace(c.Game.Agent1Name) == "" || strings.TrimSpace(c.Game.Agent2Name) == "" {
		errs = append(errs, errors.New("agent names must not be empty"))
	} else if c.Game.Agent1Name == c.Game.Agent2Name {
		errs = append(errs, errors.New("agent names must be distinct"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, errors.New("llm.temperature must be between 0 and 2"))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, errors.New("telemetry.sample_rate must be between 0 and 1"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %w", errors.Join(errs...))
	}
	return nil
}

// RequireAPIKey 检查是否配置了 API Key
func (c LLMConfig) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("GOOGLE_API_KEYが設定されていません")
	}
	return nil
}
