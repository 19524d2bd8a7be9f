// =============================================================================
// しりとり 主入口
// =============================================================================
// 两个 Agent 之间的しりとり对局，支持 Prometheus 指标与 OpenTelemetry
//
// 使用方法:
//
//	shiritori play                         # 开始一局
//	shiritori play --config config.yaml    # 指定配置文件
//	shiritori play --max-turns 10 --timeout 30
//	shiritori version                      # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/shiritori/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "play":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		code := runPlay(ctx, os.Args[2:], os.Stdout, os.Stderr, connectGemini)
		stop()
		os.Exit(code)
	case "version":
		printVersion(os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "shiritori %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `shiritori - AIエージェント同士のしりとりゲーム

Usage:
  shiritori <command> [options]

Commands:
  play      Play one game between two agents
  version   Show version information
  help      Show this help message

Options for 'play':
  --config <path>        Path to configuration file (YAML)
  --env-file <path>      Path to .env file (default: .env, ignored if missing)
  --max-turns <n>        最大ターン数 (env: SHIRITORI_MAX_TURNS)
  --timeout <sec|dur>    応答タイムアウト, e.g. 180 or 3m (env: SHIRITORI_TIMEOUT)
  --agent1-name <name>   エージェント1の名前 (env: AGENT1_NAME)
  --agent2-name <name>   エージェント2の名前 (env: AGENT2_NAME)
  --save-log             Save game_log_YYYYMMDD_HHMMSS.json (env: SAVE_GAME_LOG)
  --log-dir <dir>        Directory for saved game logs
  --metrics-addr <addr>  Serve Prometheus /metrics on addr, e.g. :9091

Examples:
  shiritori play
  shiritori play --max-turns 10 --agent1-name みこ --agent2-name すいせい
  shiritori play --config /etc/shiritori/config.yaml --save-log
  shiritori version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
