package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/shiritori/agent"
	"github.com/BaSui01/shiritori/config"
	"github.com/BaSui01/shiritori/game"
	"github.com/BaSui01/shiritori/internal/metrics"
	"github.com/BaSui01/shiritori/internal/server"
	"github.com/BaSui01/shiritori/internal/telemetry"
	"github.com/BaSui01/shiritori/llm"
	"github.com/BaSui01/shiritori/llm/providers/gemini"
)

const (
	instrumentationGame = "github.com/BaSui01/shiritori/game"

	shutdownTimeout = 5 * time.Second
)

// connectFunc 连接生成能力, 返回可用的生成器及其 provider/model 标签
type connectFunc func(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (gen llm.TextGenerator, provider, model string, err error)

// connectGemini 使用 Gemini 作为生成能力
func connectGemini(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (llm.TextGenerator, string, string, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, "", "", err
	}
	p := gemini.NewProvider(gemini.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		BaseURL:     cfg.BaseURL,
	}, logger)
	if err := p.Connect(ctx); err != nil {
		return nil, "", "", err
	}
	return p, p.Name(), p.Model(), nil
}

// secondsFlag 接受秒数或 Go duration
type secondsFlag struct{ d *time.Duration }

func (f secondsFlag) String() string {
	if f.d == nil {
		return ""
	}
	return f.d.String()
}

func (f secondsFlag) Set(v string) error {
	d, err := config.ParseSeconds(v)
	if err != nil {
		return err
	}
	*f.d = d
	return nil
}

// playFlags 是 play 子命令的参数
type playFlags struct {
	configPath  string
	envFile     string
	maxTurns    int
	timeout     time.Duration
	agent1Name  string
	agent2Name  string
	saveLog     bool
	logDir      string
	metricsAddr string

	set map[string]bool
}

func parsePlayFlags(args []string, stderr io.Writer) (*playFlags, error) {
	f := &playFlags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "Path to config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "Path to .env file")
	fs.IntVar(&f.maxTurns, "max-turns", 0, "最大ターン数")
	fs.Var(secondsFlag{&f.timeout}, "timeout", "応答タイムアウト（秒 or duration）")
	fs.StringVar(&f.agent1Name, "agent1-name", "", "エージェント1の名前")
	fs.StringVar(&f.agent2Name, "agent2-name", "", "エージェント2の名前")
	fs.BoolVar(&f.saveLog, "save-log", false, "Save the game log as JSON")
	fs.StringVar(&f.logDir, "log-dir", "", "Directory for saved game logs")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply 用显式给出的参数覆盖配置
func (f *playFlags) apply(cfg *config.Config) {
	if f.set["max-turns"] {
		cfg.Game.MaxTurns = f.maxTurns
	}
	if f.set["timeout"] {
		cfg.Game.Timeout = f.timeout
	}
	if f.set["agent1-name"] {
		cfg.Game.Agent1Name = f.agent1Name
	}
	if f.set["agent2-name"] {
		cfg.Game.Agent2Name = f.agent2Name
	}
	if f.set["save-log"] {
		cfg.Game.SaveLog = f.saveLog
	}
	if f.set["log-dir"] {
		cfg.Game.LogDir = f.logDir
	}
	if f.set["metrics-addr"] {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = f.metricsAddr
	}
}

// =============================================================================
// 🎮 play 命令
// =============================================================================

// runPlay 运行一局游戏并返回进程退出码
func runPlay(ctx context.Context, args []string, stdout, stderr io.Writer, connect connectFunc) int {
	flags, err := parsePlayFlags(args, stderr)
	if err != nil {
		return 1
	}

	// 加载配置
	loader := config.NewLoader().WithEnvFiles(flags.envFile)
	if flags.configPath != "" {
		loader = loader.WithConfigPath(flags.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	flags.apply(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid config: %v\n", err)
		return 1
	}

	// 初始化日志
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting shiritori",
		zap.String("version", Version),
		zap.String("git_commit", GitCommit),
	)

	// 初始化 OpenTelemetry
	providers, err := telemetry.Init(cfg.Telemetry, logger, telemetry.WithMatch(telemetry.Match{
		Agent1:   cfg.Game.Agent1Name,
		Agent2:   cfg.Game.Agent2Name,
		MaxTurns: cfg.Game.MaxTurns,
		Model:    cfg.LLM.Model,
	}))
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
		providers = nil
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	// Prometheus 指标
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		collector = metrics.NewCollector(cfg.Metrics.Namespace, reg, logger)
		if cfg.Metrics.Addr != "" {
			srvCfg := server.DefaultConfig()
			srvCfg.Addr = cfg.Metrics.Addr
			srv := server.NewMetricsManager(srvCfg, reg, logger)
			if err := srv.Start(); err != nil {
				logger.Warn("metrics server not started", zap.Error(err))
			} else {
				defer func() { _ = srv.Shutdown(context.Background()) }()
			}
		}
	}

	// 连接生成能力
	gen, provider, model, err := connect(ctx, cfg.LLM, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to connect text generator: %v\n", err)
		return 1
	}
	if collector != nil {
		gen = collector.InstrumentGenerator(gen, provider, model)
	}
	gen = llm.NewRateLimited(gen, cfg.LLM.RateLimitRPS, cfg.LLM.RateLimitBurst)

	// 创建 Agent
	first, err := newAgent(cfg.Game.Agent1Name, gen, cfg, providers, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create agent: %v\n", err)
		return 1
	}
	second, err := newAgent(cfg.Game.Agent2Name, gen, cfg, providers, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create agent: %v\n", err)
		return 1
	}

	// 运行对局
	reporter := game.NewReporter(stdout)
	opts := []game.Option{
		game.WithLogger(logger),
		game.WithTracer(providers.Tracer(instrumentationGame)),
		game.WithReporter(reporter),
	}
	if collector != nil {
		opts = append(opts, game.WithRecorder(collector))
	}
	g := game.New(first, second, game.Config{
		MaxTurns:   cfg.Game.MaxTurns,
		MaxRetries: cfg.Game.MaxRetries,
		Timeout:    cfg.Game.Timeout,
	}, opts...)

	res := g.Play(ctx)

	if cfg.Game.SaveLog {
		path, err := res.SaveJSON(cfg.Game.LogDir, time.Now())
		if err != nil {
			logger.Error("failed to save game log", zap.Error(err))
			fmt.Fprintf(stderr, "Failed to save game log: %v\n", err)
		} else {
			reporter.Saved(path)
		}
	}

	return 0
}

func newAgent(name string, gen llm.TextGenerator, cfg *config.Config, providers *telemetry.Providers, logger *zap.Logger) (*agent.ShiritoriAgent, error) {
	opts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithTimeout(cfg.Game.Timeout),
		agent.WithConfig(map[string]any{
			"model":       cfg.LLM.Model,
			"temperature": cfg.LLM.Temperature,
		}),
	}
	obs, err := providers.MessageObserver(name)
	if err != nil {
		logger.Warn("message metrics disabled", zap.String("agent", name), zap.Error(err))
	} else {
		opts = append(opts, agent.WithMessageObserver(obs))
	}
	return agent.NewShiritoriAgent(name, gen, opts...)
}
