// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/BaSui01/shiritori/llm"
	"github.com/BaSui01/shiritori/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器, 实现 game.Recorder
type Collector struct {
	// 对局指标
	gamesTotal *prometheus.CounterVec
	gameTurns  prometheus.Histogram

	// 出手指标
	turnsTotal   *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec

	// LLM 指标
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec

	// Agent 指标
	agentStateTransitions *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器. reg 为 nil 时注册到默认 Registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 对局指标
	c.gamesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_total",
			Help:      "Total number of finished games",
		},
		[]string{"outcome"}, // outcome: win, draw, error
	)

	c.gameTurns = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "game_turns",
			Help:      "Accepted turns per game",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// 出手指标
	c.turnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of turns taken",
		},
		[]string{"agent", "status"}, // status: ok, failed, game_over
	)

	c.turnDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Turn duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 180},
		},
		[]string{"agent"},
	)

	// LLM 指标
	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.llmRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	// Agent 指标
	c.agentStateTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_state_transitions_total",
			Help:      "Total number of agent state transitions",
		},
		[]string{"agent", "state"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎮 对局指标记录
// =============================================================================

// RecordGame 记录一局结束
func (c *Collector) RecordGame(outcome string, turns int) {
	c.gamesTotal.WithLabelValues(outcome).Inc()
	c.gameTurns.Observe(float64(turns))
}

// RecordTurn 记录一次出手
func (c *Collector) RecordTurn(agentName, status string, elapsed time.Duration) {
	c.turnsTotal.WithLabelValues(agentName, status).Inc()
	c.turnDuration.WithLabelValues(agentName).Observe(elapsed.Seconds())
}

// RecordStateTransition 记录 Agent 进入某个状态
func (c *Collector) RecordStateTransition(agentName, state string) {
	c.agentStateTransitions.WithLabelValues(agentName, state).Inc()
}

// =============================================================================
// 🤖 LLM 指标记录
// =============================================================================

// RecordLLMRequest 记录 LLM 请求
func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration) {
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// InstrumentGenerator 包装 gen, 记录每次生成的结果与耗时
func (c *Collector) InstrumentGenerator(gen llm.TextGenerator, provider, model string) llm.TextGenerator {
	return llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		start := time.Now()
		text, err := gen.Generate(ctx, prompt)
		c.RecordLLMRequest(provider, model, requestStatus(err), time.Since(start))
		if err != nil {
			c.logger.Debug("llm request failed",
				zap.String("provider", provider),
				zap.String("model", model),
				zap.Error(err),
			)
		}
		return text, err
	})
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// requestStatus 将生成错误归类为 success / timeout / error
func requestStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded), types.IsCode(err, types.ErrCapabilityTimeout):
		return "timeout"
	default:
		return "error"
	}
}
