// =============================================================================
// しりとり OpenTelemetry 初始化
// =============================================================================
// 为对局建立 TracerProvider / MeterProvider, 并在 Init 中注册邮箱消息计数器.
// 遥测关闭时不创建导出器, 计数器落在全局 (默认 noop) MeterProvider 上.
// =============================================================================

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/BaSui01/shiritori/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// instrumentationName 是本包注册的仪表所属的 scope
const instrumentationName = "github.com/BaSui01/shiritori/internal/telemetry"

// resource 上的对局属性键
const (
	AttrAgent1   = attribute.Key("shiritori.agent1")
	AttrAgent2   = attribute.Key("shiritori.agent2")
	AttrMaxTurns = attribute.Key("shiritori.max_turns")
	AttrModel    = attribute.Key("shiritori.model")
)

// Match 描述一次运行中的对局, 作为 resource 属性随所有 span 和指标导出
type Match struct {
	Agent1   string
	Agent2   string
	MaxTurns int
	Model    string
}

func (m Match) attributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if m.Agent1 != "" {
		attrs = append(attrs, AttrAgent1.String(m.Agent1))
	}
	if m.Agent2 != "" {
		attrs = append(attrs, AttrAgent2.String(m.Agent2))
	}
	if m.MaxTurns > 0 {
		attrs = append(attrs, AttrMaxTurns.Int(m.MaxTurns))
	}
	if m.Model != "" {
		attrs = append(attrs, AttrModel.String(m.Model))
	}
	return attrs
}

type options struct {
	match        Match
	spanExporter sdktrace.SpanExporter
	metricReader sdkmetric.Reader
}

// Option 调整 Init
type Option func(*options)

// WithMatch 把对局信息写入 resource
func WithMatch(m Match) Option {
	return func(o *options) { o.match = m }
}

// WithSpanExporter 用给定导出器替代 OTLP/gRPC, span 结束即同步导出
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.spanExporter = exp }
}

// WithMetricReader 用给定 reader 替代周期性 OTLP/gRPC 导出
func WithMetricReader(r sdkmetric.Reader) Option {
	return func(o *options) { o.metricReader = r }
}

// Providers 持有 SDK provider 与共享的邮箱消息计数器.
// 遥测关闭时 tp/mp 为 nil.
type Providers struct {
	tp       *sdktrace.TracerProvider
	mp       *sdkmetric.MeterProvider
	messages metric.Int64Counter
}

// Init 初始化遥测. cfg.Enabled 为 false 时不连接任何外部服务.
func Init(cfg config.TelemetryConfig, logger *zap.Logger, opts ...Option) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "telemetry"))

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled {
		counter, err := newMessageCounter(otel.Meter(instrumentationName))
		if err != nil {
			return nil, err
		}
		logger.Info("telemetry disabled, using global providers")
		return &Providers{messages: counter}, nil
	}

	ctx := context.Background()

	res, err := newResource(ctx, cfg.ServiceName, o.match)
	if err != nil {
		return nil, err
	}

	tp, err := newTracerProvider(ctx, cfg, res, o.spanExporter)
	if err != nil {
		return nil, err
	}

	mp, err := newMeterProvider(ctx, cfg, res, o.metricReader)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	counter, err := newMessageCounter(mp.Meter(instrumentationName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry initialized",
		zap.String("endpoint", cfg.OTLPEndpoint),
		zap.String("service_name", cfg.ServiceName),
		zap.Float64("sample_rate", cfg.SampleRate),
		zap.String("agent1", o.match.Agent1),
		zap.String("agent2", o.match.Agent2),
	)

	return &Providers{tp: tp, mp: mp, messages: counter}, nil
}

func newResource(ctx context.Context, serviceName string, m Match) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(buildVersion()),
	}, m.attributes()...)

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}
	return res, nil
}

func newTracerProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, exp sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	// 对局 span 与回合 span 同进同退
	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))

	if exp != nil {
		return sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exp),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sampler),
		), nil
	}

	otlp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(otlp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	), nil
}

func newMeterProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, reader sdkmetric.Reader) (*sdkmetric.MeterProvider, error) {
	if reader == nil {
		otlp, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(otlp)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	), nil
}

// Tracer 返回 SDK provider 的 tracer; 遥测关闭时回退到全局 provider.
func (p *Providers) Tracer(name string) trace.Tracer {
	if p == nil || p.tp == nil {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Meter 返回 SDK provider 的 meter; 遥测关闭时回退到全局 provider.
func (p *Providers) Meter(name string) metric.Meter {
	if p == nil || p.mp == nil {
		return otel.Meter(name)
	}
	return p.mp.Meter(name)
}

// MessageObserver 返回计入共享消息计数器的 agentName 观察者.
// Init 失败得到的 nil Providers 也可以调用.
func (p *Providers) MessageObserver(agentName string) (*MessageObserver, error) {
	if p == nil || p.messages == nil {
		return NewMessageObserver(otel.Meter(instrumentationName), agentName)
	}
	return newObserver(p.messages, agentName), nil
}

// Shutdown 导出剩余的 span/指标并关闭导出器. nil 或关闭状态下为空操作.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tp != nil {
		if err := p.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if p.mp != nil {
		if err := p.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// buildVersion 取模块版本, 取不到时为 "dev"
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}
