package game

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/shiritori/agent"
	"github.com/BaSui01/shiritori/internal/ctxkeys"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultMaxTurns 是默认的最大回合数
	DefaultMaxTurns = 20
	// DefaultMaxRetries 是同一位置非终局失败的默认重试次数
	DefaultMaxRetries = 2

	tracerName = "github.com/BaSui01/shiritori/game"
)

// 出手状态标签
const (
	TurnOK       = "ok"
	TurnFailed   = "failed"
	TurnGameOver = "game_over"
)

// Player 是编排器驱动的一方
type Player interface {
	Name() string
	Process(ctx context.Context, req agent.Request) *agent.TurnResult
	Finish(state agent.GameState) error
	Stats() agent.Stats
}

// Recorder 记录对局指标
type Recorder interface {
	RecordTurn(agentName, status string, elapsed time.Duration)
	RecordGame(outcome string, turns int)
	RecordStateTransition(agentName, state string)
}

// Config 是对局参数
type Config struct {
	MaxTurns   int
	MaxRetries int
	// Timeout 仅用于展示; 生成时限由 Agent 自己负责.
	Timeout time.Duration
}

// Option 配置 Game
type Option func(*Game)

// WithLogger 设置日志实例
func WithLogger(logger *zap.Logger) Option {
	return func(g *Game) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRecorder 设置指标记录器
func WithRecorder(r Recorder) Option {
	return func(g *Game) { g.recorder = r }
}

// WithTracer 设置 tracer, 默认使用全局 TracerProvider
func WithTracer(t trace.Tracer) Option {
	return func(g *Game) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithReporter 设置控制台记录器
func WithReporter(r *Reporter) Option {
	return func(g *Game) { g.reporter = r }
}

// Game 在两个 Player 之间运行接龙回合循环.
// 同一时间只有一个回合在进行.
type Game struct {
	first  Player
	second Player
	cfg    Config

	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer
	reporter *Reporter
}

// New 创建对局. first 总是出第一个词.
func New(first, second Player, cfg Config, opts ...Option) *Game {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	g := &Game{
		first:  first,
		second: second,
		cfg:    cfg,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(zap.String("component", "game"))
	return g
}

// Config 返回对局参数
func (g *Game) Config() Config { return g.cfg }

// session 是一局游戏的可变状态
type session struct {
	log  []LogEntry
	word string
}

// Play 运行一局游戏直到有人判负, 达到最大回合数, 或上下文被取消.
// 任何意外错误都会被捕获并报告为 error 结局.
func (g *Game) Play(ctx context.Context) (res *Result) {
	gameID := newGameID()
	ctx = ctxkeys.WithGameID(ctx, gameID)
	ctx, span := g.tracer.Start(ctx, "shiritori.game", trace.WithAttributes(
		attribute.String("shiritori.game_id", gameID),
		attribute.String("shiritori.first", g.first.Name()),
		attribute.String("shiritori.second", g.second.Name()),
		attribute.Int("shiritori.max_turns", g.cfg.MaxTurns),
	))
	defer span.End()

	s := &session{log: make([]LogEntry, 0, g.cfg.MaxTurns)}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("game panicked", zap.Any("panic", r))
			res = g.errored(s, fmt.Sprintf("予期しないエラー: %v", r))
			span.SetStatus(codes.Error, res.Reason)
		}
		g.finish(ctx, res)
		span.SetAttributes(
			attribute.String("shiritori.outcome", string(res.Outcome)),
			attribute.String("shiritori.winner", res.WinnerName()),
			attribute.Int("shiritori.turns", res.Turns),
		)
	}()

	g.reporter.Header(g.first.Name(), g.second.Name(), g.cfg.MaxTurns, g.cfg.Timeout)
	g.logger.Info("game started",
		zap.String("game_id", gameID),
		zap.String("first", g.first.Name()),
		zap.String("second", g.second.Name()),
		zap.Int("max_turns", g.cfg.MaxTurns),
	)

	opening := g.turn(ctx, g.first, agent.Request{Action: agent.ActionStart, Opponent: g.second.Name()}, 1)
	if !opening.result.Success {
		if err := ctx.Err(); err != nil {
			return g.interrupted(s, err)
		}
		g.reporter.Failure(g.first.Name(), opening.result.Error)
		return g.win(s, g.second, opening.result.Error, "")
	}
	g.accept(ctx, s, g.first, opening)
	if agent.EndsWithForbidden(s.word) {
		return g.win(s, g.second, forbiddenReason(g.first), s.word)
	}

	current, opponent := g.second, g.first
	retries := 0
	for len(s.log) < g.cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			return g.interrupted(s, err)
		}

		turnNo := len(s.log) + 1
		t := g.turn(ctx, current, agent.Request{
			Action:   agent.ActionRespond,
			Word:     s.word,
			Opponent: opponent.Name(),
		}, turnNo)

		if !t.result.Success {
			// 出手途中被取消时失败不归咎于该 Agent
			if err := ctx.Err(); err != nil {
				return g.interrupted(s, err)
			}
			msg := t.result.Error
			if msg == "" {
				msg = "不明なエラー"
			}
			g.reporter.Failure(current.Name(), msg)

			if t.result.IsGameOver {
				winner := opponent
				if t.result.Winner == current.Name() {
					winner = current
				}
				return g.win(s, winner, msg, t.result.Word)
			}

			retries++
			if retries > g.cfg.MaxRetries {
				return g.win(s, opponent,
					fmt.Sprintf("%sが%d回連続で失敗しました: %s", current.Name(), retries, msg), "")
			}
			g.logger.Warn("retrying turn",
				zap.String("agent", current.Name()),
				zap.Int("turn", turnNo),
				zap.Int("retry", retries),
				zap.String("error", msg),
			)
			continue
		}

		retries = 0
		g.accept(ctx, s, current, t)
		if agent.EndsWithForbidden(s.word) {
			return g.win(s, opponent, forbiddenReason(current), s.word)
		}
		current, opponent = opponent, current
	}

	return g.draw(s)
}

type turnOutcome struct {
	result  *agent.TurnResult
	number  int
	elapsed time.Duration
}

// turn 在单独的 span 中执行一次出手
func (g *Game) turn(ctx context.Context, p Player, req agent.Request, number int) turnOutcome {
	ctx = ctxkeys.WithTurn(ctx, number)
	ctx, span := g.tracer.Start(ctx, "shiritori.turn", trace.WithAttributes(
		attribute.String("shiritori.agent", p.Name()),
		attribute.String("shiritori.action", string(req.Action)),
		attribute.Int("shiritori.turn", number),
	))
	defer span.End()

	start := time.Now()
	result := p.Process(ctx, req)
	elapsed := time.Since(start)
	if result == nil {
		panic(fmt.Sprintf("%s returned no result", p.Name()))
	}

	status := TurnOK
	switch {
	case result.Success:
		span.SetAttributes(attribute.String("shiritori.word", result.Word))
	case result.IsGameOver:
		status = TurnGameOver
		span.SetStatus(codes.Error, result.Error)
	default:
		status = TurnFailed
		span.SetStatus(codes.Error, result.Error)
	}
	span.SetAttributes(attribute.String("shiritori.status", status))
	if g.recorder != nil {
		g.recorder.RecordTurn(p.Name(), status, elapsed)
	}

	return turnOutcome{result: result, number: number, elapsed: elapsed}
}

func (g *Game) accept(ctx context.Context, s *session, p Player, t turnOutcome) {
	s.word = t.result.Word
	entry := LogEntry{
		Turn:        t.number,
		Agent:       p.Name(),
		Word:        t.result.Word,
		ElapsedTime: t.elapsed.Seconds(),
	}
	s.log = append(s.log, entry)
	g.reporter.Turn(entry)
	g.logger.Debug("turn accepted", append(ctxkeys.Fields(ctx),
		zap.Int("turn", entry.Turn),
		zap.String("agent", entry.Agent),
		zap.String("word", entry.Word),
	)...)
}

func forbiddenReason(p Player) string {
	return fmt.Sprintf("%sが「ん」で終わる単語を言いました", p.Name())
}

func (g *Game) win(s *session, winner Player, reason, losingWord string) *Result {
	name := winner.Name()
	return &Result{
		Winner:     &name,
		Reason:     reason,
		Turns:      len(s.log),
		GameLog:    s.log,
		Outcome:    OutcomeWin,
		LosingWord: losingWord,
	}
}

func (g *Game) draw(s *session) *Result {
	return &Result{
		Reason:  fmt.Sprintf("最大ターン数（%d）に達しました", g.cfg.MaxTurns),
		Turns:   len(s.log),
		GameLog: s.log,
		Outcome: OutcomeDraw,
	}
}

func (g *Game) errored(s *session, reason string) *Result {
	return &Result{
		Reason:  reason,
		Turns:   len(s.log),
		GameLog: s.log,
		Outcome: OutcomeError,
	}
}

func (g *Game) interrupted(s *session, err error) *Result {
	return g.errored(s, fmt.Sprintf("中断されました: %v", err))
}

// finish 标记双方终态并输出结果
func (g *Game) finish(ctx context.Context, res *Result) {
	for _, p := range []Player{g.first, g.second} {
		state := agent.StateDrawn
		switch {
		case res.Outcome == OutcomeError:
			state = agent.StateErrored
		case res.Winner != nil && *res.Winner == p.Name():
			state = agent.StateWon
		case res.Winner != nil:
			state = agent.StateLost
		}
		if err := p.Finish(state); err != nil {
			g.logger.Warn("failed to mark agent", zap.String("agent", p.Name()), zap.Error(err))
			continue
		}
		if g.recorder != nil {
			g.recorder.RecordStateTransition(p.Name(), string(state))
		}
	}

	if g.recorder != nil {
		g.recorder.RecordGame(string(res.Outcome), res.Turns)
	}

	g.reporter.GameOver(res)
	if res.Outcome != OutcomeError {
		g.reporter.Statistics(res, g.first.Stats(), g.second.Stats())
	}

	g.logger.Info("game finished", append(ctxkeys.Fields(ctx),
		zap.String("outcome", string(res.Outcome)),
		zap.String("winner", res.WinnerName()),
		zap.String("reason", res.Reason),
		zap.Int("turns", res.Turns),
	)...)
}

// newGameID 返回按时间排序的对局 ID
func newGameID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
