package agent

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/BaSui01/shiritori/agent/protocol/a2a"
	"github.com/BaSui01/shiritori/internal/ctxkeys"
	"github.com/BaSui01/shiritori/llm"
	"github.com/BaSui01/shiritori/types"
	"go.uber.org/zap"
)

// Action 是编排器调用 Agent 时的动作
type Action string

const (
	ActionStart   Action = "start"   // 出第一个词
	ActionRespond Action = "respond" // 接对手的词
)

// ContentAction 是单词消息 content 中 action 字段的取值
const ContentAction = "shiritori"

// Request 是 Process 的输入
type Request struct {
	Action   Action
	Opponent string
	Word     string
}

// TurnResult 是一次出手的结构化结果. 规则违例与生成失败都以结果返回, 不作为 error.
type TurnResult struct {
	Success    bool            `json:"success"`
	Word       string          `json:"word,omitempty"`
	Error      string          `json:"error,omitempty"`
	ErrorCode  types.ErrorCode `json:"error_code,omitempty"`
	IsGameOver bool            `json:"is_game_over"`
	Winner     string          `json:"winner,omitempty"`
	Message    map[string]any  `json:"message,omitempty"`
}

// ToMap 将结果转换为消息内容
func (r *TurnResult) ToMap() map[string]any {
	m := map[string]any{
		"success":      r.Success,
		"is_game_over": r.IsGameOver,
	}
	if r.Word != "" {
		m["word"] = r.Word
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	if r.ErrorCode != "" {
		m["error_code"] = string(r.ErrorCode)
	}
	if r.Winner != "" {
		m["winner"] = r.Winner
	}
	if r.Message != nil {
		m["message"] = r.Message
	}
	return m
}

// Stats 是 Agent 的对局统计
type Stats struct {
	AgentName      string         `json:"agent_name"`
	TurnCount      int            `json:"turn_count"`
	UsedWordsCount int            `json:"used_words_count"`
	UsedWords      []string       `json:"used_words"`
	History        []HistoryEntry `json:"history"`
}

// Option 配置 ShiritoriAgent
type Option func(*ShiritoriAgent)

// WithLogger 设置日志实例
func WithLogger(logger *zap.Logger) Option {
	return func(a *ShiritoriAgent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTimeout 设置生成与处理器的等待时限
func WithTimeout(d time.Duration) Option {
	return func(a *ShiritoriAgent) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithConfig 设置自由配置
func WithConfig(cfg map[string]any) Option {
	return func(a *ShiritoriAgent) { a.initialConfig = cfg }
}

// WithMessageObserver 设置邮箱收发观察者
func WithMessageObserver(o a2a.Observer) Option {
	return func(a *ShiritoriAgent) { a.observer = o }
}

// ShiritoriAgent 是下しりとり的 Agent: 维护已用单词与对局状态,
// 调用文本生成能力出词并校验, 通过 A2A 邮箱把单词发给对手.
type ShiritoriAgent struct {
	*BaseAgent

	protocol  *a2a.Protocol
	generator llm.TextGenerator
	timeout   time.Duration
	logger    *zap.Logger

	initialConfig map[string]any
	observer      a2a.Observer

	mu          sync.Mutex
	usedWords   map[string]struct{}
	recent      []string
	currentWord string
	turnCount   int
	state       GameState
}

// NewShiritoriAgent 创建 Agent 并在其邮箱上注册 REQUEST 处理器
func NewShiritoriAgent(name string, generator llm.TextGenerator, opts ...Option) (*ShiritoriAgent, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if generator == nil {
		return nil, ErrGeneratorNotSet
	}

	a := &ShiritoriAgent{
		generator: generator,
		timeout:   a2a.DefaultTimeout,
		logger:    zap.NewNop(),
		usedWords: make(map[string]struct{}),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.BaseAgent = NewBaseAgent(name, a.initialConfig)
	a.logger = a.logger.With(zap.String("component", "shiritori_agent"), zap.String("agent", name))

	protoOpts := []a2a.ProtocolOption{a2a.WithLogger(a.logger)}
	if a.observer != nil {
		protoOpts = append(protoOpts, a2a.WithObserver(a.observer))
	}
	a.protocol = a2a.NewProtocol(name, a.timeout, protoOpts...)
	a.protocol.RegisterHandler(a2a.MessageTypeRequest, a.HandleRequest)

	return a, nil
}

// Protocol 返回 Agent 的邮箱
func (a *ShiritoriAgent) Protocol() *a2a.Protocol { return a.protocol }

// Timeout 返回等待时限
func (a *ShiritoriAgent) Timeout() time.Duration { return a.timeout }

// Process 执行一次出手. 已结束的对局返回 GAME_FINISHED.
func (a *ShiritoriAgent) Process(ctx context.Context, req Request) *TurnResult {
	if state := a.State(); state.IsTerminal() {
		return &TurnResult{
			Error:     fmt.Sprintf("ゲームは終了しています: %s", state),
			ErrorCode: types.ErrGameFinished,
		}
	}

	a.logger.Debug("processing request", append(ctxkeys.Fields(ctx),
		zap.String("action", string(req.Action)),
		zap.String("opponent", req.Opponent),
	)...)

	switch req.Action {
	case ActionStart:
		return a.Start(ctx, req.Opponent)
	case ActionRespond:
		return a.Respond(ctx, req.Word, req.Opponent)
	default:
		return &TurnResult{
			Error:     fmt.Sprintf("不明なアクション: %s", req.Action),
			ErrorCode: types.ErrUnknownAction,
		}
	}
}

// Start 生成开局单词并发给对手
func (a *ShiritoriAgent) Start(ctx context.Context, opponent string) *TurnResult {
	if opponent == "" {
		return &TurnResult{
			Error:     "相手のエージェント名が必要です",
			ErrorCode: types.ErrInvalidInput,
		}
	}
	a.enterPlaying()

	text, err := llm.Generate(ctx, a.generator, StartPrompt(), a.timeout)
	if err != nil {
		if types.IsCode(err, types.ErrCapabilityTimeout) {
			a.logger.Warn("start word generation timed out", zap.Duration("timeout", a.timeout))
			return &TurnResult{
				Error:     "タイムアウト: 単語生成に時間がかかりすぎました",
				ErrorCode: types.ErrCapabilityTimeout,
				Winner:    opponent,
			}
		}
		a.logger.Warn("start word generation failed", zap.Error(err))
		return &TurnResult{
			Error:     fmt.Sprintf("エラー: %v", err),
			ErrorCode: capabilityCode(err),
		}
	}

	word := CleanWord(text)
	if !IsValidWord(word) {
		return &TurnResult{
			Error:     fmt.Sprintf("無効な単語が生成されました: %s", word),
			ErrorCode: types.ErrInvalidWord,
		}
	}

	a.mu.Lock()
	a.useWord(word)
	a.currentWord = word
	a.turnCount = 1
	a.mu.Unlock()

	return a.emit(word, 1, opponent)
}

// Respond 接对手的单词. 生成的单词依次检查: 形式, 首字, 重复, ん 结尾;
// 任一失败即判对手胜. ん 结尾时结果中仍带有该单词.
func (a *ShiritoriAgent) Respond(ctx context.Context, previousWord, opponent string) *TurnResult {
	if previousWord == "" || opponent == "" {
		return &TurnResult{
			Error:     "前の単語と相手の名前が必要です",
			ErrorCode: types.ErrInvalidInput,
		}
	}

	previous := CleanWord(previousWord)
	if v := ValidatePreviousWord(previous); !v.Valid {
		return &TurnResult{
			Error:     v.Reason,
			ErrorCode: types.ErrInvalidWord,
		}
	}
	a.enterPlaying()

	a.mu.Lock()
	a.useWord(previous)
	recent := a.recentWords()
	a.mu.Unlock()

	head := LastRune(previous)
	text, err := llm.Generate(ctx, a.generator, RespondPrompt(previous, head, recent), a.timeout)
	if err != nil {
		if types.IsCode(err, types.ErrCapabilityTimeout) {
			a.logger.Warn("respond generation timed out", zap.Duration("timeout", a.timeout))
			return a.lose(opponent, types.ErrCapabilityTimeout, "タイムアウト: 応答時間切れです", "")
		}
		a.logger.Warn("respond generation failed", zap.Error(err))
		return a.lose(opponent, capabilityCode(err), fmt.Sprintf("エラー: %v", err), "")
	}

	word := CleanWord(text)
	switch {
	case !IsValidWord(word):
		return a.lose(opponent, types.ErrInvalidWord, fmt.Sprintf("無効な単語が生成されました: %s", word), "")
	case FirstRune(word) != head:
		return a.lose(opponent, types.ErrInvalidWord, fmt.Sprintf("「%c」で始まっていません: %s", head, word), "")
	case a.isUsed(word):
		return a.lose(opponent, types.ErrInvalidWord, fmt.Sprintf("既に使われた単語です: %s", word), "")
	case EndsWithForbidden(word):
		return a.lose(opponent, types.ErrInvalidWord, fmt.Sprintf("「ん」で終わってしまいました: %s", word), word)
	}

	a.mu.Lock()
	a.useWord(word)
	a.currentWord = word
	a.turnCount++
	turn := a.turnCount
	a.mu.Unlock()

	return a.emit(word, turn, opponent)
}

// HandleRequest 是注册在邮箱上的 REQUEST 处理器: 对收到的单词作出回应.
func (a *ShiritoriAgent) HandleRequest(ctx context.Context, msg *a2a.Message) (map[string]any, error) {
	word, _ := msg.Content["word"].(string)
	if word == "" {
		return map[string]any{"error": "単語が含まれていません"}, nil
	}
	return a.Respond(ctx, word, msg.Sender).ToMap(), nil
}

// emit 把通过校验的单词发给对手并记入历史.
func (a *ShiritoriAgent) emit(word string, turn int, opponent string) *TurnResult {
	msg := a.protocol.SendMessage(opponent, a2a.MessageTypeRequest, map[string]any{
		"word":   word,
		"turn":   turn,
		"action": ContentAction,
	}, nil)

	a.AddToHistory(HistoryEntry{
		"turn":  turn,
		"agent": a.Name(),
		"word":  word,
	})
	a.logger.Debug("word played", zap.String("word", word), zap.Int("turn", turn))

	return &TurnResult{
		Success: true,
		Word:    word,
		Message: msg.ToMap(),
	}
}

func (a *ShiritoriAgent) lose(opponent string, code types.ErrorCode, reason, word string) *TurnResult {
	a.logger.Info("turn lost", zap.String("reason", reason), zap.String("winner", opponent))
	return &TurnResult{
		Word:       word,
		Error:      reason,
		ErrorCode:  code,
		IsGameOver: true,
		Winner:     opponent,
	}
}

func capabilityCode(err error) types.ErrorCode {
	if code := types.GetErrorCode(err); code != "" {
		return code
	}
	return types.ErrCapability
}

// useWord 调用方需持有 a.mu.
func (a *ShiritoriAgent) useWord(word string) {
	if _, ok := a.usedWords[word]; ok {
		return
	}
	a.usedWords[word] = struct{}{}
	a.recent = append(a.recent, word)
}

// recentWords 调用方需持有 a.mu.
func (a *ShiritoriAgent) recentWords() []string {
	start := max(len(a.recent)-RecentWordsWindow, 0)
	return slices.Clone(a.recent[start:])
}

func (a *ShiritoriAgent) isUsed(word string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.usedWords[word]
	return ok
}

func (a *ShiritoriAgent) enterPlaying() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateIdle {
		a.state = StatePlaying
	}
}

// Finish 将 Agent 标记为终态. 对同一终态重复调用是安全的.
func (a *ShiritoriAgent) Finish(to GameState) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == to && to.IsTerminal() {
		return nil
	}
	if !to.IsTerminal() || !CanTransition(a.state, to) {
		return types.NewError(types.ErrInvalidTransition, "cannot finish game").
			WithCause(ErrInvalidTransition{From: a.state, To: to})
	}
	a.state = to
	a.logger.Debug("game finished", zap.String("state", string(to)))
	return nil
}

// Reset 清空对局状态, 历史与邮箱历史, 保留身份与处理器.
func (a *ShiritoriAgent) Reset() {
	a.mu.Lock()
	a.usedWords = make(map[string]struct{})
	a.recent = nil
	a.currentWord = ""
	a.turnCount = 0
	a.state = StateIdle
	a.mu.Unlock()

	a.ClearHistory()
	a.protocol.ClearHistory()
}

// State 返回当前对局状态
func (a *ShiritoriAgent) State() GameState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// CurrentWord 返回最近一次出的单词
func (a *ShiritoriAgent) CurrentWord() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentWord
}

// TurnCount 返回本 Agent 的出手次数
func (a *ShiritoriAgent) TurnCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.turnCount
}

// UsedWords 返回已用单词(排序后)
func (a *ShiritoriAgent) UsedWords() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	words := make([]string, 0, len(a.usedWords))
	for w := range a.usedWords {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}

// Stats 返回对局统计
func (a *ShiritoriAgent) Stats() Stats {
	words := a.UsedWords()
	return Stats{
		AgentName:      a.Name(),
		TurnCount:      a.TurnCount(),
		UsedWordsCount: len(words),
		UsedWords:      words,
		History:        a.History(),
	}
}

func (a *ShiritoriAgent) String() string {
	return fmt.Sprintf("ShiritoriAgent(name=%q, history_length=%d)", a.Name(), len(a.History()))
}
