package agent

import "fmt"

// GameState 定义一局游戏中 Agent 的状态
type GameState string

const (
	StateIdle    GameState = "idle"    // 未开始
	StatePlaying GameState = "playing" // 对局中
	StateWon     GameState = "won"     // 胜利
	StateLost    GameState = "lost"    // 失败
	StateDrawn   GameState = "drawn"   // 平局
	StateErrored GameState = "errored" // 异常结束
)

// validTransitions 定义合法的状态转换
var validTransitions = map[GameState][]GameState{
	StateIdle:    {StatePlaying, StateWon, StateLost, StateDrawn, StateErrored}, // 未出手即结束
	StatePlaying: {StateWon, StateLost, StateDrawn, StateErrored},
	StateWon:     {StateIdle}, // 仅通过 Reset
	StateLost:    {StateIdle},
	StateDrawn:   {StateIdle},
	StateErrored: {StateIdle},
}

// CanTransition 检查状态转换是否合法
func CanTransition(from, to GameState) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal 报告状态是否为终态
func (s GameState) IsTerminal() bool {
	switch s {
	case StateWon, StateLost, StateDrawn, StateErrored:
		return true
	default:
		return false
	}
}

// ErrInvalidTransition 非法状态转换错误
type ErrInvalidTransition struct {
	From GameState
	To   GameState
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}
