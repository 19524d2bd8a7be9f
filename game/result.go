package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Outcome 是对局的结局
type Outcome string

const (
	OutcomeWin   Outcome = "win"   // 有胜者
	OutcomeDraw  Outcome = "draw"  // 达到最大回合数
	OutcomeError Outcome = "error" // 意外错误或被中断
)

// LogEntry 是一条被接受的出手记录
type LogEntry struct {
	Turn        int     `json:"turn"`
	Agent       string  `json:"agent"`
	Word        string  `json:"word"`
	ElapsedTime float64 `json:"elapsed_time"`
}

// Result 是一局游戏的结果. Winner 为 nil 表示没有胜者.
type Result struct {
	Winner  *string    `json:"winner"`
	Reason  string     `json:"reason"`
	Turns   int        `json:"turns"`
	GameLog []LogEntry `json:"game_log"`
	Outcome Outcome    `json:"result"`
	// LosingWord 是以 ん 结尾的致负单词(如有).
	LosingWord string `json:"losing_word,omitempty"`
}

// WinnerName 返回胜者名, 没有胜者时返回空串
func (r *Result) WinnerName() string {
	if r.Winner == nil {
		return ""
	}
	return *r.Winner
}

// Words 返回按顺序排列的已接受单词
func (r *Result) Words() []string {
	words := make([]string, len(r.GameLog))
	for i, e := range r.GameLog {
		words[i] = e.Word
	}
	return words
}

// LogFileName 返回对局日志文件名 game_log_YYYYMMDD_HHMMSS.json
func LogFileName(now time.Time) string {
	return fmt.Sprintf("game_log_%s.json", now.Format("20060102_150405"))
}

// SaveJSON 将结果写入 dir 下的日志文件, 返回文件路径
func (r *Result) SaveJSON(dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, LogFileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create game log: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("encode game log: %w", err)
	}
	return path, nil
}
