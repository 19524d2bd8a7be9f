package game

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BaSui01/shiritori/agent"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// Reporter 将对局过程写成控制台记录. nil Reporter 不输出任何内容.
type Reporter struct {
	w io.Writer
}

// NewReporter 创建写入 w 的 Reporter
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) printf(format string, args ...any) {
	if r == nil || r.w == nil {
		return
	}
	fmt.Fprintf(r.w, format, args...)
}

// Header 输出对局头部
func (r *Reporter) Header(first, second string, maxTurns int, timeout time.Duration) {
	r.printf("%s\n", heavyRule)
	r.printf("🎮 しりとりゲーム - A2Aプロトコル版\n")
	r.printf("%s\n", heavyRule)
	r.printf("参加者: %s 🆚 %s\n", first, second)
	r.printf("最大ターン数: %d\n", maxTurns)
	if timeout > 0 {
		r.printf("タイムアウト: %.1f秒\n", timeout.Seconds())
	}
	r.printf("%s\n\n", heavyRule)
	r.printf("🎬 ゲーム開始！\n\n")
}

// Turn 输出一条出手记录
func (r *Reporter) Turn(e LogEntry) {
	r.printf("ターン %3d | %-8s | 「%s」 (%.2f秒)\n", e.Turn, e.Agent, e.Word, e.ElapsedTime)
}

// Failure 输出一次失败的出手
func (r *Reporter) Failure(agentName, message string) {
	r.printf("\n❌ %s がエラー: %s\n", agentName, message)
}

// GameOver 输出结束横幅
func (r *Reporter) GameOver(res *Result) {
	r.printf("\n%s\n", heavyRule)
	r.printf("🏁 ゲーム終了\n")
	r.printf("%s\n", heavyRule)
	r.printf("終了理由: %s\n", res.Reason)
	if res.Winner != nil {
		r.printf("🎉 勝者: %s\n", *res.Winner)
	} else {
		r.printf("🤝 引き分け\n")
	}
	r.printf("%s\n", heavyRule)
}

// Statistics 输出双方统计与整体接龙
func (r *Reporter) Statistics(res *Result, stats ...agent.Stats) {
	r.printf("\n📊 ゲーム統計\n")
	r.printf("%s\n", lightRule)

	unique := make(map[string]struct{})
	for _, s := range stats {
		var words []string
		for _, h := range s.History {
			if h["agent"] == s.AgentName {
				if w, ok := h["word"].(string); ok {
					words = append(words, w)
				}
			}
		}
		r.printf("%s:\n", s.AgentName)
		r.printf("  - 発言回数: %d\n", len(words))
		r.printf("  - 使用単語: %s\n", strings.Join(words, ", "))
		for _, w := range s.UsedWords {
			unique[w] = struct{}{}
		}
	}

	r.printf("\n総ターン数: %d\n", len(res.GameLog))
	r.printf("使用単語数: %d\n", len(unique))
	r.printf("全使用単語: %s\n", strings.Join(res.Words(), " → "))
	r.printf("%s\n", lightRule)
}

// Saved 输出日志保存位置
func (r *Reporter) Saved(path string) {
	r.printf("\n📝 ゲームログを保存しました: %s\n", path)
}
