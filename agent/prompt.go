package agent

import (
	"fmt"
	"strings"
)

// RecentWordsWindow 是续接提示词中列出的最近单词数.
const RecentWordsWindow = 5

const startPrompt = `日本語のしりとりゲームを始めます。
最初の単語を1つだけ、ひらがなで答えてください。
「ん」で終わらない、一般的な名詞を選んでください。
単語のみを答えてください。`

// StartPrompt 返回开局提示词.
func StartPrompt() string {
	return startPrompt
}

// RespondPrompt 构建续接提示词.
func RespondPrompt(previous string, head rune, recent []string) string {
	return fmt.Sprintf(`しりとりゲームの続きです。
前の単語: %s
「%c」で始まる日本語の単語を1つだけ、ひらがなで答えてください。

ルール:
- 「%c」で始まる単語を選んでください
- 「ん」で終わらない単語を選んでください
- 既に使われた単語は使えません: %s
- 一般的な名詞を選んでください
- 単語のみを答えてください`, previous, head, head, strings.Join(recent, ", "))
}
