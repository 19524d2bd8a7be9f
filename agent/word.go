package agent

import (
	"fmt"
	"strings"
	"unicode"
)

// ForbiddenMora 是以之结尾即判负的假名.
const ForbiddenMora = 'ん'

const (
	hiraganaFirst = '\u3040'
	hiraganaLast  = '\u309f'
)

// noiseChars 是生成文本中常见的标点与括号.
const noiseChars = "。、！？「」『』（）()"

// IsHiragana 报告 r 是否在平假名区段内.
func IsHiragana(r rune) bool {
	return r >= hiraganaFirst && r <= hiraganaLast
}

// CleanWord 清洗生成的文本: 去掉标点, 空白与括号, 只保留平假名并转小写.
func CleanWord(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		if unicode.IsSpace(r) || strings.ContainsRune(noiseChars, r) {
			continue
		}
		if IsHiragana(r) {
			sb.WriteRune(r)
		}
	}
	return strings.ToLower(sb.String())
}

// IsValidWord 检查单词非空且全部为平假名.
func IsValidWord(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !IsHiragana(r) {
			return false
		}
	}
	return true
}

// FirstRune 返回单词的首字符.
func FirstRune(word string) rune {
	for _, r := range word {
		return r
	}
	return 0
}

// LastRune 返回单词的末字符.
func LastRune(word string) rune {
	runes := []rune(word)
	if len(runes) == 0 {
		return 0
	}
	return runes[len(runes)-1]
}

// EndsWithForbidden 报告单词是否以 ん 结尾.
func EndsWithForbidden(word string) bool {
	return LastRune(word) == ForbiddenMora
}

// Validation 是对上一个单词的检查结果.
type Validation struct {
	Valid  bool
	Reason string
}

// ValidatePreviousWord 检查对手的单词: 形式合法且不以 ん 结尾.
func ValidatePreviousWord(word string) Validation {
	if !IsValidWord(word) {
		return Validation{Reason: fmt.Sprintf("無効な単語です: %s", word)}
	}
	if EndsWithForbidden(word) {
		return Validation{Reason: fmt.Sprintf("「ん」で終わっています: %s", word)}
	}
	return Validation{Valid: true}
}
