package agent

import "errors"

var (
	// ErrGeneratorNotSet 文本生成能力未设置
	ErrGeneratorNotSet = errors.New("text generator not set")

	// ErrEmptyName Agent 名称为空
	ErrEmptyName = errors.New("agent name is empty")
)
