// Package gemini 基于官方 google.golang.org/genai SDK 实现 Google Gemini
// 文本生成能力, 满足 llm.TextGenerator 接口。
//
// Provider 需要显式调用 Connect 建立客户端, 未连接时 Generate
// 返回 NOT_CONNECTED 错误。
package gemini
