// Package ctxkeys 定义在对局调用链上传递的 context 值.
package ctxkeys

import (
	"context"

	"go.uber.org/zap"
)

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	gameIDKey contextKey = "game_id"
	turnKey   contextKey = "turn"
)

// WithGameID 设置对局 ID
func WithGameID(ctx context.Context, gameID string) context.Context {
	return context.WithValue(ctx, gameIDKey, gameID)
}

// GameID 获取对局 ID
func GameID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(gameIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithTurn 设置当前回合号
func WithTurn(ctx context.Context, turn int) context.Context {
	return context.WithValue(ctx, turnKey, turn)
}

// Turn 获取当前回合号
func Turn(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(turnKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Fields 返回 ctx 中已设置的值对应的日志字段
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id, ok := GameID(ctx); ok {
		fields = append(fields, zap.String("game_id", id))
	}
	if turn, ok := Turn(ctx); ok {
		fields = append(fields, zap.Int("turn", turn))
	}
	return fields
}
