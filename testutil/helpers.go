package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/BaSui01/shiritori/types"
	"github.com/stretchr/testify/assert"
)

// DefaultTestTimeout 是单个测试中一局对局或一次收发的上限
const DefaultTestTimeout = 10 * time.Second

// TestContext 返回带上限的上下文, 测试结束时自动取消.
// 卡住的生成器或处理器会让测试失败而不是挂起.
func TestContext(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)
	t.Cleanup(cancel)
	return ctx
}

// CancellableContext 同 TestContext, 另外返回 cancel 供测试中途打断
func CancellableContext(t testing.TB) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)
	t.Cleanup(cancel)
	return ctx, cancel
}

// CancelDuringGenerate 返回一个生成函数: 调用时触发 cancel, 然后阻塞到 ctx 结束.
// 配合 mocks.MockGenerator.WithGenerateFunc 模拟生成途中按下 Ctrl-C.
func CancelDuringGenerate(cancel context.CancelFunc) func(ctx context.Context, prompt string) (string, error) {
	return func(ctx context.Context, prompt string) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	}
}

// AssertErrorCode 断言 err 是 (或包裹了) 带指定错误码的 *types.Error
func AssertErrorCode(t testing.TB, err error, code types.ErrorCode) bool {
	t.Helper()
	if !assert.Error(t, err) {
		return false
	}
	return assert.Equal(t, code, types.GetErrorCode(err), "error: %v", err)
}
