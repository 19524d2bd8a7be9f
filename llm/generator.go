package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/shiritori/types"
)

// TextGenerator 是代理依赖的文本生成能力: 给定提示词返回一段文本.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc 将普通函数适配为 TextGenerator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate 实现 TextGenerator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type generateOutcome struct {
	text string
	err  error
}

// Generate 在时限内调用生成能力. timeout <= 0 表示不设时限.
// 超时返回 CAPABILITY_TIMEOUT, 其他失败返回 CAPABILITY_ERROR;
// 已带错误码的错误原样返回.
func Generate(ctx context.Context, gen TextGenerator, prompt string, timeout time.Duration) (string, error) {
	if gen == nil {
		return "", types.NewError(types.ErrNotConnected, "テキスト生成機能が設定されていません")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan generateOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generateOutcome{err: fmt.Errorf("generator panic: %v", r)}
			}
		}()
		text, err := gen.Generate(ctx, prompt)
		done <- generateOutcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return "", classify(out.err, timeout)
		}
		return out.text, nil
	case <-ctx.Done():
		return "", classify(ctx.Err(), timeout)
	}
}

func classify(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.Errorf(types.ErrCapabilityTimeout, "タイムアウト: %s", timeout).
			WithCause(err).
			WithRetryable(true)
	}
	if types.GetErrorCode(err) != "" {
		return err
	}
	return types.NewError(types.ErrCapability, err.Error()).WithCause(err)
}
