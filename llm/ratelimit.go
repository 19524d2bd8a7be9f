package llm

import (
	"context"

	"github.com/BaSui01/shiritori/types"
	"golang.org/x/time/rate"
)

// RateLimited 在调用底层生成能力前按令牌桶限流.
type RateLimited struct {
	next    TextGenerator
	limiter *rate.Limiter
}

// NewRateLimited 创建限流包装. rps <= 0 时不限流.
func NewRateLimited(next TextGenerator, rps float64, burst int) *RateLimited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Generate 等待令牌后调用底层生成能力.
func (r *RateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", types.NewError(types.ErrCapability, "rate limit wait failed").WithCause(err)
	}
	return r.next.Generate(ctx, prompt)
}
