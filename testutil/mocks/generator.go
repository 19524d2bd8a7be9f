// MockGenerator 是文本生成能力的测试模拟实现。
//
// 支持按顺序返回的响应队列、错误注入与延迟模拟。
package mocks

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoResponse 表示响应队列已耗尽且没有默认响应.
var ErrNoResponse = errors.New("mock generator: no response configured")

// --- MockGenerator 结构 ---

// MockGenerator 是 llm.TextGenerator 的模拟实现
type MockGenerator struct {
	mu sync.Mutex

	// 响应配置
	responses []string
	fallback  string
	errs      map[int]error
	err       error

	// 调用记录
	calls        []MockGeneratorCall
	generateFunc func(ctx context.Context, prompt string) (string, error)

	// 行为控制
	delay time.Duration
}

// MockGeneratorCall 记录单次调用
type MockGeneratorCall struct {
	Prompt   string
	Response string
	Error    error
}

// --- 构造函数和 Builder 方法 ---

// NewMockGenerator 创建新的 MockGenerator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		errs: make(map[int]error),
	}
}

// WithResponses 追加按顺序返回的响应
func (m *MockGenerator) WithResponses(responses ...string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// WithResponse 设置队列耗尽后的固定响应
func (m *MockGenerator) WithResponse(response string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
	return m
}

// WithError 设置每次调用都返回的错误
func (m *MockGenerator) WithError(err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithErrorAt 设置第 n 次调用(从 1 开始)返回错误, 不消耗响应队列
func (m *MockGenerator) WithErrorAt(n int, err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[n] = err
	return m
}

// WithDelay 设置响应延迟, 上下文取消时提前返回
func (m *MockGenerator) WithDelay(d time.Duration) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithGenerateFunc 设置自定义 Generate 函数
func (m *MockGenerator) WithGenerateFunc(fn func(ctx context.Context, prompt string) (string, error)) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateFunc = fn
	return m
}

// --- TextGenerator 接口实现 ---

// Generate 返回下一个配置的响应
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	delay := m.delay
	fn := m.generateFunc
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			m.record(prompt, "", ctx.Err())
			return "", ctx.Err()
		}
	}

	if fn != nil {
		text, err := fn(ctx, prompt)
		m.record(prompt, text, err)
		return text, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.calls) + 1
	var (
		text string
		err  error
	)
	switch {
	case m.err != nil:
		err = m.err
	case m.errs[n] != nil:
		err = m.errs[n]
	case len(m.responses) > 0:
		text = m.responses[0]
		m.responses = m.responses[1:]
	case m.fallback != "":
		text = m.fallback
	default:
		err = ErrNoResponse
	}
	m.calls = append(m.calls, MockGeneratorCall{Prompt: prompt, Response: text, Error: err})
	return text, err
}

func (m *MockGenerator) record(prompt, text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockGeneratorCall{Prompt: prompt, Response: text, Error: err})
}

// --- 调用记录查询 ---

// GetCalls 返回所有调用记录
func (m *MockGenerator) GetCalls() []MockGeneratorCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockGeneratorCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 返回调用次数
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastPrompt 返回最近一次的提示词
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1].Prompt
}

// Reset 清空调用记录
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
