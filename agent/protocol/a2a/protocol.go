package a2a

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BaSui01/shiritori/types"
	"go.uber.org/zap"
)

// DefaultTimeout 是处理器的默认等待时限.
const DefaultTimeout = 180 * time.Second

// Handler 处理一条收到的消息, 返回的内容作为 RESPONSE 发回发送方.
// 返回空内容表示无需回复.
type Handler func(ctx context.Context, msg *Message) (map[string]any, error)

// Observer 观察邮箱的发送与接收, 用于指标采集.
type Observer interface {
	ObserveMessage(direction string, msgType MessageType)
}

// History 是邮箱历史的序列化快照.
type History struct {
	Sent     []map[string]any `json:"sent"`
	Received []map[string]any `json:"received"`
}

// Protocol 是单个代理的邮箱: 创建外发消息, 在时限内分发收到的消息, 记录收发历史.
type Protocol struct {
	agentName string
	timeout   time.Duration
	logger    *zap.Logger
	observer  Observer

	mu       sync.Mutex
	handlers map[MessageType]Handler
	sent     *messageLog
	received *messageLog
}

// ProtocolOption 配置 Protocol.
type ProtocolOption func(*Protocol)

// WithLogger 设置日志实例.
func WithLogger(logger *zap.Logger) ProtocolOption {
	return func(p *Protocol) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver 设置收发观察者.
func WithObserver(o Observer) ProtocolOption {
	return func(p *Protocol) { p.observer = o }
}

// NewProtocol 为给定代理创建邮箱. timeout <= 0 时使用 DefaultTimeout.
func NewProtocol(agentName string, timeout time.Duration, opts ...ProtocolOption) *Protocol {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p := &Protocol{
		agentName: agentName,
		timeout:   timeout,
		logger:    zap.NewNop(),
		handlers:  make(map[MessageType]Handler),
		sent:      newMessageLog(),
		received:  newMessageLog(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("component", "a2a_protocol"), zap.String("agent", agentName))
	return p
}

// AgentName 返回邮箱所属代理名.
func (p *Protocol) AgentName() string { return p.agentName }

// Timeout 返回默认等待时限.
func (p *Protocol) Timeout() time.Duration { return p.timeout }

// RegisterHandler 为消息类型注册处理器, 重复注册时后者覆盖前者.
func (p *Protocol) RegisterHandler(msgType MessageType, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[msgType] = handler
}

// SendMessage 创建一条外发消息, 标记为 SENT 并记入发送历史.
// 这是本地抽象, 不做任何网络 I/O.
func (p *Protocol) SendMessage(receiver string, msgType MessageType, content, metadata map[string]any) *Message {
	msg := NewMessage(msgType, p.agentName, receiver, content, metadata)
	// pending -> sent 总是合法
	_ = msg.Advance(StatusSent)

	p.mu.Lock()
	p.sent.put(msg)
	p.mu.Unlock()

	if p.observer != nil {
		p.observer.ObserveMessage("sent", msgType)
	}
	p.logger.Debug("message sent",
		zap.String("message_id", msg.ID),
		zap.String("receiver", receiver),
		zap.String("message_type", msgType.String()),
	)
	return msg
}

// ReceiveMessage 接收发给本代理的消息并分发给已注册的处理器.
// 已处于 received 或终态的消息会被拒绝 (ErrStatusRegression).
// 接收方不匹配时返回 RECEIVER_MISMATCH 错误且不修改历史.
// timeout <= 0 时使用默认时限. 没有处理器或处理器返回空内容时返回 nil.
func (p *Protocol) ReceiveMessage(ctx context.Context, msg *Message, timeout time.Duration) (*Message, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	if msg.Receiver != p.agentName {
		return nil, types.Errorf(types.ErrReceiverMismatch,
			"メッセージの受信者が一致しません: 期待=%s, 実際=%s", p.agentName, msg.Receiver)
	}

	if err := msg.Advance(StatusReceived); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.received.put(msg)
	handler := p.handlers[msg.Type]
	p.mu.Unlock()

	if p.observer != nil {
		p.observer.ObserveMessage("received", msg.Type)
	}

	if handler == nil {
		return nil, nil
	}
	if timeout <= 0 {
		timeout = p.timeout
	}

	result, err := p.invoke(ctx, handler, msg, timeout)
	switch {
	case errors.Is(err, ErrHandlerTimeout):
		_ = msg.Advance(StatusFailed)
		p.logger.Warn("handler timed out",
			zap.String("message_id", msg.ID),
			zap.Duration("timeout", timeout),
		)
		return p.SendMessage(msg.Sender, MessageTypeTimeout,
			map[string]any{"error": "タイムアウト"},
			map[string]any{MetadataRequestID: msg.ID},
		), nil
	case err != nil:
		_ = msg.Advance(StatusFailed)
		p.logger.Warn("handler failed",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return p.SendMessage(msg.Sender, MessageTypeError,
			map[string]any{"error": err.Error()},
			map[string]any{MetadataRequestID: msg.ID},
		), nil
	}

	_ = msg.Advance(StatusProcessed)
	if len(result) == 0 {
		return nil, nil
	}
	return p.SendMessage(msg.Sender, MessageTypeResponse, result,
		map[string]any{MetadataRequestID: msg.ID},
	), nil
}

type handlerOutcome struct {
	content map[string]any
	err     error
}

// invoke 在时限内运行处理器, 超时后不再等待其结果.
func (p *Protocol) invoke(ctx context.Context, handler Handler, msg *Message, timeout time.Duration) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- handlerOutcome{err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		content, err := handler(ctx, msg)
		done <- handlerOutcome{content: content, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return nil, ErrHandlerTimeout
		}
		return out.content, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrHandlerTimeout
		}
		return nil, ctx.Err()
	}
}

// GetMessageHistory 返回收发历史的序列化快照, 按插入顺序排列.
func (p *Protocol) GetMessageHistory() History {
	p.mu.Lock()
	defer p.mu.Unlock()
	return History{
		Sent:     p.sent.snapshot(),
		Received: p.received.snapshot(),
	}
}

// SentCount 返回发送历史条数.
func (p *Protocol) SentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent.len()
}

// ReceivedCount 返回接收历史条数.
func (p *Protocol) ReceivedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.received.len()
}

// ClearHistory 清空收发历史, 不影响处理器.
func (p *Protocol) ClearHistory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent.clear()
	p.received.clear()
}

// String 返回邮箱摘要.
func (p *Protocol) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("Protocol(agent=%s, timeout=%s, sent=%d, received=%d)",
		p.agentName, p.timeout, p.sent.len(), p.received.len())
}

// messageLog 是按ID索引且保留插入顺序的消息记录.
type messageLog struct {
	order []string
	byID  map[string]*Message
}

func newMessageLog() *messageLog {
	return &messageLog{byID: make(map[string]*Message)}
}

func (l *messageLog) put(msg *Message) {
	if _, exists := l.byID[msg.ID]; !exists {
		l.order = append(l.order, msg.ID)
	}
	l.byID[msg.ID] = msg
}

func (l *messageLog) len() int { return len(l.order) }

func (l *messageLog) clear() {
	l.order = nil
	l.byID = make(map[string]*Message)
}

func (l *messageLog) snapshot() []map[string]any {
	out := make([]map[string]any, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id].ToMap())
	}
	return out
}
