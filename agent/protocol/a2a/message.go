package a2a

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/shiritori/types"
	"github.com/google/uuid"
)

// MessageType 代表 A2A 消息的类型.
type MessageType string

const (
	// MessageTypeRequest 表示请求消息.
	MessageTypeRequest MessageType = "request"
	// MessageTypeResponse 表示处理结果消息.
	MessageTypeResponse MessageType = "response"
	// MessageTypeError 表示处理出错消息.
	MessageTypeError MessageType = "error"
	// MessageTypeTimeout 表示处理超时消息.
	MessageTypeTimeout MessageType = "timeout"
)

// IsValid 检查消息类型是否为已知标签.
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeRequest, MessageTypeResponse, MessageTypeError, MessageTypeTimeout:
		return true
	default:
		return false
	}
}

// String 返回消息类型的字符串标签.
func (t MessageType) String() string {
	return string(t)
}

// ParseMessageType 将标签解析为消息类型, 未知标签一律拒绝.
func ParseMessageType(tag string) (MessageType, error) {
	t := MessageType(tag)
	if !t.IsValid() {
		return "", types.Errorf(types.ErrDeserialization, "unknown message_type %q", tag).WithKey("message_type")
	}
	return t, nil
}

// MessageStatus 代表消息在本地邮箱中的状态.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"   // 待发送
	StatusSent      MessageStatus = "sent"      // 已发送
	StatusReceived  MessageStatus = "received"  // 已接收
	StatusProcessed MessageStatus = "processed" // 已处理
	StatusFailed    MessageStatus = "failed"    // 处理失败
)

// statusRank 状态只能向前推进; processed 与 failed 同为终态.
var statusRank = map[MessageStatus]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusReceived:  2,
	StatusProcessed: 3,
	StatusFailed:    3,
}

// IsValid 检查状态是否为已知标签.
func (s MessageStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// String 返回状态的字符串标签.
func (s MessageStatus) String() string {
	return string(s)
}

// ParseMessageStatus 将标签解析为状态, 未知标签一律拒绝.
func ParseMessageStatus(tag string) (MessageStatus, error) {
	s := MessageStatus(tag)
	if !s.IsValid() {
		return "", types.Errorf(types.ErrDeserialization, "unknown status %q", tag).WithKey("status")
	}
	return s, nil
}

// CanAdvance 检查状态能否从 from 推进到 to.
func CanAdvance(from, to MessageStatus) bool {
	rf, okf := statusRank[from]
	rt, okt := statusRank[to]
	return okf && okt && rt > rf
}

// 元数据中指向原始请求的键.
const MetadataRequestID = "request_id"

// Message 代表代理间通信的一条消息.
type Message struct {
	// ID 是消息的唯一标识符(时间有序).
	ID string
	// Sender 是发送方代理名.
	Sender string
	// Receiver 是接收方代理名.
	Receiver string
	// Type 是消息类型.
	Type MessageType
	// Content 是消息内容.
	Content map[string]any
	// Metadata 是附加元数据, 通常带有 request_id.
	Metadata map[string]any
	// Timestamp 是消息创建时间.
	Timestamp time.Time
	// Status 是消息状态.
	Status MessageStatus
}

// NewMessageID 生成时间有序的消息ID.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// NewMessage 创建一条新消息, 带有生成的ID和当前时间戳.
func NewMessage(msgType MessageType, sender, receiver string, content, metadata map[string]any) *Message {
	if content == nil {
		content = make(map[string]any)
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Message{
		ID:        NewMessageID(),
		Sender:    sender,
		Receiver:  receiver,
		Type:      msgType,
		Content:   content,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
		Status:    StatusPending,
	}
}

// Advance 将状态向前推进, 拒绝回退.
func (m *Message) Advance(to MessageStatus) error {
	if !CanAdvance(m.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, m.Status, to)
	}
	m.Status = to
	return nil
}

// RequestID 返回元数据中的原始请求ID.
func (m *Message) RequestID() string {
	if m.Metadata == nil {
		return ""
	}
	id, _ := m.Metadata[MetadataRequestID].(string)
	return id
}

// IsReply 检查此消息是否是对另一条消息的回复.
func (m *Message) IsReply() bool {
	return m.RequestID() != ""
}

// CreateReply 创建发回原发送方的回复消息.
func (m *Message) CreateReply(msgType MessageType, content map[string]any) *Message {
	return NewMessage(msgType, m.Receiver, m.Sender, content, map[string]any{
		MetadataRequestID: m.ID,
	})
}

// Clone 创建消息的深层拷贝, 接收方持有自己的对象.
func (m *Message) Clone() *Message {
	return &Message{
		ID:        m.ID,
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Type:      m.Type,
		Content:   cloneMap(m.Content),
		Metadata:  cloneMap(m.Metadata),
		Timestamp: m.Timestamp,
		Status:    m.Status,
	}
}

// ToMap 将消息序列化为扁平键值结构, 枚举字段输出为字符串标签.
func (m *Message) ToMap() map[string]any {
	return map[string]any{
		"message_id":   m.ID,
		"sender":       m.Sender,
		"receiver":     m.Receiver,
		"message_type": m.Type.String(),
		"content":      cloneMap(m.Content),
		"metadata":     cloneMap(m.Metadata),
		"timestamp":    m.Timestamp.Format(time.RFC3339Nano),
		"status":       m.Status.String(),
	}
}

// FromMap 从扁平键值结构反序列化消息.
// sender, receiver, message_type, content 必须存在; 未知标签一律拒绝.
func FromMap(data map[string]any) (*Message, error) {
	sender, err := requiredString(data, "sender")
	if err != nil {
		return nil, err
	}
	receiver, err := requiredString(data, "receiver")
	if err != nil {
		return nil, err
	}
	tag, err := requiredString(data, "message_type")
	if err != nil {
		return nil, err
	}
	msgType, err := ParseMessageType(tag)
	if err != nil {
		return nil, err
	}

	rawContent, ok := data["content"]
	if !ok {
		return nil, missingKey("content")
	}
	content, ok := asMap(rawContent)
	if !ok {
		return nil, types.NewError(types.ErrDeserialization, "content must be an object").WithKey("content")
	}

	msg := &Message{
		Sender:   sender,
		Receiver: receiver,
		Type:     msgType,
		Content:  cloneMap(content),
		Metadata: make(map[string]any),
		Status:   StatusPending,
	}

	if v, ok := data["message_id"]; ok && v != nil {
		id, ok := v.(string)
		if !ok {
			return nil, types.NewError(types.ErrDeserialization, "message_id must be a string").WithKey("message_id")
		}
		msg.ID = id
	}

	if v, ok := data["metadata"]; ok && v != nil {
		meta, ok := asMap(v)
		if !ok {
			return nil, types.NewError(types.ErrDeserialization, "metadata must be an object").WithKey("metadata")
		}
		msg.Metadata = cloneMap(meta)
	}

	msg.Timestamp = time.Now().UTC()
	if v, ok := data["timestamp"]; ok && v != nil {
		raw, ok := v.(string)
		if !ok {
			return nil, types.NewError(types.ErrDeserialization, "timestamp must be a string").WithKey("timestamp")
		}
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, types.NewError(types.ErrDeserialization, "invalid timestamp").WithKey("timestamp").WithCause(err)
		}
		msg.Timestamp = ts.UTC()
	}

	if v, ok := data["status"]; ok && v != nil {
		raw, ok := v.(string)
		if !ok {
			return nil, types.NewError(types.ErrDeserialization, "status must be a string").WithKey("status")
		}
		status, err := ParseMessageStatus(raw)
		if err != nil {
			return nil, err
		}
		msg.Status = status
	}

	return msg, nil
}

// MarshalJSON 以扁平结构输出消息.
func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

// UnmarshalJSON 从扁平结构解析消息.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.NewError(types.ErrDeserialization, "malformed message json").WithCause(err)
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// ParseMessage 将 JSON 数据解析为消息.
func ParseMessage(data []byte) (*Message, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, types.NewError(types.ErrDeserialization, "malformed message json").WithCause(err)
	}
	return FromMap(raw)
}

// String 返回消息摘要.
func (m *Message) String() string {
	return fmt.Sprintf("Message(id=%s, %s -> %s, type=%s)", m.ID, m.Sender, m.Receiver, m.Type)
}

func requiredString(data map[string]any, key string) (string, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return "", missingKey(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", types.Errorf(types.ErrDeserialization, "%s must be a string", key).WithKey(key)
	}
	return s, nil
}

func missingKey(key string) *types.Error {
	return types.Errorf(types.ErrDeserialization, "missing required key %q", key).WithKey(key)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// cloneMap 深复制嵌套的 map 与 slice.
func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = cloneValue(val[i])
		}
		return out
	default:
		return v
	}
}
