package a2a

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// 对于任何有效的消息, 序列化为扁平结构再反序列化应得到等价的消息.

// genMessageType 生成一个随机有效的消息类型.
func genMessageType() *rapid.Generator[MessageType] {
	return rapid.SampledFrom([]MessageType{
		MessageTypeRequest,
		MessageTypeResponse,
		MessageTypeError,
		MessageTypeTimeout,
	})
}

// genMessageStatus 生成一个随机有效的状态.
func genMessageStatus() *rapid.Generator[MessageStatus] {
	return rapid.SampledFrom([]MessageStatus{
		StatusPending,
		StatusSent,
		StatusReceived,
		StatusProcessed,
		StatusFailed,
	})
}

// genAgentName 生成代理名(含日文).
func genAgentName() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.StringMatching(`[a-z][a-z0-9-]{2,30}`),
		rapid.SampledFrom([]string{"ノエル", "フレア", "テストエージェント"}),
	)
}

// genTimestamp 在合理范围内生成 UTC 时间戳.
func genTimestamp() *rapid.Generator[time.Time] {
	return rapid.Custom(func(t *rapid.T) time.Time {
		year := rapid.IntRange(2020, 2030).Draw(t, "year")
		month := rapid.IntRange(1, 12).Draw(t, "month")
		day := rapid.IntRange(1, 28).Draw(t, "day")
		hour := rapid.IntRange(0, 23).Draw(t, "hour")
		minute := rapid.IntRange(0, 59).Draw(t, "minute")
		second := rapid.IntRange(0, 59).Draw(t, "second")
		nsec := rapid.IntRange(0, 999999999).Draw(t, "nsec")
		return time.Date(year, time.Month(month), day, hour, minute, second, nsec, time.UTC)
	})
}

// genStringMap 生成字符串值的内容或元数据.
func genStringMap(label string) *rapid.Generator[map[string]any] {
	return rapid.Custom(func(t *rapid.T) map[string]any {
		n := rapid.IntRange(0, 5).Draw(t, label+"Keys")
		m := make(map[string]any, n)
		for range n {
			key := rapid.StringMatching(`[a-z][a-z_]{1,10}`).Draw(t, label+"Key")
			m[key] = rapid.StringMatching(`[a-zA-Z0-9ぁ-ゖ]{0,20}`).Draw(t, label+"Value")
		}
		return m
	})
}

// genMessage 生成一条完整的消息.
func genMessage() *rapid.Generator[*Message] {
	return rapid.Custom(func(t *rapid.T) *Message {
		return &Message{
			ID:        rapid.StringMatching(`[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`).Draw(t, "id"),
			Sender:    genAgentName().Draw(t, "sender"),
			Receiver:  genAgentName().Draw(t, "receiver"),
			Type:      genMessageType().Draw(t, "type"),
			Content:   genStringMap("content").Draw(t, "content"),
			Metadata:  genStringMap("metadata").Draw(t, "metadata"),
			Timestamp: genTimestamp().Draw(t, "timestamp"),
			Status:    genMessageStatus().Draw(t, "status"),
		}
	})
}

func TestProperty_MessageMapRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		original := genMessage().Draw(rt, "message")

		restored, err := FromMap(original.ToMap())
		require.NoError(rt, err)

		assert.Equal(rt, original.ID, restored.ID)
		assert.Equal(rt, original.Sender, restored.Sender)
		assert.Equal(rt, original.Receiver, restored.Receiver)
		assert.Equal(rt, original.Type, restored.Type)
		assert.Equal(rt, original.Content, restored.Content)
		assert.Equal(rt, original.Metadata, restored.Metadata)
		assert.Equal(rt, original.Status, restored.Status)
		assert.True(rt, original.Timestamp.Equal(restored.Timestamp))
	})
}

func TestProperty_MessageJSONRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		original := genMessage().Draw(rt, "message")

		data, err := json.Marshal(original)
		require.NoError(rt, err)

		restored, err := ParseMessage(data)
		require.NoError(rt, err)

		assert.Equal(rt, original.ToMap(), restored.ToMap())
	})
}

func TestProperty_UnknownTypeTagRejected(t *testing.T) {
	known := map[string]bool{"request": true, "response": true, "error": true, "timeout": true}

	rapid.Check(t, func(rt *rapid.T) {
		tag := rapid.StringMatching(`[a-zA-Z]{0,12}`).Draw(rt, "tag")
		if known[tag] {
			rt.Skip("known tag")
		}

		data := genMessage().Draw(rt, "message").ToMap()
		data["message_type"] = tag

		_, err := FromMap(data)
		assert.Error(rt, err)
	})
}

func TestProperty_StatusNeverMovesBackward(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		msg := NewMessage(MessageTypeRequest, "a", "b", nil, nil)
		steps := rapid.SliceOfN(genMessageStatus(), 1, 10).Draw(rt, "steps")

		for _, next := range steps {
			before := statusRank[msg.Status]
			_ = msg.Advance(next)
			assert.GreaterOrEqual(rt, statusRank[msg.Status], before)
		}
	})
}
