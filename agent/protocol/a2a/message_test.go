package a2a

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/BaSui01/shiritori/testutil"
	"github.com/BaSui01/shiritori/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageType_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		msgType  MessageType
		expected bool
	}{
		{"request type", MessageTypeRequest, true},
		{"response type", MessageTypeResponse, true},
		{"error type", MessageTypeError, true},
		{"timeout type", MessageTypeTimeout, true},
		{"invalid type", MessageType("task"), false},
		{"upper case", MessageType("REQUEST"), false},
		{"empty type", MessageType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.msgType.IsValid())
		})
	}
}

func TestMessageStatus_IsValid(t *testing.T) {
	for _, s := range []MessageStatus{StatusPending, StatusSent, StatusReceived, StatusProcessed, StatusFailed} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, MessageStatus("done").IsValid())
}

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		from, to MessageStatus
		expected bool
	}{
		{StatusPending, StatusSent, true},
		{StatusSent, StatusReceived, true},
		{StatusReceived, StatusProcessed, true},
		{StatusReceived, StatusFailed, true},
		{StatusSent, StatusPending, false},
		{StatusProcessed, StatusReceived, false},
		{StatusProcessed, StatusFailed, false},
		{StatusFailed, StatusProcessed, false},
		{StatusSent, StatusSent, false},
		{MessageStatus("bogus"), StatusSent, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, CanAdvance(tt.from, tt.to))
		})
	}
}

func TestMessage_Advance(t *testing.T) {
	msg := NewMessage(MessageTypeRequest, "a", "b", nil, nil)
	require.NoError(t, msg.Advance(StatusSent))
	err := msg.Advance(StatusPending)
	require.ErrorIs(t, err, ErrStatusRegression)
	assert.Equal(t, StatusSent, msg.Status)
}

func TestNewMessage(t *testing.T) {
	content := map[string]any{"word": "りんご"}
	msg := NewMessage(MessageTypeRequest, "ノエル", "フレア", content, nil)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, MessageTypeRequest, msg.Type)
	assert.Equal(t, "ノエル", msg.Sender)
	assert.Equal(t, "フレア", msg.Receiver)
	assert.Equal(t, content, msg.Content)
	assert.NotNil(t, msg.Metadata)
	assert.Equal(t, StatusPending, msg.Status)
	assert.False(t, msg.Timestamp.IsZero())
	assert.False(t, msg.IsReply())
}

func TestNewMessageID_TimeOrdered(t *testing.T) {
	first := NewMessageID()
	time.Sleep(2 * time.Millisecond)
	second := NewMessageID()

	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)
}

func TestMessage_CreateReply(t *testing.T) {
	req := NewMessage(MessageTypeRequest, "ノエル", "フレア", map[string]any{"word": "りんご"}, nil)
	reply := req.CreateReply(MessageTypeResponse, map[string]any{"word": "ごりら"})

	assert.Equal(t, "フレア", reply.Sender)
	assert.Equal(t, "ノエル", reply.Receiver)
	assert.Equal(t, req.ID, reply.RequestID())
	assert.True(t, reply.IsReply())
	assert.NotEqual(t, req.ID, reply.ID)
}

func TestMessage_Clone(t *testing.T) {
	original := NewMessage(MessageTypeRequest, "a", "b",
		map[string]any{"nested": map[string]any{"k": "v"}, "list": []any{"x"}},
		map[string]any{"trace": "t1"},
	)
	clone := original.Clone()

	assert.Equal(t, original.ToMap(), clone.ToMap())

	clone.Content["nested"].(map[string]any)["k"] = "changed"
	clone.Content["list"].([]any)[0] = "y"
	clone.Metadata["trace"] = "t2"
	clone.Status = StatusReceived

	assert.Equal(t, "v", original.Content["nested"].(map[string]any)["k"])
	assert.Equal(t, "x", original.Content["list"].([]any)[0])
	assert.Equal(t, "t1", original.Metadata["trace"])
	assert.Equal(t, StatusPending, original.Status)
}

func TestMessage_ToMap(t *testing.T) {
	msg := NewMessage(MessageTypeTimeout, "a", "b", map[string]any{"error": "タイムアウト"}, nil)
	msg.Status = StatusSent

	data := msg.ToMap()
	assert.Equal(t, msg.ID, data["message_id"])
	assert.Equal(t, "a", data["sender"])
	assert.Equal(t, "b", data["receiver"])
	assert.Equal(t, "timeout", data["message_type"])
	assert.Equal(t, "sent", data["status"])
	assert.Equal(t, msg.Timestamp.Format(time.RFC3339Nano), data["timestamp"])
	assert.Len(t, data, 8)
}

func TestFromMap_RequiredKeys(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"sender":       "a",
			"receiver":     "b",
			"message_type": "request",
			"content":      map[string]any{"word": "りんご"},
		}
	}

	for _, key := range []string{"sender", "receiver", "message_type", "content"} {
		t.Run("missing "+key, func(t *testing.T) {
			data := base()
			delete(data, key)

			_, err := FromMap(data)
			require.Error(t, err)
			testutil.AssertErrorCode(t, err, types.ErrDeserialization)

			var typed *types.Error
			require.ErrorAs(t, err, &typed)
			assert.Equal(t, key, typed.Key)
		})
	}
}

func TestFromMap_Defaults(t *testing.T) {
	msg, err := FromMap(map[string]any{
		"sender":       "a",
		"receiver":     "b",
		"message_type": "response",
		"content":      map[string]any{},
	})
	require.NoError(t, err)

	assert.Equal(t, "", msg.ID)
	assert.Equal(t, StatusPending, msg.Status)
	assert.NotNil(t, msg.Metadata)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestFromMap_OwnsPayload(t *testing.T) {
	content := map[string]any{"word": "りんご", "chain": []any{"しりとり", "りんご"}}
	meta := map[string]any{"request_id": "req-1", "trace": map[string]any{"turn": 2}}
	data := map[string]any{
		"sender":       "ノエル",
		"receiver":     "フレア",
		"message_type": "request",
		"content":      content,
		"metadata":     meta,
	}

	msg, err := FromMap(data)
	require.NoError(t, err)

	content["word"] = "ごりら"
	content["chain"].([]any)[1] = "ごりら"
	meta["request_id"] = "req-2"
	meta["trace"].(map[string]any)["turn"] = 3

	assert.Equal(t, "りんご", msg.Content["word"])
	assert.Equal(t, []any{"しりとり", "りんご"}, msg.Content["chain"])
	assert.Equal(t, "req-1", msg.RequestID())
	assert.Equal(t, map[string]any{"turn": 2}, msg.Metadata["trace"])

	msg.Content["word"] = "すいか"
	assert.Equal(t, "ごりら", content["word"])
}

func TestFromMap_UnknownTags(t *testing.T) {
	tests := []struct {
		name string
		key  string
		data map[string]any
	}{
		{
			name: "unknown message type",
			key:  "message_type",
			data: map[string]any{"sender": "a", "receiver": "b", "message_type": "task", "content": map[string]any{}},
		},
		{
			name: "unknown status",
			key:  "status",
			data: map[string]any{"sender": "a", "receiver": "b", "message_type": "request", "content": map[string]any{}, "status": "done"},
		},
		{
			name: "content not an object",
			key:  "content",
			data: map[string]any{"sender": "a", "receiver": "b", "message_type": "request", "content": "りんご"},
		},
		{
			name: "bad timestamp",
			key:  "timestamp",
			data: map[string]any{"sender": "a", "receiver": "b", "message_type": "request", "content": map[string]any{}, "timestamp": "yesterday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.data)
			require.Error(t, err)

			var typed *types.Error
			require.ErrorAs(t, err, &typed)
			assert.Equal(t, types.ErrDeserialization, typed.Code)
			assert.Equal(t, tt.key, typed.Key)
		})
	}
}

func TestMessage_JSON(t *testing.T) {
	msg := NewMessage(MessageTypeRequest, "ノエル", "フレア",
		map[string]any{"word": "りんご", "action": "shiritori"},
		map[string]any{"request_id": "abc"},
	)
	msg.Status = StatusSent

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message_type":"request"`)
	assert.Contains(t, string(data), `"status":"sent"`)

	parsed, err := ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, parsed.ID)
	assert.Equal(t, msg.Sender, parsed.Sender)
	assert.Equal(t, msg.Receiver, parsed.Receiver)
	assert.Equal(t, msg.Type, parsed.Type)
	assert.Equal(t, msg.Content, parsed.Content)
	assert.Equal(t, msg.Metadata, parsed.Metadata)
	assert.Equal(t, msg.Status, parsed.Status)
	assert.True(t, msg.Timestamp.Equal(parsed.Timestamp))
}

func TestParseMessage_Malformed(t *testing.T) {
	_, err := ParseMessage([]byte(`{not json`))
	require.Error(t, err)
	testutil.AssertErrorCode(t, err, types.ErrDeserialization)

	_, err = ParseMessage([]byte(`{"sender":"a"}`))
	require.Error(t, err)
	testutil.AssertErrorCode(t, err, types.ErrDeserialization)
}

func TestMessage_String(t *testing.T) {
	msg := NewMessage(MessageTypeRequest, "a", "b", nil, nil)
	assert.Equal(t, "Message(id="+msg.ID+", a -> b, type=request)", msg.String())
}
