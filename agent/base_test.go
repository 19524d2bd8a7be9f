package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseAgent_Config(t *testing.T) {
	input := map[string]any{"style": "polite"}
	b := NewBaseAgent("ノエル", input)

	assert.Equal(t, "ノエル", b.Name())
	assert.Equal(t, "polite", b.Config("style", nil))
	assert.Equal(t, 3, b.Config("missing", 3))

	b.UpdateConfig(map[string]any{"style": "casual", "level": 2})
	assert.Equal(t, "casual", b.Config("style", nil))
	assert.Equal(t, 2, b.Config("level", nil))
	// 构造参数不被修改
	assert.Equal(t, "polite", input["style"])
}

func TestBaseAgent_History(t *testing.T) {
	b := NewBaseAgent("ノエル", nil)

	b.AddToHistory(HistoryEntry{"word": "りんご"})
	b.AddToHistory(HistoryEntry{"word": "らっぱ", "timestamp": "fixed"})

	history := b.History()
	require.Len(t, history, 2)
	assert.NotEmpty(t, history[0]["timestamp"])
	assert.Equal(t, "fixed", history[1]["timestamp"])

	// 返回的是拷贝
	history[0]["word"] = "changed"
	assert.Equal(t, "りんご", b.History()[0]["word"])

	assert.Equal(t, `BaseAgent(name="ノエル", history_length=2)`, b.String())

	b.ClearHistory()
	assert.Empty(t, b.History())
}
