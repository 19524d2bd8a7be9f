package agent

import (
	"fmt"
	"maps"
	"sync"
	"time"
)

// HistoryEntry 是 Agent 历史中的一条记录
type HistoryEntry map[string]any

// BaseAgent 提供名称、自由配置与交互历史
type BaseAgent struct {
	name string

	mu      sync.RWMutex
	config  map[string]any
	history []HistoryEntry
}

// NewBaseAgent 创建基础 Agent
func NewBaseAgent(name string, config map[string]any) *BaseAgent {
	cfg := make(map[string]any, len(config))
	maps.Copy(cfg, config)
	return &BaseAgent{
		name:   name,
		config: cfg,
	}
}

// Name 返回 Agent 名称
func (b *BaseAgent) Name() string { return b.name }

// Config 返回配置值, 不存在时返回默认值
func (b *BaseAgent) Config(key string, def any) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.config[key]; ok {
		return v
	}
	return def
}

// UpdateConfig 合并配置
func (b *BaseAgent) UpdateConfig(updates map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	maps.Copy(b.config, updates)
}

// AddToHistory 追加历史记录, 缺少 timestamp 时自动补充
func (b *BaseAgent) AddToHistory(entry HistoryEntry) {
	e := make(HistoryEntry, len(entry)+1)
	maps.Copy(e, entry)
	if _, ok := e["timestamp"]; !ok {
		e["timestamp"] = time.Now().Format(time.RFC3339Nano)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, e)
}

// History 返回历史记录的拷贝
func (b *BaseAgent) History() []HistoryEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]HistoryEntry, len(b.history))
	for i, e := range b.history {
		out[i] = maps.Clone(e)
	}
	return out
}

// ClearHistory 清空历史记录
func (b *BaseAgent) ClearHistory() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}

func (b *BaseAgent) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fmt.Sprintf("BaseAgent(name=%q, history_length=%d)", b.name, len(b.history))
}
