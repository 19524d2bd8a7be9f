package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/BaSui01/shiritori/types"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel 是默认使用的 Gemini 模型.
const DefaultModel = "gemini-3-flash-preview"

// Config 是 Gemini Provider 的配置.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	// BaseURL 覆盖 API 地址, 主要用于测试.
	BaseURL string
	// HTTPClient 为空时使用 TLS 1.2+ 加固的默认客户端.
	HTTPClient *http.Client
}

// ErrMissingAPIKey 表示未提供 API 密钥.
var ErrMissingAPIKey = errors.New("gemini: API key is required")

// Provider 通过 google.golang.org/genai 调用 Gemini 生成文本.
// 使用前必须先调用 Connect.
type Provider struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.RWMutex
	client *genai.Client
}

// NewProvider 创建 Gemini Provider
func NewProvider(cfg Config, logger *zap.Logger) *Provider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "gemini"), zap.String("model", cfg.Model)),
	}
}

// Name 返回 Provider 名称.
func (p *Provider) Name() string { return "gemini" }

// Model 返回模型名.
func (p *Provider) Model() string { return p.cfg.Model }

// Connect 建立 genai 客户端. 重复调用是安全的.
func (p *Provider) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return nil
	}
	if p.cfg.APIKey == "" {
		return ErrMissingAPIKey
	}

	httpClient := p.cfg.HTTPClient
	if httpClient == nil {
		httpClient = secureHTTPClient()
	}
	cc := &genai.ClientConfig{
		APIKey:     p.cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if p.cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	p.logger.Info("gemini client connected")
	return nil
}

// Connected 报告是否已建立客户端.
func (p *Provider) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}

// Generate 实现 llm.TextGenerator. 未连接时返回 NOT_CONNECTED.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	if client == nil {
		return "", types.NewError(types.ErrNotConnected, "LLMに接続されていません")
	}

	resp, err := client.Models.GenerateContent(ctx, p.cfg.Model, genai.Text(prompt), p.buildConfig())
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", types.NewError(types.ErrCapability, "Gemini generation failed").WithCause(err)
	}

	text := extractText(resp)
	if text == "" {
		return "", types.NewError(types.ErrCapability, "empty response from Gemini")
	}
	p.logger.Debug("generated", zap.Int("chars", len([]rune(text))))
	return text, nil
}

func (p *Provider) buildConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if p.cfg.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(p.cfg.Temperature))
	}
	if p.cfg.MaxTokens > 0 {
		config.MaxOutputTokens = int32(p.cfg.MaxTokens)
	}
	return config
}

// extractText 拼接首个候选中的非思考文本.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}
