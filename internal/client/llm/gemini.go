package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"desk-agent/internal/model"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient Google Gemini 客户端
type GeminiClient struct {
	client *genai.Client
	model  string
	cfg    Config
	logger *zap.Logger
}

// NewGeminiClient 创建 Gemini 客户端；BaseURL 非空时覆盖默认端点
func NewGeminiClient(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		client: client,
		model:  model,
		cfg:    cfg,
		logger: logger.Named("llm.gemini"),
	}, nil
}

// Invoke 单轮生成，返回回复文本
func (c *GeminiClient) Invoke(ctx context.Context, prompt string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	}
	if c.cfg.ForceJSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate: %w", model.ErrModelUnavailable, err)
	}
	text := resp.Text()
	if text == "" {
		reason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			reason = string(resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("%w: gemini returned empty content (finish reason: %s)", model.ErrModelUnavailable, reason)
	}

	fields := []zap.Field{zap.String("model", c.model), zap.Duration("duration", time.Since(start))}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("completion_tokens", u.CandidatesTokenCount),
		)
	}
	c.logger.Debug("gemini generation complete", fields...)
	return text, nil
}

// IsTransientError 429/5xx 以及传输层错误可重试
func (c *GeminiClient) IsTransientError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return isTransientStatus(apiErr.Code)
	}
	return isTransientTransport(err)
}
