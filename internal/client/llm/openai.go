package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"desk-agent/internal/model"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient OpenAI 兼容接口客户端（OpenAI、DashScope 等）
type OpenAIClient struct {
	client *openai.Client
	model  string
	cfg    Config
	logger *zap.Logger
}

// NewOpenAIClient 创建 OpenAI 兼容客户端。SDK 自带重试关闭，统一由 WithRetry 控制
func NewOpenAIClient(cfg Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		client: &client,
		model:  model,
		cfg:    cfg,
		logger: logger.Named("llm.openai"),
	}, nil
}

// Invoke 发送一条 user 消息，返回首个 choice 的内容
func (c *OpenAIClient) Invoke(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(float64(c.cfg.Temperature)),
	}
	var opts []option.RequestOption
	if c.cfg.ForceJSON {
		opts = append(opts, option.WithJSONSet("response_format", map[string]string{"type": "json_object"}))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: openai chat: %w", model.ErrModelUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned empty choices", model.ErrModelUnavailable)
	}
	c.logger.Debug("openai chat complete",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// IsTransientError 429/5xx 以及传输层错误可重试
func (c *OpenAIClient) IsTransientError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return isTransientStatus(apiErr.StatusCode)
	}
	return isTransientTransport(err)
}
