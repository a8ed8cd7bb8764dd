package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"desk-agent/internal/model"
)

const (
	defaultOllamaURL   = "http://127.0.0.1:11434"
	defaultOllamaModel = "llama3.1"
)

// OllamaClient 本地 Ollama 客户端，无需 API key
type OllamaClient struct {
	client *api.Client
	model  string
	cfg    Config
	logger *zap.Logger
}

// NewOllamaClient 创建 Ollama 客户端
func NewOllamaClient(cfg Config, logger *zap.Logger) (*OllamaClient, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultOllamaURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaClient{
		client: api.NewClient(u, &http.Client{}),
		model:  model,
		cfg:    cfg,
		logger: logger.Named("llm.ollama"),
	}, nil
}

// Invoke 非流式生成
func (c *OllamaClient) Invoke(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]any{"temperature": c.cfg.Temperature},
	}
	if c.cfg.ForceJSON {
		req.Format = json.RawMessage(`"json"`)
	}

	start := time.Now()
	var sb strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama generate: %w", model.ErrModelUnavailable, err)
	}
	c.logger.Debug("ollama generation complete",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(start)),
	)
	return sb.String(), nil
}

// IsTransientError 5xx/429 以及连接类错误（本地服务未启动或重启中）可重试
func (c *OllamaClient) IsTransientError(err error) bool {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return isTransientStatus(statusErr.StatusCode)
	}
	return isTransientTransport(err)
}
