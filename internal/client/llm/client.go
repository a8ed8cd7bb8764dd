package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// 支持的模型提供方
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config LLM 客户端配置
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	// ForceJSON 要求模型以 JSON 输出（各提供方的 JSON 模式）
	ForceJSON bool
}

// Invoker 模型调用边界：发送 prompt，返回原始回复文本。
// 实现不做重试，重试由调用方通过 WithRetry 组装
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
	// IsTransientError 是否为暂时性错误（限流、503、网络抖动），可以重试
	IsTransientError(err error) bool
}

// InvokerFunc 将普通函数适配为 Invoker，错误一律视为非暂时性
type InvokerFunc func(ctx context.Context, prompt string) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func (f InvokerFunc) IsTransientError(error) bool {
	return false
}

// NewClient 按 provider 创建模型客户端
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (Invoker, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg, logger)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	case ProviderOllama:
		return NewOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q (supported: %s, %s, %s)",
			cfg.Provider, ProviderGemini, ProviderOpenAI, ProviderOllama)
	}
}

// isTransientStatus 429 与 5xx 视为暂时性
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isTransientTransport 连接被拒、重置、网络超时等传输层错误。
// 调用方 context 的取消/超时不算暂时性：整次调用的时间预算已用完
func isTransientTransport(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "resource exhausted")
}
