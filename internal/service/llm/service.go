package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	clientllm "desk-agent/internal/client/llm"
	"desk-agent/internal/model"
)

// Service 构造 prompt、调用大模型，并把回复清洗、解析为动作批次
type Service struct {
	client  clientllm.Invoker
	parser  Parser
	timeout time.Duration
	logger  *zap.Logger
}

// NewService 创建 LLM 服务；timeout 约束单次请求的整个模型调用（含重试），<=0 不额外限制
func NewService(client clientllm.Invoker, parser Parser, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		client:  client,
		parser:  parser,
		timeout: timeout,
		logger:  logger.Named("llm"),
	}
}

// Process 将用户指令交给大模型，返回解析后的动作批次。
// 失败时 error 为 *model.Failure，由调用方交给兜底策略
func (s *Service) Process(ctx context.Context, req model.ActionRequest) (ParseResult, error) {
	prompt := BuildPrompt(req)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.client.Invoke(ctx, prompt)
	if err != nil {
		s.logger.Warn("model invocation failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return ParseResult{}, &model.Failure{Kind: model.FailureModel, Err: err}
	}
	s.logger.Debug("model reply", zap.Duration("duration", time.Since(start)), zap.String("raw", raw))

	candidate := Sanitize(raw)
	res, err := s.parser.Parse(candidate)
	if err != nil {
		return res, err
	}
	if len(res.Dropped) > 0 {
		s.logger.Warn("dropped invalid actions",
			zap.Int("dropped", len(res.Dropped)),
			zap.String("reasons", model.JoinElementErrors(res.Dropped)),
		)
	}
	if res.Truncated > 0 {
		s.logger.Warn("action batch truncated", zap.Int("truncated", res.Truncated), zap.Int("kept", res.Batch.Len()))
	}
	return res, nil
}
