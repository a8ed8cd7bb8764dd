package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"desk-agent/internal/model"
	servicellm "desk-agent/internal/service/llm"
)

// Mediator 编排：校验请求 -> 调大模型 -> 清洗、解析回复 -> 失败兜底。
// 无跨请求的可变状态，可并发调用
type Mediator struct {
	llm      *servicellm.Service
	fallback FallbackPolicy
	logger   *zap.Logger
}

// NewMediator 创建中介服务
func NewMediator(llm *servicellm.Service, fallback FallbackPolicy, logger *zap.Logger) *Mediator {
	return &Mediator{
		llm:      llm,
		fallback: fallback,
		logger:   logger.Named("mediator"),
	}
}

// Outcome 一次处理的结果：Batch 总是可执行的批次，其余字段用于日志与排查
type Outcome struct {
	Batch model.ActionBatch
	// Failure 非 nil 表示 Batch 来自兜底策略
	Failure *model.Failure
	// ShortCircuited 指令为空，未调用模型
	ShortCircuited bool
	// Dropped 被丢弃的非法动作数
	Dropped int
}

// Process 处理一次请求，总是返回可执行的批次
func (m *Mediator) Process(ctx context.Context, raw model.ProcessRequest) Outcome {
	req, err := NormalizeRequest(raw)
	if err != nil {
		m.logger.Debug("empty utterance, skipping model call")
		return Outcome{Batch: m.fallback.Clarify(), ShortCircuited: true}
	}
	return m.mediate(ctx, req)
}

// mediate 对已规范化、指令非空的请求调用模型并兜底
func (m *Mediator) mediate(ctx context.Context, req model.ActionRequest) Outcome {
	res, err := m.llm.Process(ctx, req)
	if err == nil {
		return Outcome{Batch: res.Batch, Dropped: len(res.Dropped)}
	}

	out := Outcome{Batch: m.fallback.Recover(err), Dropped: len(res.Dropped)}
	var f *model.Failure
	if errors.As(err, &f) {
		out.Failure = f
	} else {
		out.Failure = &model.Failure{Kind: model.FailureModel, Err: err}
	}
	m.logger.Info("falling back",
		zap.String("failure", string(out.Failure.Kind)),
		zap.Error(out.Failure.Err),
	)
	return out
}

// Fallback 当前兜底策略
func (m *Mediator) Fallback() FallbackPolicy {
	return m.fallback
}
