package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RetryPolicy 暂时性错误的重试策略
type RetryPolicy struct {
	// MaxRetries 首次调用之外的最大重试次数，<=0 表示不重试
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type retryInvoker struct {
	next   Invoker
	policy RetryPolicy
	logger *zap.Logger
}

// WithRetry 为 Invoker 加上指数退避重试；只重试 next.IsTransientError 为真的错误，
// 等待受 ctx 约束，ctx 结束即放弃
func WithRetry(next Invoker, policy RetryPolicy, logger *zap.Logger) Invoker {
	if policy.MaxRetries <= 0 {
		return next
	}
	return &retryInvoker{next: next, policy: policy, logger: logger.Named("llm.retry")}
}

func (r *retryInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	b := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		b.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		b.MaxInterval = r.policy.MaxInterval
	}
	// 总时长由 ctx 的超时约束
	b.MaxElapsedTime = 0

	var reply string
	attempt := 0
	operation := func() error {
		attempt++
		out, err := r.next.Invoke(ctx, prompt)
		if err != nil {
			if !r.next.IsTransientError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		reply = out
		return nil
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Warn("transient model error, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.MaxRetries)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", err
	}
	return reply, nil
}

func (r *retryInvoker) IsTransientError(err error) bool {
	return r.next.IsTransientError(err)
}

type rateLimitedInvoker struct {
	next    Invoker
	limiter *rate.Limiter
}

// WithRateLimit 调用前等待令牌，保护模型配额；limiter 为 nil 时原样返回
func WithRateLimit(next Invoker, limiter *rate.Limiter) Invoker {
	if limiter == nil {
		return next
	}
	return &rateLimitedInvoker{next: next, limiter: limiter}
}

func (r *rateLimitedInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limiter: %w", err)
	}
	return r.next.Invoke(ctx, prompt)
}

func (r *rateLimitedInvoker) IsTransientError(err error) bool {
	return r.next.IsTransientError(err)
}

// NewLimiter 每秒 perSecond 次、突发 burst；perSecond<=0 表示不限流
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
