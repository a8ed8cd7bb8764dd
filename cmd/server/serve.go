package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"desk-agent/config"
	"desk-agent/internal/client/llm"
	"desk-agent/internal/handler"
	"desk-agent/internal/logging"
	"desk-agent/internal/service"
	servicellm "desk-agent/internal/service/llm"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfgFile)
		},
	}
}

func runServe(ctx context.Context, cfgFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// 按环境加载配置（APP_ENV=local|dev|prod）
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Log)
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.Server.Mode)

	mediator, err := buildMediator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.Router(mediator, cfg.Server, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", config.Env()),
			zap.String("provider", cfg.LLM.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildMediator 组装 模型客户端 -> 限流 -> 重试 -> 解析 -> 兜底
func buildMediator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.Mediator, error) {
	client, err := llm.NewClient(ctx, llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		ForceJSON:   cfg.LLM.ForceJSON,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}
	client = llm.WithRateLimit(client, llm.NewLimiter(cfg.LLM.RatePerSecond, cfg.LLM.Burst))
	client = llm.WithRetry(client, llm.RetryPolicy{
		MaxRetries:      cfg.LLM.MaxRetries,
		InitialInterval: cfg.LLM.RetryInitialInterval,
		MaxInterval:     cfg.LLM.RetryMaxInterval,
	}, logger)

	parser := servicellm.Parser{Strict: cfg.Mediator.Strict, MaxActions: cfg.Mediator.MaxActions}
	llmSvc := servicellm.NewService(client, parser, cfg.LLM.Timeout, logger)
	fallback := service.NewFallbackPolicy(cfg.Mediator.Apology, cfg.Mediator.Clarification)
	return service.NewMediator(llmSvc, fallback, logger), nil
}
