package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"desk-agent/config"
	"desk-agent/internal/middleware"
	"desk-agent/internal/model"
	"desk-agent/internal/service"
)

// Router 注册路由与中间件
func Router(m *service.Mediator, cfg config.ServerConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(logger, m.Fallback().Apology),
		middleware.RequestID(),
		middleware.Logger(logger),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	processHandler := NewProcessHandler(m, cfg.MaxBodyBytes, logger)
	r.POST("/process", processHandler.Process)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "desk-agent is running")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, model.SchemaVersionHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
