package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"desk-agent/internal/model"
)

// Recovery 恢复 panic 的中间件，响应体仍是一个致歉批次，客户端无需区分错误格式
func Recovery(logger *zap.Logger, apology string) gin.HandlerFunc {
	logger = logger.Named("recovery")
	body := model.SpeakBatch(apology)
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.String("request_id", GetRequestID(c)),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", err),
					zap.Stack("stack"),
				)
				c.Header(model.SchemaVersionHeader, model.ActionSchemaVersion)
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}
