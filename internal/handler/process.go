package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"desk-agent/internal/middleware"
	"desk-agent/internal/model"
	"desk-agent/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ProcessHandler 处理语音指令请求
type ProcessHandler struct {
	mediator     *service.Mediator
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewProcessHandler 创建处理器；maxBodyBytes <=0 不限制请求体大小
func NewProcessHandler(m *service.Mediator, maxBodyBytes int64, logger *zap.Logger) *ProcessHandler {
	return &ProcessHandler{mediator: m, maxBodyBytes: maxBodyBytes, logger: logger.Named("handler")}
}

// Process 接收语音识别文本与窗口上下文，返回动作批次
// POST /process
func (h *ProcessHandler) Process(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	// 只有请求体不是 JSON 对象才返回 400，字段类型问题交给 NormalizeRequest 容错
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: body must be a JSON object"})
		return
	}
	var req model.ProcessRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	out := h.mediator.Process(c.Request.Context(), req)

	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Int("actions", out.Batch.Len()),
		zap.Int("dropped", out.Dropped),
		zap.Bool("short_circuited", out.ShortCircuited),
	}
	if out.Failure != nil {
		fields = append(fields, zap.String("failure", string(out.Failure.Kind)))
	}
	h.logger.Info("request mediated", fields...)

	c.Header(model.SchemaVersionHeader, model.ActionSchemaVersion)
	c.JSON(http.StatusOK, out.Batch)
}
