package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"desk-agent/config"
	clientllm "desk-agent/internal/client/llm"
	"desk-agent/internal/model"
	"desk-agent/internal/service"
	servicellm "desk-agent/internal/service/llm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type testServer struct {
	engine *gin.Engine
	calls  *atomic.Int32
	prompt *atomic.Value
}

func newTestServer(t *testing.T, reply string, cfg config.ServerConfig) testServer {
	t.Helper()
	return newTestServerWithDelay(t, reply, 0, time.Second, cfg)
}

// newTestServerWithDelay 模型回复前等待 delay，单次调用受 timeout 约束
func newTestServerWithDelay(t *testing.T, reply string, delay, timeout time.Duration, cfg config.ServerConfig) testServer {
	t.Helper()
	s := testServer{calls: &atomic.Int32{}, prompt: &atomic.Value{}}
	inv := clientllm.InvokerFunc(func(ctx context.Context, prompt string) (string, error) {
		s.calls.Add(1)
		s.prompt.Store(prompt)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		return reply, nil
	})
	logger := zaptest.NewLogger(t)
	llm := servicellm.NewService(inv, servicellm.Parser{}, timeout, logger)
	m := service.NewMediator(llm, service.NewFallbackPolicy("apology", "clarify"), logger)
	s.engine = Router(m, cfg, logger)
	return s
}

func (s testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestProcess_ReturnsMediatedBatch(t *testing.T) {
	s := newTestServer(t, "```json\n{\"actions\":[{\"kind\":\"open_app\",\"name\":\"chrome\"},{\"kind\":\"bogus\"}]}\n```", config.ServerConfig{})

	w := s.do(http.MethodPost, "/process", `{"text":"open chrome","window_info":{"active_window":"Finder","all_windows":["Finder",3]}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"actions":[{"kind":"open_app","name":"chrome"}]}`, w.Body.String())
	assert.Equal(t, model.ActionSchemaVersion, w.Header().Get(model.SchemaVersionHeader))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	prompt, _ := s.prompt.Load().(string)
	assert.Contains(t, prompt, `- Active window: "Finder"`)
	assert.Contains(t, prompt, `- Open windows: "Finder"`)
}

func TestProcess_PlainTextReplyIsSpoken(t *testing.T) {
	s := newTestServer(t, "Hello there", config.ServerConfig{})

	w := s.do(http.MethodPost, "/process", `{"text":"hi"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"actions":[{"kind":"speak","text":"Hello there"}]}`, w.Body.String())
}

func TestProcess_ModelTimeoutIsApology(t *testing.T) {
	s := newTestServerWithDelay(t, `{"actions":[{"kind":"click"}]}`, time.Second, 20*time.Millisecond, config.ServerConfig{})

	start := time.Now()
	w := s.do(http.MethodPost, "/process", `{"text":"click"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"actions":[{"kind":"speak","text":"apology"}]}`, w.Body.String())
	assert.Equal(t, model.ActionSchemaVersion, w.Header().Get(model.SchemaVersionHeader))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.EqualValues(t, 1, s.calls.Load())
}

func TestProcess_EmptyUtteranceIsClarified(t *testing.T) {
	s := newTestServer(t, `{"actions":[{"kind":"click"}]}`, config.ServerConfig{})

	for _, body := range []string{`{}`, `{"text":""}`, `{"text":"  "}`, `{"text":null}`, `{"text":12,"window_info":"x"}`} {
		w := s.do(http.MethodPost, "/process", body)
		assert.Equal(t, http.StatusOK, w.Code, body)
		assert.JSONEq(t, `{"actions":[{"kind":"speak","text":"clarify"}]}`, w.Body.String(), body)
	}
	assert.Zero(t, s.calls.Load())
}

func TestProcess_BadRequests(t *testing.T) {
	s := newTestServer(t, `{"actions":[{"kind":"click"}]}`, config.ServerConfig{MaxBodyBytes: 64})

	tests := []struct {
		name string
		body string
	}{
		{"not json", `text=hi`},
		{"truncated", `{"text":"hi"`},
		{"array", `[{"text":"hi"}]`},
		{"null", `null`},
		{"string", `"hi"`},
		{"empty", ``},
		{"too large", `{"text":"` + strings.Repeat("a", 100) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/process", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
	assert.Zero(t, s.calls.Load())
}

func TestHealthAndRoot(t *testing.T) {
	s := newTestServer(t, "", config.ServerConfig{})

	w := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")
}

func TestCORS(t *testing.T) {
	open := newTestServer(t, "", config.ServerConfig{})
	w := open.do(http.MethodGet, "/health", "", "Origin", "http://localhost:5173")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	restricted := newTestServer(t, "", config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}})
	w = restricted.do(http.MethodGet, "/health", "", "Origin", "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = restricted.do(http.MethodGet, "/health", "", "Origin", "http://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
