package service

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"desk-agent/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NormalizeRequest 将原始请求体转换为 ActionRequest，永不因字段类型失败：
// text 缺失、为 null、非字符串或全空白时返回 model.ErrEmptyUtterance（由调用方短路为澄清回复）；
// window_info 缺失或非对象时退化为空上下文
func NormalizeRequest(raw model.ProcessRequest) (model.ActionRequest, error) {
	req := model.ActionRequest{
		Utterance: strings.TrimSpace(decodeString(raw.Text)),
		Context:   NormalizeWindowContext(raw.WindowInfo),
	}
	if req.Utterance == "" {
		return req, model.ErrEmptyUtterance
	}
	return req, nil
}

// NormalizeWindowContext 容错解析 window_info：
// active_window 非字符串或空白视为无；all_windows 非数组视为空，数组中的非字符串、空白项被丢弃
func NormalizeWindowContext(raw []byte) model.WindowContext {
	var wc model.WindowContext
	var fields map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || fields == nil {
		return wc
	}
	if active, ok := fields["active_window"].(string); ok && strings.TrimSpace(active) != "" {
		wc.ActiveWindow = &active
	}
	if windows, ok := fields["all_windows"].([]any); ok {
		for _, w := range windows {
			if s, ok := w.(string); ok && strings.TrimSpace(s) != "" {
				wc.AllWindows = append(wc.AllWindows, s)
			}
		}
	}
	return wc
}

func decodeString(raw []byte) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
