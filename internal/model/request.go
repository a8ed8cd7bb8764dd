package model

import "encoding/json"

// ProcessRequest POST /process 的原始请求体。
// 字段保留为 RawMessage，由 service.NormalizeRequest 做容错转换，类型不符不会导致请求失败
type ProcessRequest struct {
	// Text 语音识别得到的用户指令
	Text json.RawMessage `json:"text,omitempty"`
	// WindowInfo 调用方采集的窗口上下文
	WindowInfo json.RawMessage `json:"window_info,omitempty"`
}

// WindowContext 窗口上下文快照；缺失或非法时为零值（无活动窗口、窗口列表为空）
type WindowContext struct {
	ActiveWindow *string
	AllWindows   []string
}

// HasActiveWindow 是否存在活动窗口
func (w WindowContext) HasActiveWindow() bool {
	return w.ActiveWindow != nil && *w.ActiveWindow != ""
}

// ActionRequest 规范化后的请求，每个请求创建一次，之后只读
type ActionRequest struct {
	Utterance string
	Context   WindowContext
}
