package model

import (
	"encoding/json"
)

// ActionSchemaVersion 动作词表版本；修改词表（prompt 中的 Vocabulary）即视为 schema 变更，需同步更新解析器
const ActionSchemaVersion = "1"

// SchemaVersionHeader 响应头，携带 ActionSchemaVersion
const SchemaVersionHeader = "X-Action-Schema-Version"

// Kind 动作类型判别字段（线上格式统一使用 "kind"）
type Kind string

const (
	KindSpeak       Kind = "speak"
	KindMoveMouse   Kind = "move_mouse"
	KindClick       Kind = "click"
	KindDoubleClick Kind = "double_click"
	KindTypeText    Kind = "type_text"
	KindHotkey      Kind = "hotkey"
	KindOpenApp     Kind = "open_app"
	KindDelay       Kind = "delay"
)

// Kinds 全部已知动作类型，顺序即 prompt 中的列举顺序
var Kinds = []Kind{
	KindSpeak,
	KindMoveMouse,
	KindClick,
	KindDoubleClick,
	KindTypeText,
	KindHotkey,
	KindOpenApp,
	KindDelay,
}

// Valid 是否为已知动作类型
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Action 交给下游执行器的单条动作。仅以下八种类型实现该接口
type Action interface {
	Kind() Kind
	action()
}

// Speak 朗读文本
type Speak struct {
	Text string `json:"text"`
}

// MoveMouse 移动鼠标到 (X, Y)，Duration 为移动耗时（秒）
type MoveMouse struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Duration float64 `json:"duration"`
}

// Click 单击
type Click struct{}

// DoubleClick 双击
type DoubleClick struct{}

// TypeText 键入文本，Interval 为按键间隔（秒）
type TypeText struct {
	Text     string  `json:"text"`
	Interval float64 `json:"interval"`
}

// Hotkey 组合键，按顺序按下
type Hotkey struct {
	Keys []string `json:"keys"`
}

// OpenApp 启动应用
type OpenApp struct {
	Name string `json:"name"`
}

// Delay 等待若干秒
type Delay struct {
	Seconds float64 `json:"seconds"`
}

func (Speak) Kind() Kind       { return KindSpeak }
func (MoveMouse) Kind() Kind   { return KindMoveMouse }
func (Click) Kind() Kind       { return KindClick }
func (DoubleClick) Kind() Kind { return KindDoubleClick }
func (TypeText) Kind() Kind    { return KindTypeText }
func (Hotkey) Kind() Kind      { return KindHotkey }
func (OpenApp) Kind() Kind     { return KindOpenApp }
func (Delay) Kind() Kind       { return KindDelay }

func (Speak) action()       {}
func (MoveMouse) action()   {}
func (Click) action()       {}
func (DoubleClick) action() {}
func (TypeText) action()    {}
func (Hotkey) action()      {}
func (OpenApp) action()     {}
func (Delay) action()       {}

// 序列化时在各字段前补上 kind 判别字段
func (a Speak) MarshalJSON() ([]byte, error) {
	type fields Speak
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		fields
	}{KindSpeak, fields(a)})
}

func (a MoveMouse) MarshalJSON() ([]byte, error) {
	type fields MoveMouse
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		fields
	}{KindMoveMouse, fields(a)})
}

func (Click) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
	}{KindClick})
}

func (DoubleClick) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
	}{KindDoubleClick})
}

func (a TypeText) MarshalJSON() ([]byte, error) {
	type fields TypeText
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		fields
	}{KindTypeText, fields(a)})
}

func (a Hotkey) MarshalJSON() ([]byte, error) {
	type fields Hotkey
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		fields
	}{KindHotkey, fields(a)})
}

func (a OpenApp) MarshalJSON() ([]byte, error) {
	type fields OpenApp
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		fields
	}{KindOpenApp, fields(a)})
}

func (a Delay) MarshalJSON() ([]byte, error) {
	type fields Delay
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		fields
	}{KindDelay, fields(a)})
}

// ActionBatch 一次请求返回的有序动作列表，顺序即执行顺序
type ActionBatch struct {
	Actions []Action `json:"actions"`
}

// NewBatch 由若干动作构造批次
func NewBatch(actions ...Action) ActionBatch {
	if actions == nil {
		actions = []Action{}
	}
	return ActionBatch{Actions: actions}
}

// SpeakBatch 仅包含一条朗读动作的批次，兜底策略的统一出口
func SpeakBatch(text string) ActionBatch {
	return NewBatch(Speak{Text: text})
}

// MarshalJSON 保证空批次输出为 [] 而不是 null
func (b ActionBatch) MarshalJSON() ([]byte, error) {
	actions := b.Actions
	if actions == nil {
		actions = []Action{}
	}
	return json.Marshal(struct {
		Actions []Action `json:"actions"`
	}{actions})
}

// Len 动作条数
func (b ActionBatch) Len() int {
	return len(b.Actions)
}
