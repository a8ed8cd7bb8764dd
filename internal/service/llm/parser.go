package llm

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"desk-agent/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Parser 将清洗后的模型回复解析并校验为 ActionBatch
type Parser struct {
	// Strict 为 true 时任一动作非法即整批拒绝；默认丢弃非法动作、保留其余
	Strict bool
	// MaxActions 单批最多保留的动作数，<=0 不限制
	MaxActions int
}

// ParseResult 解析结果
type ParseResult struct {
	Batch model.ActionBatch
	// Dropped 被丢弃的动作及原因
	Dropped []model.ElementError
	// Truncated 因超过 MaxActions 被截掉的条数
	Truncated int
}

// Parse 解析候选 JSON。失败时返回 *model.Failure（MalformedJSON / SchemaMismatch / EmptyAfterFiltering）
func (p Parser) Parse(candidate string) (ParseResult, error) {
	var doc any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return ParseResult{}, &model.Failure{Kind: model.FailureMalformedJSON, Raw: candidate, Err: err}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return ParseResult{}, schemaMismatch(candidate, "top-level value is not an object")
	}
	rawActions, ok := obj["actions"]
	if !ok {
		return ParseResult{}, schemaMismatch(candidate, `missing "actions" key`)
	}
	items, ok := rawActions.([]any)
	if !ok {
		return ParseResult{}, schemaMismatch(candidate, `"actions" is not an array`)
	}

	var res ParseResult
	actions := make([]model.Action, 0, len(items))
	for i, item := range items {
		action, err := parseAction(i, item)
		if err != nil {
			res.Dropped = append(res.Dropped, *err)
			continue
		}
		actions = append(actions, action)
	}

	if p.Strict && len(res.Dropped) > 0 {
		return res, &model.Failure{
			Kind:     model.FailureEmptyBatch,
			Raw:      candidate,
			Err:      fmt.Errorf("strict mode: %d invalid action(s): %s", len(res.Dropped), model.JoinElementErrors(res.Dropped)),
			Elements: res.Dropped,
		}
	}
	if len(actions) == 0 {
		return res, &model.Failure{Kind: model.FailureEmptyBatch, Raw: candidate, Err: model.ErrEmptyBatch, Elements: res.Dropped}
	}
	if p.MaxActions > 0 && len(actions) > p.MaxActions {
		res.Truncated = len(actions) - p.MaxActions
		actions = actions[:p.MaxActions]
	}
	res.Batch = model.NewBatch(actions...)
	return res, nil
}

func schemaMismatch(raw, reason string) *model.Failure {
	return &model.Failure{Kind: model.FailureSchema, Raw: raw, Err: fmt.Errorf("%w: %s", model.ErrSchemaMismatch, reason)}
}

// parseAction 校验单条动作，按 kind 路由到各自的字段规则
func parseAction(index int, item any) (model.Action, *model.ElementError) {
	fields, ok := item.(map[string]any)
	if !ok {
		return nil, &model.ElementError{Index: index, Reason: "not an object"}
	}
	kind, ok := discriminator(fields)
	if !ok {
		return nil, &model.ElementError{Index: index, Reason: `missing "kind" discriminator`}
	}
	fail := func(format string, args ...any) (model.Action, *model.ElementError) {
		return nil, &model.ElementError{Index: index, Kind: string(kind), Reason: fmt.Sprintf(format, args...)}
	}
	if !kind.Valid() {
		return fail("unknown action kind")
	}

	switch kind {
	case model.KindSpeak:
		text, ok := fields["text"].(string)
		if !ok || strings.TrimSpace(text) == "" {
			return fail("text must be a non-empty string")
		}
		return model.Speak{Text: text}, nil

	case model.KindMoveMouse:
		x, ok := number(fields, "x")
		if !ok {
			return fail("x must be a number")
		}
		y, ok := number(fields, "y")
		if !ok {
			return fail("y must be a number")
		}
		duration, ok := optionalNonNegative(fields, "duration")
		if !ok {
			return fail("duration must be a non-negative number")
		}
		return model.MoveMouse{X: x, Y: y, Duration: duration}, nil

	case model.KindClick:
		return model.Click{}, nil

	case model.KindDoubleClick:
		return model.DoubleClick{}, nil

	case model.KindTypeText:
		text, ok := fields["text"].(string)
		if !ok || text == "" {
			return fail("text must be a non-empty string")
		}
		interval, ok := optionalNonNegative(fields, "interval")
		if !ok {
			return fail("interval must be a non-negative number")
		}
		return model.TypeText{Text: text, Interval: interval}, nil

	case model.KindHotkey:
		rawKeys, ok := fields["keys"].([]any)
		if !ok || len(rawKeys) == 0 {
			return fail("keys must be a non-empty array of strings")
		}
		keys := make([]string, 0, len(rawKeys))
		for _, k := range rawKeys {
			s, ok := k.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return fail("keys must contain only non-empty strings")
			}
			keys = append(keys, s)
		}
		return model.Hotkey{Keys: keys}, nil

	case model.KindOpenApp:
		name, ok := fields["name"].(string)
		if !ok || strings.TrimSpace(name) == "" {
			return fail("name must be a non-empty string")
		}
		return model.OpenApp{Name: name}, nil

	case model.KindDelay:
		key := "seconds"
		if _, present := fields[key]; !present {
			// 旧版词表使用 "delay" 字段
			key = "delay"
		}
		seconds, ok := number(fields, key)
		if !ok || seconds < 0 {
			return fail("seconds must be a non-negative number")
		}
		return model.Delay{Seconds: seconds}, nil
	}
	return fail("unhandled action kind")
}

// discriminator 读取 kind；缺失时兼容旧格式的 type
func discriminator(fields map[string]any) (model.Kind, bool) {
	raw, present := fields["kind"]
	if !present {
		raw, present = fields["type"]
	}
	if !present {
		return "", false
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", false
	}
	return model.Kind(s), true
}

func number(fields map[string]any, key string) (float64, bool) {
	v, ok := fields[key].(float64)
	return v, ok
}

// optionalNonNegative 字段缺失时取 0；存在则必须是非负数
func optionalNonNegative(fields map[string]any, key string) (float64, bool) {
	if _, present := fields[key]; !present {
		return 0, true
	}
	v, ok := number(fields, key)
	return v, ok && v >= 0
}
