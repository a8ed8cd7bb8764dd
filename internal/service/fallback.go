package service

import (
	"errors"
	"strings"

	"desk-agent/internal/model"
)

const (
	DefaultApology       = "Sorry, something went wrong."
	DefaultClarification = "Sorry, I didn't catch that. Could you repeat the command?"
)

// FallbackPolicy 任一环节失败时给出安全的默认批次（单条 speak），自身不会失败
type FallbackPolicy struct {
	// Apology 模型不可用或没有可执行动作时的致歉语
	Apology string
	// Clarification 用户指令为空时的澄清语
	Clarification string
}

// NewFallbackPolicy 空字符串使用默认文案
func NewFallbackPolicy(apology, clarification string) FallbackPolicy {
	if strings.TrimSpace(apology) == "" {
		apology = DefaultApology
	}
	if strings.TrimSpace(clarification) == "" {
		clarification = DefaultClarification
	}
	return FallbackPolicy{Apology: apology, Clarification: clarification}
}

// Clarify 指令为空时的短路回复
func (p FallbackPolicy) Clarify() model.ActionBatch {
	return model.SpeakBatch(p.Clarification)
}

// Recover 按失败类型选择兜底批次：
// 回复不是 JSON 或结构不符时把原文当作要说的话；模型失败或无有效动作时致歉
func (p FallbackPolicy) Recover(err error) model.ActionBatch {
	var f *model.Failure
	if !errors.As(err, &f) {
		return model.SpeakBatch(p.Apology)
	}
	switch f.Kind {
	case model.FailureMalformedJSON, model.FailureSchema:
		if strings.TrimSpace(f.Raw) == "" {
			return model.SpeakBatch(p.Apology)
		}
		return model.SpeakBatch(f.Raw)
	default:
		return model.SpeakBatch(p.Apology)
	}
}
