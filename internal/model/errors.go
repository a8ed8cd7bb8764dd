package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyUtterance   = errors.New("empty utterance")
	ErrModelUnavailable = errors.New("model service unavailable")
	ErrMalformedJSON    = errors.New("model reply is not valid json")
	ErrSchemaMismatch   = errors.New("model reply does not match action schema")
	ErrInvalidAction    = errors.New("invalid action")
	ErrEmptyBatch       = errors.New("no valid actions after filtering")
)

// FailureKind 中介流程的失败分类，决定兜底策略走哪个分支
type FailureKind string

const (
	FailureModel         FailureKind = "model_error"
	FailureMalformedJSON FailureKind = "malformed_json"
	FailureSchema        FailureKind = "schema_mismatch"
	FailureEmptyBatch    FailureKind = "empty_after_filtering"
)

// Failure 中介流程失败：模型调用失败、回复无法解析或过滤后为空
type Failure struct {
	Kind FailureKind
	// Raw 清洗后的模型回复（模型调用失败时为空）
	Raw string
	// Err 底层错误
	Err error
	// Elements 被丢弃的动作及原因
	Elements []ElementError
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	}
	return string(f.Kind)
}

// Unwrap 返回对应的哨兵错误，便于 errors.Is 判断
func (f *Failure) Unwrap() []error {
	var sentinel error
	switch f.Kind {
	case FailureModel:
		sentinel = ErrModelUnavailable
	case FailureMalformedJSON:
		sentinel = ErrMalformedJSON
	case FailureSchema:
		sentinel = ErrSchemaMismatch
	case FailureEmptyBatch:
		sentinel = ErrEmptyBatch
	}
	errs := make([]error, 0, 2)
	if sentinel != nil {
		errs = append(errs, sentinel)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// ElementError 单条动作校验失败（非致命，该条被丢弃）
type ElementError struct {
	Index  int
	Kind   string
	Reason string
}

func (e ElementError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("action[%d]: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("action[%d] %s: %s", e.Index, e.Kind, e.Reason)
}

func (e ElementError) Unwrap() error {
	return ErrInvalidAction
}

// JoinElementErrors 汇总多条动作错误，用于日志
func JoinElementErrors(errs []ElementError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}
