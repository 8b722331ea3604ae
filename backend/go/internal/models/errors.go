package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound 表示按 ID 查询的任务或文档不存在。
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition 表示请求的状态迁移不被状态机允许。
	ErrInvalidTransition = errors.New("invalid task state transition")
)

// ValidationError 表示调用方提交的输入不合法。
// 该错误在创建任务之前立即返回给调用方。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError 表示一次提供商调用失败。
// IsTransient 决定重试边界是否允许重试该错误；
// 格式错误的响应等永久性失败不会被重试。
type ProviderError struct {
	Provider    string
	Reason      string
	IsTransient bool
	Err         error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Transient 实现重试边界识别的瞬态错误接口。
func (e *ProviderError) Transient() bool {
	return e.IsTransient
}

// AllProvidersFailedError 表示并行分析阶段的所有提供商都耗尽了重试预算。
// Results 按配置顺序保留每个提供商的最终结果，供任务错误详情使用。
type AllProvidersFailedError struct {
	Results []ProviderResult
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all %d analysis providers failed", len(e.Results))
}

// Detail 按提供商逐条列出失败原因。
func (e *AllProvidersFailedError) Detail() string {
	parts := make([]string, 0, len(e.Results))
	for _, r := range e.Results {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Provider, r.Error))
	}
	return strings.Join(parts, "; ")
}

// ChainStepFailedError 表示顺序流水线在某一步失败并中止了后续步骤。
type ChainStepFailedError struct {
	Index int
	Step  string
	Err   error
}

func (e *ChainStepFailedError) Error() string {
	return fmt.Sprintf("chain step %d (%s) failed: %v", e.Index, e.Step, e.Err)
}

func (e *ChainStepFailedError) Unwrap() error {
	return e.Err
}
