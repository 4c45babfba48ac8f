package util

import (
	"errors"
	"strings"
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageError       = errors.New("storage error")
	ErrResponseNotFound   = errors.New("survey response not found")
	ErrNotification       = errors.New("notification failed")
	ErrCacheMiss          = errors.New("cache miss")
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 问卷格式错误或缺漏
type ValidationError struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"errors"`
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// FieldNames 按报告顺序列出出错字段
func (e *ValidationError) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
