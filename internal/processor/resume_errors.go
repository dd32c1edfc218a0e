package processor

import (
	"errors"
	"fmt"

	"github.com/Saking-tech/Resume-parser/internal/parser"
)

// 定义基础错误类型
var (
	// ErrMalformedInput 输入不是合法的 UTF-8 文本，是管线唯一的业务错误
	ErrMalformedInput = errors.New("malformed input")
	// ErrExtractorNotInit 未配置文本提取器
	ErrExtractorNotInit = errors.New("extractor is not initialized")
	// ErrLookupUnavailable 未配置 MySQL，无法按提交 ID 查询
	ErrLookupUnavailable = errors.New("record lookup unavailable")
)

// ExtractionError 包含详细错误信息的自定义错误
type ExtractionError struct {
	Filename string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *ExtractionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.Filename, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.Filename)
}

func (e *ExtractionError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewMalformedInputError(filename, detail string) error {
	return &ExtractionError{
		Filename: filename,
		Op:       "normalize",
		BaseErr:  ErrMalformedInput,
		Detail:   detail,
	}
}

// NewTextExtractionError base 为下层返回的错误，保留其错误链
func NewTextExtractionError(filename string, base error) error {
	if base == nil {
		base = parser.ErrTextExtractionFailed
	}
	return &ExtractionError{
		Filename: filename,
		Op:       "extract_text",
		BaseErr:  base,
	}
}
