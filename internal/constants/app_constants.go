package constants

import "time"

const (
	// ParserVersion 写入 metadata.parser_version
	ParserVersion = "1.0.0"
	// ServiceName 服务名，用于横幅、追踪和事件来源
	ServiceName = "resume-parser"

	// 上传限制默认值
	DefaultMaxFileSizeMB = 10
	DefaultMaxBatchFiles = 10

	// DefaultBatchConcurrency 批量处理时同时处理的文档数
	DefaultBatchConcurrency = 10
	// MaxExtractorGoroutines 单份文档内并行的提取器数量上限
	MaxExtractorGoroutines = 4

	// DefaultRecordCacheTTL 解析结果缓存时间
	DefaultRecordCacheTTL = 7 * 24 * time.Hour
	// DefaultExtractTimeout 单份文档处理超时
	DefaultExtractTimeout = 30 * time.Second

	// RawTextEllipsis raw_text 截断后追加的后缀
	RawTextEllipsis = "..."
)

// 支持的文件 MIME 类型
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeDOC  = "application/msword"
	MIMETypeText = "text/plain"
)

// SupportedFormats GET / 中展示的格式列表
var SupportedFormats = []string{"PDF", "DOCX", "DOC"}
