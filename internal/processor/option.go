package processor

import (
	"time"

	"github.com/Saking-tech/Resume-parser/internal/parser"
	"github.com/rs/zerolog"
)

// Components 聚合提取管线的组件依赖，便于集中管理和测试替换
type Components struct {
	Normalizer *parser.Normalizer
	// 按组装顺序排列，同一维度出现多次时后者覆盖前者
	Extractors []parser.Extractor
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	Logger           *zerolog.Logger
	RawTextExcerpt   int           // raw_text 最多保留的字符数
	BatchConcurrency int           // 批量处理同时处理的文档数
	Timeout          time.Duration // 单份文档超时，0 表示不限制
	ParserVersion    string
}

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// WithcompNormalizer 设置文本清洗器
func WithcompNormalizer(n *parser.Normalizer) ComponentOpt {
	return func(c *Components) {
		c.Normalizer = n
	}
}

// WithcompExtractors 替换全部提取器
func WithcompExtractors(extractors ...parser.Extractor) ComponentOpt {
	return func(c *Components) {
		c.Extractors = extractors
	}
}

// WithsetLogger 设置日志记录器
func WithsetLogger(logger *zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		if logger != nil {
			s.Logger = logger
		} else {
			nop := zerolog.Nop()
			s.Logger = &nop
		}
	}
}

// WithsetRawTextExcerpt 设置 raw_text 截取长度
func WithsetRawTextExcerpt(n int) SettingOpt {
	return func(s *Settings) {
		if n > 0 {
			s.RawTextExcerpt = n
		}
	}
}

// WithsetBatchConcurrency 设置批量并发数
func WithsetBatchConcurrency(n int) SettingOpt {
	return func(s *Settings) {
		if n > 0 {
			s.BatchConcurrency = n
		}
	}
}

// WithsetTimeout 设置单份文档超时
func WithsetTimeout(d time.Duration) SettingOpt {
	return func(s *Settings) {
		s.Timeout = d
	}
}

// WithsetParserVersion 覆盖 metadata.parser_version
func WithsetParserVersion(v string) SettingOpt {
	return func(s *Settings) {
		if v != "" {
			s.ParserVersion = v
		}
	}
}
