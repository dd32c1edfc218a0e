package parser

import "github.com/Saking-tech/Resume-parser/internal/types"

// Fragment 提取器产出的部分结果，由组装方按固定顺序写入记录
type Fragment func(rec *types.ResumeRecord)

// Extractor 从 NormalizedText 中提取某一维度的信息。
// 实现必须是纯函数：只读 doc 和自身词表，不依赖其他提取器的结果
type Extractor interface {
	Name() string
	Extract(doc *types.NormalizedText) Fragment
}

// 提取器名称，用于日志和追踪
const (
	ExtractorContact    = "contact"
	ExtractorSkills     = "skills"
	ExtractorEducation  = "education"
	ExtractorExperience = "experience"
)
