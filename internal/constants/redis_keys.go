package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "resume_parser"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"

	// EntityRecord 解析结果实体
	EntityRecord = "record"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"

	// KeyParsedRecord 解析结果缓存 (STRING, JSON)
	// 格式: resume_parser:resume:record:{parserVersion}:{textMD5}
	KeyParsedRecord = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityRecord + ":%s:%s"

	// KeyFileMD5Set 原始文件MD5集合，用于统计重复上传 (SET)
	// 格式: resume_parser:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet
)
