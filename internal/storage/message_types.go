package storage

import "time"

// EventTypeResumeParsed 发件箱中解析完成事件的类型
const EventTypeResumeParsed = "resume.parsed"

// ResumeParsedMessage 解析完成事件，发布到 resume events exchange
type ResumeParsedMessage struct {
	SubmissionUUID       string    `json:"submission_uuid"`
	Filename             string    `json:"filename"`
	FileType             string    `json:"file_type,omitempty"`
	FileMD5              string    `json:"file_md5,omitempty"`
	TextMD5              string    `json:"text_md5"`
	OriginalObjectKey    string    `json:"original_object_key,omitempty"` // 未归档时为空
	CandidateName        string    `json:"candidate_name,omitempty"`
	SkillCount           int       `json:"skill_count"`
	TotalYearsExperience float64   `json:"total_years_experience"`
	ExperienceLevel      string    `json:"experience_level"`
	ParserVersion        string    `json:"parser_version"`
	CacheHit             bool      `json:"cache_hit"`
	ParsedAt             time.Time `json:"parsed_at"`
}
