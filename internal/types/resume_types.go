package types

import "strings"

// SectionLabel 表示简历章节类型
type SectionLabel string

const (
	// SectionExperience 工作经历章节
	SectionExperience SectionLabel = "experience"
	// SectionEducation 教育经历章节
	SectionEducation SectionLabel = "education"
	// SectionSkills 技能章节
	SectionSkills SectionLabel = "skills"
	// SectionSummary 个人简介章节
	SectionSummary SectionLabel = "summary"
	// SectionProjects 项目经历章节
	SectionProjects SectionLabel = "projects"
	// SectionCertifications 证书章节
	SectionCertifications SectionLabel = "certifications"
	// SectionContact 联系方式章节
	SectionContact SectionLabel = "contact"
	// SectionAwards 获奖经历章节
	SectionAwards SectionLabel = "awards"
)

// RawDocument 外部文件解析层产出的原始文本，只读
type RawDocument struct {
	Text     string
	Filename string
}

// SectionSpan 章节在 Lines 中的行区间 [Start, End)
// 独立标题行时 Start = Header+1；行内标题（如 "Skills: Go"）时 Start = Header
type SectionSpan struct {
	Label  SectionLabel
	Title  string // 原始标题行
	Header int
	Start  int
	End    int
}

// NormalizedText 清洗后的文本，所有提取器共享且只读
type NormalizedText struct {
	Lines    []string      // 原始大小写，用于展示
	Lower    []string      // 与 Lines 一一对应的小写副本，仅用于匹配
	Sections []SectionSpan // 检测到的章节，按出现顺序
}

// Text 返回以换行拼接的原始大小写全文
func (n *NormalizedText) Text() string {
	return strings.Join(n.Lines, "\n")
}

// LowerText 返回以换行拼接的小写全文
func (n *NormalizedText) LowerText() string {
	return strings.Join(n.Lower, "\n")
}

// Section 返回第一个匹配标签的章节
func (n *NormalizedText) Section(label SectionLabel) (SectionSpan, bool) {
	for _, s := range n.Sections {
		if s.Label == label {
			return s, true
		}
	}
	return SectionSpan{}, false
}

// SectionLines 返回同一标签下所有章节的行（原始大小写）
func (n *NormalizedText) SectionLines(label SectionLabel) []string {
	var lines []string
	for _, s := range n.Sections {
		if s.Label != label {
			continue
		}
		lines = append(lines, n.Lines[s.Start:s.End]...)
	}
	return lines
}

// IsHeader 判断某行是否为章节标题行
func (n *NormalizedText) IsHeader(line int) bool {
	for _, s := range n.Sections {
		if s.Header == line {
			return true
		}
	}
	return false
}

// PersonalInfo 基本身份信息
type PersonalInfo struct {
	Name          string `json:"name"`
	ExtractedFrom string `json:"extracted_from"`
}

// ContactInfo 联系方式。邮箱和电话按归一化值去重，保留首次出现的顺序和原始写法
type ContactInfo struct {
	Emails    []string `json:"emails"`
	Phones    []string `json:"phones"`
	LinkedIn  string   `json:"linkedin"`
	Locations []string `json:"locations"`
}

// SkillEntry 技能条目，Mentions 为全文出现次数
type SkillEntry struct {
	Skill    string `json:"skill"`
	Mentions int    `json:"mentions"`
	Category string `json:"category"`
}

// SkillsInfo 技能提取结果
type SkillsInfo struct {
	TechnicalSkills  []SkillEntry `json:"technical_skills"`
	TotalSkillsFound int          `json:"total_skills_found"`
}

// DegreeLevel 学位层级，封闭集合
type DegreeLevel string

const (
	DegreeAssociate DegreeLevel = "associate"
	DegreeBachelor  DegreeLevel = "bachelor"
	DegreeMaster    DegreeLevel = "master"
	DegreeDoctorate DegreeLevel = "doctorate"
)

// DegreeTypeTag DegreeEntry 的固定类型标记
const DegreeTypeTag = "degree"

// DegreeEntry 学位条目
type DegreeEntry struct {
	Degree DegreeLevel `json:"degree"`
	Field  string      `json:"field"`
	Type   string      `json:"type"`
}

// EducationInfo 教育信息提取结果
type EducationInfo struct {
	Degrees         []DegreeEntry `json:"degrees"`
	Institutions    []string      `json:"institutions"`
	GraduationYears []string      `json:"graduation_years"`
}

// ExperienceLevel 资历等级，有序
type ExperienceLevel string

const (
	LevelEntry  ExperienceLevel = "entry"
	LevelJunior ExperienceLevel = "junior"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
	LevelLead   ExperienceLevel = "lead"
)

// ExperienceSummary 工作年限估算结果
type ExperienceSummary struct {
	TotalYearsExperience float64         `json:"total_years_experience"`
	ExperienceLevel      ExperienceLevel `json:"experience_level"`
	JobTitles            []string        `json:"job_titles"`
	Companies            []string        `json:"companies"`
}

// SummaryInfo 个人简介
type SummaryInfo struct {
	Summary string `json:"summary"`
	Source  string `json:"source"` // extracted | not_found
}

// RecordMetadata 解析元数据
type RecordMetadata struct {
	Filename      string `json:"filename"`
	FileType      string `json:"file_type,omitempty"`
	ParsedAt      string `json:"parsed_at,omitempty"` // 由接入层填写，核心管线保持确定性
	TextLength    int    `json:"text_length"`
	ParserVersion string `json:"parser_version"`
}

// ResumeRecord 管线唯一输出。组装后不再修改，所有集合字段均非 nil
type ResumeRecord struct {
	PersonalInfo PersonalInfo      `json:"personal_info"`
	ContactInfo  ContactInfo       `json:"contact_info"`
	Skills       SkillsInfo        `json:"skills"`
	Education    EducationInfo     `json:"education"`
	Experience   ExperienceSummary `json:"experience"`
	Summary      SummaryInfo       `json:"summary"`
	RawText      string            `json:"raw_text"`
	Metadata     RecordMetadata    `json:"metadata"`
}
