package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/Saking-tech/Resume-parser/pkg/utils"
	"gorm.io/datatypes"
)

// ParsedResume 一次解析的持久化记录，完整结果存放在 RecordJSON
type ParsedResume struct {
	SubmissionUUID  string         `gorm:"type:char(36);primaryKey"`
	Filename        string         `gorm:"type:varchar(255)"`
	FileType        string         `gorm:"type:varchar(128)"`
	FileMD5         string         `gorm:"type:char(32);index:idx_parsed_resumes_file_md5"`
	TextMD5         string         `gorm:"type:char(32);index:idx_parsed_resumes_text_md5"`
	ObjectKey       string         `gorm:"type:varchar(512)"` // 原始文件在 MinIO 中的对象键，未归档时为空
	CandidateName   string         `gorm:"type:varchar(255)"`
	PrimaryEmail    string         `gorm:"type:varchar(255);index:idx_parsed_resumes_email"`
	PrimaryPhone    string         `gorm:"type:varchar(50)"`
	TotalYears      float64        `gorm:"type:decimal(5,2)"`
	ExperienceLevel string         `gorm:"type:varchar(20);index:idx_parsed_resumes_level"`
	SkillsJSON      datatypes.JSON `gorm:"type:json"` // []string，按出现次数排序
	RecordJSON      datatypes.JSON `gorm:"type:json"`
	ParserVersion   string         `gorm:"type:varchar(20)"`
	ParsedAt        time.Time      `gorm:"type:datetime(6)"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (ParsedResume) TableName() string {
	return "parsed_resumes"
}

// NewParsedResume 从解析结果构建数据库行
func NewParsedResume(submissionUUID, fileMD5, textMD5, objectKey string, rec *types.ResumeRecord) (*ParsedResume, error) {
	if rec == nil {
		return nil, fmt.Errorf("resume record is nil")
	}
	recordJSON, err := utils.ToJSON(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal resume record: %w", err)
	}

	skills := make([]string, 0, len(rec.Skills.TechnicalSkills))
	for _, s := range rec.Skills.TechnicalSkills {
		skills = append(skills, s.Skill)
	}
	row := &ParsedResume{
		SubmissionUUID:  submissionUUID,
		Filename:        rec.Metadata.Filename,
		FileType:        rec.Metadata.FileType,
		FileMD5:         fileMD5,
		TextMD5:         textMD5,
		ObjectKey:       objectKey,
		CandidateName:   rec.PersonalInfo.Name,
		TotalYears:      rec.Experience.TotalYearsExperience,
		ExperienceLevel: string(rec.Experience.ExperienceLevel),
		SkillsJSON:      utils.ConvertArrayToJSON(skills),
		RecordJSON:      recordJSON,
		ParserVersion:   rec.Metadata.ParserVersion,
	}
	if len(rec.ContactInfo.Emails) > 0 {
		row.PrimaryEmail = rec.ContactInfo.Emails[0]
	}
	if len(rec.ContactInfo.Phones) > 0 {
		row.PrimaryPhone = rec.ContactInfo.Phones[0]
	}
	if t, err := time.Parse(time.RFC3339Nano, rec.Metadata.ParsedAt); err == nil {
		row.ParsedAt = t
	}
	return row, nil
}

// ToRecord 还原完整解析结果
func (p *ParsedResume) ToRecord() (*types.ResumeRecord, error) {
	var rec types.ResumeRecord
	if len(p.RecordJSON) == 0 {
		return nil, fmt.Errorf("parsed resume %s has empty record", p.SubmissionUUID)
	}
	if err := json.Unmarshal(p.RecordJSON, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal resume record %s: %w", p.SubmissionUUID, err)
	}
	return &rec, nil
}

// Skills 解析 SkillsJSON
func (p *ParsedResume) Skills() []string {
	var skills []string
	if len(p.SkillsJSON) > 0 {
		_ = json.Unmarshal(p.SkillsJSON, &skills)
	}
	return skills
}
