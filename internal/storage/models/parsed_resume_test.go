package models

import (
	"testing"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *types.ResumeRecord {
	return &types.ResumeRecord{
		PersonalInfo: types.PersonalInfo{Name: "Jane Smith", ExtractedFrom: "first_lines"},
		ContactInfo: types.ContactInfo{
			Emails:    []string{"jane@x.io", "j.smith@y.org"},
			Phones:    []string{"555-123-4567"},
			Locations: []string{},
		},
		Skills: types.SkillsInfo{
			TechnicalSkills: []types.SkillEntry{
				{Skill: "python", Mentions: 3, Category: "programming_language"},
				{Skill: "docker", Mentions: 1, Category: "cloud_devops"},
			},
			TotalSkillsFound: 2,
		},
		Experience: types.ExperienceSummary{TotalYearsExperience: 3, ExperienceLevel: types.LevelMid},
		Metadata: types.RecordMetadata{
			Filename:      "jane.pdf",
			FileType:      "application/pdf",
			ParsedAt:      "2026-10-15T08:30:00Z",
			ParserVersion: "1.0.0",
		},
	}
}

func TestNewParsedResume(t *testing.T) {
	row, err := NewParsedResume("uuid-1", "filemd5", "textmd5", "resume/uuid-1/original.pdf", sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, "uuid-1", row.SubmissionUUID)
	assert.Equal(t, "jane.pdf", row.Filename)
	assert.Equal(t, "Jane Smith", row.CandidateName)
	assert.Equal(t, "jane@x.io", row.PrimaryEmail, "取第一个邮箱")
	assert.Equal(t, "555-123-4567", row.PrimaryPhone)
	assert.Equal(t, "mid", row.ExperienceLevel)
	assert.Equal(t, []string{"python", "docker"}, row.Skills())
	assert.Equal(t, time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC), row.ParsedAt.UTC())

	rec, err := row.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), rec)
}

func TestNewParsedResumeNilRecord(t *testing.T) {
	_, err := NewParsedResume("uuid", "", "", "", nil)
	assert.Error(t, err)

	_, err = (&ParsedResume{SubmissionUUID: "x"}).ToRecord()
	assert.Error(t, err)
}
