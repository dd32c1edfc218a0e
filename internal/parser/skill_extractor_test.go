package parser

import (
	"testing"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skillNames(info types.SkillsInfo) []string {
	names := make([]string, 0, len(info.TechnicalSkills))
	for _, s := range info.TechnicalSkills {
		names = append(names, s.Skill)
	}
	return names
}

func TestSkillsOrderedByMentions(t *testing.T) {
	e := NewSkillExtractor(map[string]string{
		"python": config.CategoryLanguage,
		"java":   config.CategoryLanguage,
	}, 0)
	doc := normalizeLines("Java and Python developer.", "Python, python!")

	info := e.ExtractSkills(doc)
	assert.Equal(t, []string{"python", "java"}, skillNames(info))
	assert.Equal(t, 3, info.TechnicalSkills[0].Mentions)
	assert.Equal(t, 1, info.TechnicalSkills[1].Mentions)
	assert.Equal(t, 2, info.TotalSkillsFound)
}

func TestSkillsCountedWithDuplicatesInList(t *testing.T) {
	e := NewSkillExtractor(config.DefaultVocabulary().Skills, 0)
	info := e.ExtractSkills(normalizeLines("Skills: Python, Python, Docker"))

	assert.Equal(t, []types.SkillEntry{
		{Skill: "python", Mentions: 2, Category: config.CategoryLanguage},
		{Skill: "docker", Mentions: 1, Category: config.CategoryCloudDevOps},
	}, info.TechnicalSkills)
}

func TestSkillsWholeWordBoundaries(t *testing.T) {
	e := NewSkillExtractor(config.DefaultVocabulary().Skills, 0)
	info := e.ExtractSkills(normalizeLines("JavaScript, C++, C#, .NET, ASP.NET, Node.js and mysql"))

	assert.Equal(t,
		[]string{"javascript", "c++", "c#", ".net", "asp.net", "node.js", "mysql"},
		skillNames(info),
		"出现次数相同按首次出现位置排序，子串不计数")
}

func TestSkillsTieBreakByName(t *testing.T) {
	e := NewSkillExtractor(map[string]string{
		"sql server": config.CategoryDatabase,
		"sql":        config.CategoryLanguage,
	}, 0)
	info := e.ExtractSkills(normalizeLines("SQL Server"))

	assert.Equal(t, []string{"sql", "sql server"}, skillNames(info), "次数和位置都相同时按名称排序")
}

func TestSkillsMaxSkillsCap(t *testing.T) {
	e := NewSkillExtractor(map[string]string{
		"go":     config.CategoryLanguage,
		"docker": config.CategoryCloudDevOps,
		"redis":  config.CategoryDatabase,
	}, 2)
	info := e.ExtractSkills(normalizeLines("Go, Docker, Redis, Redis"))

	require.Len(t, info.TechnicalSkills, 2)
	assert.Equal(t, []string{"redis", "go"}, skillNames(info))
	assert.Equal(t, 3, info.TotalSkillsFound, "总数在截断前统计")
}

func TestSkillsDictionaryNormalization(t *testing.T) {
	e := NewSkillExtractor(map[string]string{
		"  Machine   Learning ": config.CategoryDataScience,
		"Rust":                  "",
	}, 0)
	info := e.ExtractSkills(normalizeLines("machine learning with RUST"))

	assert.Equal(t, []types.SkillEntry{
		{Skill: "machine learning", Mentions: 1, Category: config.CategoryDataScience},
		{Skill: "rust", Mentions: 1, Category: config.CategoryOther},
	}, info.TechnicalSkills)
}

func TestSkillsEmptyDocument(t *testing.T) {
	e := NewSkillExtractor(config.DefaultVocabulary().Skills, 0)
	info := e.ExtractSkills(normalizeLines(""))

	assert.NotNil(t, info.TechnicalSkills)
	assert.Empty(t, info.TechnicalSkills)
	assert.Equal(t, 0, info.TotalSkillsFound)
}
