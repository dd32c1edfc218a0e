package processor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Saking-tech/Resume-parser/internal/constants"
	"github.com/Saking-tech/Resume-parser/internal/parser"
	"github.com/Saking-tech/Resume-parser/internal/types"
)

const (
	// nameScanLines 姓名只在前几行查找
	nameScanLines = 5
	// summaryMaxLines 简介最多取的行数
	summaryMaxLines = 3

	extractedFromText = "text_analysis"
	sourceExtracted   = "extracted"
	sourceNotFound    = "not_found"
)

// 出现这些词的行不会是姓名
var contactMarkers = []string{"email", "e-mail", "phone", "mobile", "address", "linkedin", "github", "http", "www."}

// Assemble 按给定顺序应用各提取器的片段，再补齐姓名、简介、raw_text 与元数据。
// 返回的记录所有集合字段均非 nil
func Assemble(doc *types.NormalizedText, raw string, meta types.RecordMetadata, excerpt int, fragments ...parser.Fragment) *types.ResumeRecord {
	rec := emptyRecord()
	for _, f := range fragments {
		if f != nil {
			f(rec)
		}
	}
	fillNilCollections(rec)

	if name := extractName(doc); name != "" {
		rec.PersonalInfo = types.PersonalInfo{Name: name, ExtractedFrom: extractedFromText}
	}
	if summary := extractSummary(doc); summary != "" {
		rec.Summary = types.SummaryInfo{Summary: summary, Source: sourceExtracted}
	}

	rec.RawText = excerptText(raw, excerpt)
	if meta.ParserVersion == "" {
		meta.ParserVersion = constants.ParserVersion
	}
	meta.TextLength = utf8.RuneCountInString(raw)
	rec.Metadata = meta
	return rec
}

func emptyRecord() *types.ResumeRecord {
	return &types.ResumeRecord{
		PersonalInfo: types.PersonalInfo{ExtractedFrom: sourceNotFound},
		ContactInfo: types.ContactInfo{
			Emails:    []string{},
			Phones:    []string{},
			Locations: []string{},
		},
		Skills: types.SkillsInfo{TechnicalSkills: []types.SkillEntry{}},
		Education: types.EducationInfo{
			Degrees:         []types.DegreeEntry{},
			Institutions:    []string{},
			GraduationYears: []string{},
		},
		Experience: types.ExperienceSummary{
			ExperienceLevel: types.LevelEntry,
			JobTitles:       []string{},
			Companies:       []string{},
		},
		Summary: types.SummaryInfo{Source: sourceNotFound},
	}
}

// fillNilCollections 片段可能写入 nil 切片，序列化时统一为 []
func fillNilCollections(rec *types.ResumeRecord) {
	if rec.ContactInfo.Emails == nil {
		rec.ContactInfo.Emails = []string{}
	}
	if rec.ContactInfo.Phones == nil {
		rec.ContactInfo.Phones = []string{}
	}
	if rec.ContactInfo.Locations == nil {
		rec.ContactInfo.Locations = []string{}
	}
	if rec.Skills.TechnicalSkills == nil {
		rec.Skills.TechnicalSkills = []types.SkillEntry{}
	}
	if rec.Education.Degrees == nil {
		rec.Education.Degrees = []types.DegreeEntry{}
	}
	if rec.Education.Institutions == nil {
		rec.Education.Institutions = []string{}
	}
	if rec.Education.GraduationYears == nil {
		rec.Education.GraduationYears = []string{}
	}
	if rec.Experience.JobTitles == nil {
		rec.Experience.JobTitles = []string{}
	}
	if rec.Experience.Companies == nil {
		rec.Experience.Companies = []string{}
	}
	if rec.Experience.ExperienceLevel == "" {
		rec.Experience.ExperienceLevel = types.LevelEntry
	}
}

// extractName 前 5 行中第一个像人名的行: 2 到 4 个纯字母单词，至少一个首字母大写
func extractName(doc *types.NormalizedText) string {
	for i := 0; i < len(doc.Lines) && i < nameScanLines; i++ {
		if doc.IsHeader(i) {
			continue
		}
		lower := doc.Lower[i]
		if strings.ContainsAny(lower, "@:/") || containsAny(lower, contactMarkers) {
			continue
		}
		if looksLikeName(doc.Lines[i]) {
			return doc.Lines[i]
		}
	}
	return ""
}

func looksLikeName(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	capital := false
	for _, w := range words {
		letters := 0
		for _, r := range w {
			switch {
			case unicode.IsLetter(r):
				letters++
			case r == '.' || r == '\'' || r == '-':
			default:
				return false
			}
		}
		if letters == 0 {
			return false
		}
		if r, _ := utf8.DecodeRuneInString(w); unicode.IsUpper(r) {
			capital = true
		}
	}
	return capital
}

// extractSummary 简介章节的前 3 行。行内标题只保留冒号之后的内容
func extractSummary(doc *types.NormalizedText) string {
	span, ok := doc.Section(types.SectionSummary)
	if !ok {
		return ""
	}
	var lines []string
	for i := span.Start; i < span.End && len(lines) < summaryMaxLines; i++ {
		line := doc.Lines[i]
		if i == span.Header {
			if idx := strings.IndexByte(line, ':'); idx >= 0 {
				line = line[idx+1:]
			}
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// excerptText 按字符截取，超出时追加省略号
func excerptText(raw string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	n := 0
	for i := range raw {
		if n == limit {
			return raw[:i] + constants.RawTextEllipsis
		}
		n++
	}
	return raw
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
