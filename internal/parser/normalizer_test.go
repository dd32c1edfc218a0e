package parser

import (
	"strings"
	"testing"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(config.DefaultVocabulary().SectionHeaders, DefaultMaxHeaderLength)
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\n\r\n\t", "\x00\x01"} {
		doc := newTestNormalizer().Normalize(raw)
		require.NotNil(t, doc)
		assert.Empty(t, doc.Lines, "输入 %q 应得到空行集合", raw)
		assert.NotNil(t, doc.Lines)
		assert.NotNil(t, doc.Lower)
		assert.NotNil(t, doc.Sections)
		assert.Empty(t, doc.Sections)
	}
}

func TestNormalizeWhitespaceAndBreaks(t *testing.T) {
	raw := "\n\n  Jane   Smith \r\n\r\n\tSoftware Engineer  \f Page 2\rEnd\n\n"
	doc := newTestNormalizer().Normalize(raw)

	assert.Equal(t, []string{"Jane Smith", "Software Engineer", "Page 2", "End"}, doc.Lines)
	assert.Equal(t, []string{"jane smith", "software engineer", "page 2", "end"}, doc.Lower)
}

func TestNormalizeUnicodeFolding(t *testing.T) {
	doc := newTestNormalizer().Normalize("ﬁnance lead\nＰＹＴＨＯＮ")

	assert.Equal(t, []string{"finance lead", "PYTHON"}, doc.Lines)
	assert.Equal(t, "python", doc.Lower[1])
}

func TestNormalizeStripsNonPrintable(t *testing.T) {
	doc := newTestNormalizer().Normalize("Jane\u200b Smith\x00\u00ad")
	assert.Equal(t, []string{"Jane Smith"}, doc.Lines)
}

func TestNormalizeHyphenation(t *testing.T) {
	doc := newTestNormalizer().Normalize("Led the engi-\nneering team\nJan 2018 -\nPresent\nWell-\nKnown")

	assert.Equal(t, []string{
		"Led the engineering team",
		"Jan 2018 -",
		"Present",
		"Well-",
		"Known",
	}, doc.Lines, "只有字母加连字符且下一行小写开头时才合并")
}

func TestNormalizeLowerIsByteAligned(t *testing.T) {
	doc := newTestNormalizer().Normalize("İstanbul, Türkiye\nKELVIN K")
	require.Len(t, doc.Lower, len(doc.Lines))
	for i := range doc.Lines {
		assert.Equal(t, len(doc.Lines[i]), len(doc.Lower[i]), "第 %d 行大小写副本长度不一致", i)
	}
}

func TestNormalizeSectionDetection(t *testing.T) {
	raw := strings.Join([]string{
		"Jane Smith",
		"SUMMARY",
		"Backend engineer.",
		"Work Experience:",
		"Acme Corp 2019 - 2021",
		"Skills: Go, Docker",
		"• Education",
		"State University",
	}, "\n")
	doc := newTestNormalizer().Normalize(raw)

	require.Len(t, doc.Sections, 4)
	assert.Equal(t, types.SectionSpan{Label: types.SectionSummary, Title: "SUMMARY", Header: 1, Start: 2, End: 3}, doc.Sections[0])
	assert.Equal(t, types.SectionSpan{Label: types.SectionExperience, Title: "Work Experience:", Header: 3, Start: 4, End: 5}, doc.Sections[1])
	assert.Equal(t, types.SectionSpan{Label: types.SectionSkills, Title: "Skills: Go, Docker", Header: 5, Start: 5, End: 6}, doc.Sections[2], "行内标题包含本行")
	assert.Equal(t, types.SectionSpan{Label: types.SectionEducation, Title: "• Education", Header: 6, Start: 7, End: 8}, doc.Sections[3])

	assert.Equal(t, []string{"State University"}, doc.SectionLines(types.SectionEducation))
	assert.True(t, doc.IsHeader(1))
	assert.False(t, doc.IsHeader(2))

	span, ok := doc.Section(types.SectionExperience)
	require.True(t, ok)
	assert.Equal(t, 4, span.Start)
	_, ok = doc.Section(types.SectionAwards)
	assert.False(t, ok)
}

func TestNormalizeHeaderMustBeShort(t *testing.T) {
	doc := newTestNormalizer().Normalize(strings.Join([]string{
		"Experience building distributed systems at scale",
		"education",
	}, "\n"))
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, types.SectionEducation, doc.Sections[0].Label)
	assert.Equal(t, 1, doc.Sections[0].Header)

	tight := NewNormalizer(config.DefaultVocabulary().SectionHeaders, 5)
	assert.Empty(t, tight.Normalize("Education").Sections, "超过长度上限的行不是标题")
}

func TestNormalizeLongColonLineIsNotHeader(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		header bool
	}{
		{name: "短行内标题", line: "Technologies: Go, Docker", header: true},
		{name: "超长冒号行", line: "Technologies: Go, Docker, Kubernetes, Terraform and PostgreSQL across several large distributed systems", header: false},
		{name: "词数超限的冒号行", line: "Skills: Go, Rust, Java, Lua, Zig", header: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestNormalizer().Normalize("Experience\nAcme Corp 2014-2018\n" + tt.line)
			require.NotEmpty(t, doc.Sections)
			assert.Equal(t, tt.header, doc.IsHeader(2))
			if !tt.header {
				require.Len(t, doc.Sections, 1)
				assert.Equal(t, 3, doc.Sections[0].End, "经历章节延伸到文末")
			}
		})
	}
}
