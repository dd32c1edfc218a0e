package parser

import (
	"strings"
	"testing"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/stretchr/testify/assert"
)

func newTestContactExtractor() *ContactExtractor {
	vocab := config.DefaultVocabulary()
	return NewContactExtractor(vocab.NetworkDomains, vocab.LocationLabels, DefaultLocationScanLines)
}

func normalizeLines(lines ...string) *types.NormalizedText {
	return newTestNormalizer().Normalize(strings.Join(lines, "\n"))
}

func TestContactEmailsDeduplicated(t *testing.T) {
	doc := normalizeLines(
		"Jane.Smith@Email.com",
		"  jane.smith@email.com ",
		"Backup: bob_99@x.io.",
	)
	info := newTestContactExtractor().ExtractContact(doc)

	assert.Equal(t, []string{"Jane.Smith@Email.com", "bob_99@x.io"}, info.Emails, "按小写去重，保留首次写法")
}

func TestContactPhones(t *testing.T) {
	doc := normalizeLines(
		"(555) 123-4567 | 555.123.4567",
		"+44 20 7946 0958",
		"Experience: 2018-2021",
		"GPA 3.8, 2015 2019",
		"01/02/2019",
		"jane5551234567@mail.com",
	)
	info := newTestContactExtractor().ExtractContact(doc)

	assert.Equal(t, []string{"(555) 123-4567", "+44 20 7946 0958"}, info.Phones)
}

func TestContactPhoneDigitBounds(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{name: "六位数字太短", text: "Ref 123-456", want: []string{}},
		{name: "七位数字", text: "Call 123-4567", want: []string{"123-4567"}},
		{name: "超过十五位", text: "ID 1234 5678 9012 3456", want: []string{}},
		{name: "年份区间", text: "2018 - 2021", want: []string{}},
		{name: "邮编后跟年份", text: "Austin TX 78701 2019 graduate", want: []string{}},
		{name: "九位邮编后跟年份", text: "Austin TX 78701-1234 2019", want: []string{}},
		{name: "空格分隔的号码", text: "Call 512 555 2019", want: []string{"512 555 2019"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			info := newTestContactExtractor().ExtractContact(normalizeLines(tc.text))
			assert.Equal(t, tc.want, info.Phones)
		})
	}
}

func TestContactNetworkHandle(t *testing.T) {
	doc := normalizeLines(
		"Portfolio: https://www.LinkedIn.com/in/jane-smith-42/",
		"Old profile linkedin.com/in/other",
	)
	info := newTestContactExtractor().ExtractContact(doc)
	assert.Equal(t, "jane-smith-42", info.LinkedIn)

	custom := NewContactExtractor([]string{"xing.com/profile/"}, nil, 0)
	assert.Equal(t, "Jane_Smith", custom.ExtractContact(normalizeLines("xing.com/profile/Jane_Smith")).LinkedIn)
}

func TestContactLocations(t *testing.T) {
	doc := normalizeLines(
		"Jane Smith",
		"San Francisco, CA | jane@x.com",
		"Summary",
		"Based in Austin, TX.",
		"Experience",
		"Python, Docker",
		"Location: New York, NY 10001",
	)
	info := newTestContactExtractor().ExtractContact(doc)

	assert.Equal(t, []string{"San Francisco, CA", "Austin, TX", "New York, NY 10001"}, info.Locations,
		"章节内的 \"Python, Docker\" 不应被当作地点")
}

func TestContactEmptyDocument(t *testing.T) {
	info := newTestContactExtractor().ExtractContact(newTestNormalizer().Normalize(""))

	assert.NotNil(t, info.Emails)
	assert.NotNil(t, info.Phones)
	assert.NotNil(t, info.Locations)
	assert.Empty(t, info.Emails)
	assert.Empty(t, info.Phones)
	assert.Empty(t, info.Locations)
	assert.Equal(t, "", info.LinkedIn)
}

func TestContactExtractorFragment(t *testing.T) {
	e := newTestContactExtractor()
	assert.Equal(t, ExtractorContact, e.Name())

	var rec types.ResumeRecord
	e.Extract(normalizeLines("a@b.co"))(&rec)
	assert.Equal(t, []string{"a@b.co"}, rec.ContactInfo.Emails)
}
