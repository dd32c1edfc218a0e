package parser

import (
	"regexp"
	"strings"

	"github.com/Saking-tech/Resume-parser/internal/types"
)

// DefaultLocationScanLines 地点默认只在前 N 行中查找
const DefaultLocationScanLines = 8

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// 带协议、www 或 "域名/路径" 形式的链接，扫描电话前先屏蔽
	urlPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+|\b[a-z0-9.-]+\.[a-z]{2,}/\S*`)
	// 可选国家码、可选括号区号，数字组之间允许一个空格、点或短横线
	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}[ .-]?)?(?:\(\d{1,4}\)[ .-]?)?\d{2,15}(?:[ .-]\d{1,5}){0,5}`)
	digitGroups  = regexp.MustCompile(`\d+`)
	yearGroup    = regexp.MustCompile(`^(?:19|20)\d{2}$`)
	datePattern  = regexp.MustCompile(`^\d{1,2}[./-]\d{1,2}[./-]\d{2,4}$`)
	zipGroup     = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)

	locationPattern = regexp.MustCompile(`^[A-Z][A-Za-z.'-]+(?: [A-Z][A-Za-z.'-]+){0,3}, ?(?:[A-Z]{2}|[A-Z][A-Za-z]+(?: [A-Z][A-Za-z]+){0,2})(?: \d{5}(?:-\d{4})?)?$`)
	chunkSeparator  = regexp.MustCompile(`\s*[|•·;]\s*|\s+[-–—]\s+`)
)

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// ContactExtractor 邮箱、电话、职业社交主页和地点
type ContactExtractor struct {
	handlePatterns []*regexp.Regexp
	locationLabels []string
	scanLines      int
}

// NewContactExtractor domains 形如 "linkedin.com/in/"，labels 形如 "location"
func NewContactExtractor(domains, locationLabels []string, scanLines int) *ContactExtractor {
	if scanLines <= 0 {
		scanLines = DefaultLocationScanLines
	}
	e := &ContactExtractor{scanLines: scanLines}
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		e.handlePatterns = append(e.handlePatterns,
			regexp.MustCompile(`(?i)`+regexp.QuoteMeta(d)+`([A-Za-z0-9_-]+)`))
	}
	for _, l := range locationLabels {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			e.locationLabels = append(e.locationLabels, l)
		}
	}
	return e
}

func (e *ContactExtractor) Name() string { return ExtractorContact }

func (e *ContactExtractor) Extract(doc *types.NormalizedText) Fragment {
	info := e.ExtractContact(doc)
	return func(rec *types.ResumeRecord) {
		rec.ContactInfo = info
	}
}

// ExtractContact 任何字段未命中时返回空集合或空字符串
func (e *ContactExtractor) ExtractContact(doc *types.NormalizedText) types.ContactInfo {
	text := doc.Text()
	return types.ContactInfo{
		Emails:    extractEmails(text),
		Phones:    extractPhones(text),
		LinkedIn:  e.extractHandle(text),
		Locations: e.extractLocations(doc),
	}
}

func extractEmails(text string) []string {
	emails := []string{}
	seen := make(map[string]struct{})
	for _, m := range emailPattern.FindAllString(text, -1) {
		emails = uniqueAppend(emails, seen, m, lowerKey(m))
	}
	return emails
}

func extractPhones(text string) []string {
	// 邮箱和链接里的数字不算电话
	masked := emailPattern.ReplaceAllStringFunc(text, blankOut)
	masked = urlPattern.ReplaceAllStringFunc(masked, blankOut)

	phones := []string{}
	seen := make(map[string]struct{})
	for _, loc := range phonePattern.FindAllStringIndex(masked, -1) {
		start, end := loc[0], loc[1]
		if !boundedAt(masked, start, end) {
			continue
		}
		candidate := strings.TrimSpace(masked[start:end])
		digits := digitsOnly(candidate)
		if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
			continue
		}
		if onlyYears(candidate) || zipThenYear(candidate) || datePattern.MatchString(candidate) {
			continue
		}
		phones = uniqueAppend(phones, seen, candidate, digits)
	}
	return phones
}

// onlyYears "2018-2021"、"2015 2019" 这类全部由年份组成的数字串
func onlyYears(s string) bool {
	groups := digitGroups.FindAllString(s, -1)
	if len(groups) == 0 {
		return false
	}
	for _, g := range groups {
		if !yearGroup.MatchString(g) {
			return false
		}
	}
	return true
}

// zipThenYear "78701 2019" 这类邮编后紧跟年份
func zipThenYear(s string) bool {
	fields := strings.Fields(s)
	return len(fields) == 2 && zipGroup.MatchString(fields[0]) && yearGroup.MatchString(fields[1])
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// blankOut 用等长空格替换，保持其余文本的位置不变
func blankOut(s string) string {
	return strings.Repeat(" ", len(s))
}

// extractHandle 取文中最早出现的主页路径
func (e *ContactExtractor) extractHandle(text string) string {
	best, bestPos := "", -1
	for _, p := range e.handlePatterns {
		m := p.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		if bestPos < 0 || m[0] < bestPos {
			best, bestPos = text[m[2]:m[3]], m[0]
		}
	}
	return best
}

// extractLocations 文档开头若干行中的 "City, ST" 形式，以及任意位置带标签的地点
func (e *ContactExtractor) extractLocations(doc *types.NormalizedText) []string {
	locations := []string{}
	seen := make(map[string]struct{})

	for i, line := range doc.Lines {
		if value, ok := e.labelledLocation(line, doc.Lower[i]); ok {
			locations = uniqueAppend(locations, seen, value, lowerKey(value))
			continue
		}
		if i >= e.scanLines || !inContactScope(doc, i) {
			continue
		}
		for _, chunk := range chunkSeparator.Split(line, -1) {
			chunk = strings.TrimSpace(chunk)
			if locationPattern.MatchString(chunk) {
				locations = uniqueAppend(locations, seen, chunk, lowerKey(chunk))
			}
		}
	}
	return locations
}

// labelledLocation "Location: Austin, TX"、"Based in Berlin"
func (e *ContactExtractor) labelledLocation(line, lower string) (string, bool) {
	for _, label := range e.locationLabels {
		idx := strings.Index(lower, label)
		if idx < 0 || !boundedAt(lower, idx, idx+len(label)) {
			continue
		}
		// 标签须在行首，或紧跟冒号
		after := line[idx+len(label):]
		if strings.TrimLeft(line[:idx], headerTrimChars) != "" && !strings.HasPrefix(strings.TrimSpace(after), ":") {
			continue
		}
		rest := strings.TrimLeft(after, " :")
		if rest == "" {
			continue
		}
		// 标签后只取到下一个分隔符为止
		value := strings.TrimSpace(chunkSeparator.Split(rest, 2)[0])
		value = strings.TrimRight(value, ".")
		if value != "" && !emailPattern.MatchString(value) {
			return value, true
		}
	}
	return "", false
}

// inContactScope 不属于任何章节，或属于联系方式章节，且不是标题行
func inContactScope(doc *types.NormalizedText, line int) bool {
	if doc.IsHeader(line) {
		return false
	}
	for _, s := range doc.Sections {
		if line >= s.Start && line < s.End {
			return s.Label == types.SectionContact
		}
	}
	return true
}
