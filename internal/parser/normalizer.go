package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Saking-tech/Resume-parser/internal/types"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxHeaderLength 标题行默认最大字符数
const DefaultMaxHeaderLength = 40

// maxHeaderWords 标题最多包含的单词数，超过即视为正文
const maxHeaderWords = 5

// headerTrimChars 标题行首尾可忽略的装饰字符
const headerTrimChars = " \t-–—*•·▪►■●○#=_:|"

// Normalizer 文本清洗与章节切分。构建后只读，可并发使用
type Normalizer struct {
	headers      map[string]types.SectionLabel
	maxHeaderLen int
}

// NewNormalizer 根据章节标题词表构建 Normalizer
func NewNormalizer(headers map[types.SectionLabel][]string, maxHeaderLen int) *Normalizer {
	if maxHeaderLen <= 0 {
		maxHeaderLen = DefaultMaxHeaderLength
	}
	n := &Normalizer{
		headers:      make(map[string]types.SectionLabel),
		maxHeaderLen: maxHeaderLen,
	}
	for label, synonyms := range headers {
		for _, syn := range synonyms {
			key := collapseSpaces(strings.ToLower(syn))
			if key != "" {
				n.headers[key] = label
			}
		}
	}
	return n
}

// Normalize 清洗原始文本。空输入返回空结果，不会失败
func (n *Normalizer) Normalize(raw string) *types.NormalizedText {
	out := &types.NormalizedText{
		Lines:    []string{},
		Lower:    []string{},
		Sections: []types.SectionSpan{},
	}
	if raw == "" {
		return out
	}

	text := norm.NFKC.String(strings.ToValidUTF8(raw, ""))
	text = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\f", "\n",
		"\v", "\n",
		"\u2028", "\n",
		"\u2029", "\n",
	).Replace(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = cleanLine(line)
		if line == "" {
			continue
		}
		// 换行断词修复: "engi-" + "neering" -> "engineering"
		if k := len(lines) - 1; k >= 0 && endsWithHyphenatedWord(lines[k]) && startsWithLower(line) {
			lines[k] = lines[k][:len(lines[k])-1] + line
			continue
		}
		lines = append(lines, line)
	}

	for _, line := range lines {
		out.Lines = append(out.Lines, line)
		out.Lower = append(out.Lower, lowerSameWidth(line))
	}
	out.Sections = n.detectSections(out.Lines, out.Lower)
	return out
}

// detectSections 逐行识别标题，章节延伸到下一个标题之前
func (n *Normalizer) detectSections(lines, lower []string) []types.SectionSpan {
	sections := []types.SectionSpan{}
	for i, line := range lower {
		label, inline, ok := n.matchHeader(line)
		if !ok {
			continue
		}
		if k := len(sections) - 1; k >= 0 {
			sections[k].End = i
		}
		start := i + 1
		if inline {
			start = i
		}
		sections = append(sections, types.SectionSpan{
			Label:  label,
			Title:  lines[i],
			Header: i,
			Start:  start,
			End:    len(lower),
		})
	}
	return sections
}

// matchHeader 判断小写行是否为章节标题。inline 表示 "skills: python" 这类同行带内容的标题。
// 长度与词数按整行计算，带冒号的长句不算标题
func (n *Normalizer) matchHeader(lower string) (types.SectionLabel, bool, bool) {
	if utf8.RuneCountInString(lower) > n.maxHeaderLen || len(strings.Fields(lower)) > maxHeaderWords {
		return "", false, false
	}
	if idx := strings.IndexByte(lower, ':'); idx > 0 {
		head := strings.Trim(lower[:idx], headerTrimChars)
		rest := strings.TrimSpace(lower[idx+1:])
		if label, ok := n.lookupHeader(head); ok {
			return label, rest != "", true
		}
	}

	label, ok := n.lookupHeader(strings.Trim(lower, headerTrimChars))
	return label, false, ok
}

func (n *Normalizer) lookupHeader(candidate string) (types.SectionLabel, bool) {
	if candidate == "" || utf8.RuneCountInString(candidate) > n.maxHeaderLen {
		return "", false
	}
	if len(strings.Fields(candidate)) > maxHeaderWords {
		return "", false
	}
	label, ok := n.headers[collapseSpaces(candidate)]
	return label, ok
}

// cleanLine 去掉不可打印字符，合并空白
func cleanLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	space := false
	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case !unicode.IsPrint(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func endsWithHyphenatedWord(line string) bool {
	if !strings.HasSuffix(line, "-") {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(line[:len(line)-1])
	return unicode.IsLetter(r)
}

func startsWithLower(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsLower(r)
}

// lowerSameWidth 逐字符转小写，编码长度变化的字符保持原样，保证与原文按字节对齐
func lowerSameWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		l := unicode.ToLower(r)
		if utf8.RuneLen(l) != utf8.RuneLen(r) {
			l = r
		}
		b.WriteRune(l)
	}
	return b.String()
}
