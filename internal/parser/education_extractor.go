package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/Saking-tech/Resume-parser/internal/types"
)

// maxInstitutions 最多保留的院校数
const maxInstitutions = 3

// maxFieldWords 专业名称最多单词数
const maxFieldWords = 6

var (
	graduationYear = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	anyDigitRun    = regexp.MustCompile(`\d+`)

	// 专业名称遇到这些词即截止
	fieldStopWords = map[string]struct{}{
		"from": {}, "at": {}, "with": {}, "gpa": {}, "graduated": {}, "expected": {}, "minor": {},
		"class": {}, "honors": {}, "university": {}, "college": {}, "institute": {}, "school": {},
		"academy": {}, "degree": {}, "cgpa": {}, "major": {},
	}
	fieldConnectors = map[string]struct{}{"and": {}, "&": {}, "of": {}, "in": {}, "for": {}}

	// "Bachelor of Science in X" 取 X
	fieldQualifiers = []string{"science in ", "arts in ", "engineering in ", "applied science in ", "technology in "}

	// 无点缩写后面跟这些词时不是学位，例如 "MS Office"
	nonDegreeFollowers = map[string]struct{}{
		"office": {}, "excel": {}, "word": {}, "powerpoint": {}, "outlook": {}, "access": {},
		"project": {}, "teams": {}, "windows": {}, "sql": {}, "dynamics": {}, "azure": {}, "visio": {},
	}
)

type degreeSynonym struct {
	text  string
	level types.DegreeLevel
}

// abbreviation 缩写或多词同义词无需 "of/in" 即可成立
func (s degreeSynonym) abbreviation() bool {
	return strings.ContainsAny(s.text, ". ") || len(s.text) <= 4
}

// dotless "bs"、"mba" 这类缩写，要求原文首字母大写
func (s degreeSynonym) dotless() bool {
	return !strings.ContainsAny(s.text, ". '") && len(s.text) <= 4
}

// needsField "ms"、"ba" 这类两字母缩写与州名缩写同形，后面没有专业名称时不算学位
func (s degreeSynonym) needsField() bool {
	return s.dotless() && len(s.text) <= 2
}

// EducationExtractor 学位、院校与毕业年份
type EducationExtractor struct {
	synonyms            []degreeSynonym // 长的优先，避免 "b.s" 抢先匹配 "b.s."
	institutionKeywords []string
}

// NewEducationExtractor degrees 为同义词到学位层级的映射
func NewEducationExtractor(degrees map[string]types.DegreeLevel, institutionKeywords []string) *EducationExtractor {
	e := &EducationExtractor{}
	for syn, level := range degrees {
		syn = collapseSpaces(strings.ToLower(syn))
		if syn != "" {
			e.synonyms = append(e.synonyms, degreeSynonym{text: syn, level: level})
		}
	}
	sort.Slice(e.synonyms, func(i, j int) bool {
		a, b := e.synonyms[i], e.synonyms[j]
		if len(a.text) != len(b.text) {
			return len(a.text) > len(b.text)
		}
		return a.text < b.text
	})
	for _, kw := range institutionKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			e.institutionKeywords = append(e.institutionKeywords, kw)
		}
	}
	return e
}

func (e *EducationExtractor) Name() string { return ExtractorEducation }

func (e *EducationExtractor) Extract(doc *types.NormalizedText) Fragment {
	info := e.ExtractEducation(doc)
	return func(rec *types.ResumeRecord) {
		rec.Education = info
	}
}

// ExtractEducation 学位在全文查找；院校和年份限定在教育章节，无教育章节时退回全文
func (e *EducationExtractor) ExtractEducation(doc *types.NormalizedText) types.EducationInfo {
	info := types.EducationInfo{
		Degrees:         []types.DegreeEntry{},
		Institutions:    []string{},
		GraduationYears: []string{},
	}

	seenDegree := make(map[string]struct{})
	for i := range doc.Lines {
		for _, d := range e.degreesInLine(doc.Lines[i], doc.Lower[i]) {
			key := string(d.Degree) + "|" + lowerKey(d.Field)
			if _, ok := seenDegree[key]; ok {
				continue
			}
			seenDegree[key] = struct{}{}
			info.Degrees = append(info.Degrees, d)
		}
	}

	scope, sectioned := educationScope(doc)
	seenInst := make(map[string]struct{})
	seenYear := make(map[string]struct{})
	for _, i := range scope {
		if len(info.Institutions) < maxInstitutions {
			if inst := e.institutionIn(doc.Lines[i], doc.Lower[i], sectioned && !doc.IsHeader(i)); inst != "" {
				info.Institutions = uniqueAppend(info.Institutions, seenInst, inst, lowerKey(inst))
			}
		}
		for _, y := range graduationYear.FindAllString(doc.Lines[i], -1) {
			info.GraduationYears = uniqueAppend(info.GraduationYears, seenYear, y, y)
		}
	}
	sort.Strings(info.GraduationYears)
	return info
}

type degreeMatch struct {
	start, end int
	syn        degreeSynonym
}

// degreesInLine 一行内所有学位提及，按位置排序
func (e *EducationExtractor) degreesInLine(line, lower string) []types.DegreeEntry {
	var matches []degreeMatch
	for _, syn := range e.synonyms {
		for _, pos := range findPhrase(lower, syn.text) {
			m := degreeMatch{start: pos, end: pos + len(syn.text), syn: syn}
			if overlapsAny(matches, m) {
				continue
			}
			if syn.dotless() && !isCapitalized(line[m.start:m.end]) {
				continue
			}
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	var entries []types.DegreeEntry
	for _, m := range matches {
		field, ok := captureField(line[m.end:], m.syn)
		if !ok {
			continue
		}
		entries = append(entries, types.DegreeEntry{
			Degree: m.syn.level,
			Field:  field,
			Type:   types.DegreeTypeTag,
		})
	}
	return entries
}

func overlapsAny(matches []degreeMatch, m degreeMatch) bool {
	for _, o := range matches {
		if m.start < o.end && o.start < m.end {
			return true
		}
	}
	return false
}

// captureField 取学位后的专业名称。ok=false 表示该提及不构成学位
func captureField(rest string, syn degreeSynonym) (string, bool) {
	r := strings.TrimLeft(rest, " ,")
	lower := strings.ToLower(r)

	degreeWord := false
	if strings.HasPrefix(lower, "degree") {
		degreeWord = true
		r = strings.TrimLeft(r[len("degree"):], " ,")
		lower = strings.ToLower(r)
	}

	introduced := false
	for _, intro := range []string{"of ", "in "} {
		if strings.HasPrefix(lower, intro) {
			introduced = true
			r = r[len(intro):]
			lower = lower[len(intro):]
			break
		}
	}
	if introduced {
		for _, q := range fieldQualifiers {
			if strings.HasPrefix(lower, q) {
				r = r[len(q):]
				break
			}
		}
	}

	// 完整单词形式（bachelor、master）必须带 of/in 或 degree 才算学位
	if !introduced && !degreeWord && !syn.abbreviation() {
		return "", false
	}

	field := takeField(r, !introduced)
	if field == "" && syn.needsField() {
		return "", false
	}
	if syn.dotless() && field != "" {
		first := strings.ToLower(strings.Fields(field)[0])
		if _, ok := nonDegreeFollowers[first]; ok {
			return "", false
		}
	}
	return field, true
}

// takeField 从 s 开头截取专业名称。requireCapital 时只接受首字母大写的单词
func takeField(s string, requireCapital bool) string {
	var words []string
	for _, tok := range strings.Fields(s) {
		stop := false
		if cut := strings.IndexAny(tok, ",;|():/"); cut >= 0 {
			tok, stop = tok[:cut], true
		}
		tok = strings.TrimRight(tok, ".")
		if tok == "" || anyDigitRun.MatchString(tok) || !hasLetter(tok) && tok != "&" {
			break
		}
		lt := strings.ToLower(tok)
		if _, ok := fieldStopWords[lt]; ok {
			break
		}
		_, connector := fieldConnectors[lt]
		if requireCapital && !connector && !isCapitalized(tok) {
			break
		}
		words = append(words, tok)
		if stop || len(words) >= maxFieldWords {
			break
		}
	}
	for len(words) > 0 {
		if _, ok := fieldConnectors[strings.ToLower(words[len(words)-1])]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// educationScope 教育章节的行号；没有教育章节时为全文
func educationScope(doc *types.NormalizedText) ([]int, bool) {
	var scope []int
	for _, s := range doc.Sections {
		if s.Label != types.SectionEducation {
			continue
		}
		for i := s.Start; i < s.End; i++ {
			scope = append(scope, i)
		}
	}
	if len(scope) > 0 {
		return scope, true
	}
	for i := range doc.Lines {
		scope = append(scope, i)
	}
	return scope, false
}

// institutionIn 含院校关键词的大写短语；在教育章节内，不含学位词的大写多词行也算
func (e *EducationExtractor) institutionIn(line, lower string, allowCapitalized bool) string {
	for _, chunk := range chunkSeparator.Split(cleanInstitution(line), -1) {
		if name := e.keywordPhrase(chunk); len([]rune(name)) > 5 {
			return name
		}
	}

	if !allowCapitalized || len(e.degreesInLine(line, lower)) > 0 || anyDigitRun.MatchString(line) {
		return ""
	}
	cleaned := cleanInstitution(line)
	if len([]rune(cleaned)) > 5 && capitalizedPhrase(cleaned) {
		return cleaned
	}
	return ""
}

// keywordPhrase 以院校关键词为中心向两侧扩展首字母大写的单词和连接词
func (e *EducationExtractor) keywordPhrase(chunk string) string {
	words := strings.Fields(chunk)
	for k, w := range words {
		if !containsAnyPhrase(strings.ToLower(w), e.institutionKeywords) {
			continue
		}
		if !isCapitalized(w) {
			continue
		}
		lo := k
		for lo > 0 && institutionWord(words[lo-1]) && !strings.HasSuffix(words[lo-1], ",") {
			lo--
		}
		hi := k
		for hi < len(words)-1 && !strings.HasSuffix(words[hi], ",") && institutionWord(words[hi+1]) {
			hi++
		}
		phrase := append([]string{}, words[lo:hi+1]...)
		for len(phrase) > 0 && isConnector(phrase[len(phrase)-1]) {
			phrase = phrase[:len(phrase)-1]
		}
		for len(phrase) > 0 && isConnector(phrase[0]) {
			phrase = phrase[1:]
		}
		return strings.Trim(strings.Join(phrase, " "), " ,.-")
	}
	return ""
}

func institutionWord(w string) bool {
	return isCapitalized(w) || isConnector(w)
}

func isConnector(w string) bool {
	lw := strings.ToLower(strings.Trim(w, ","))
	if lw == "the" || lw == "de" {
		return true
	}
	_, ok := fieldConnectors[lw]
	return ok
}

// cleanInstitution 去掉年份和首尾分隔符
func cleanInstitution(s string) string {
	s = graduationYear.ReplaceAllString(s, "")
	s = collapseSpaces(s)
	return strings.Trim(s, " ,-–—|()")
}

// capitalizedPhrase 至少两个单词，除连接词外均首字母大写
func capitalizedPhrase(s string) bool {
	words := strings.Fields(s)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if !isConnector(w) && !isCapitalized(w) {
			return false
		}
	}
	return true
}
