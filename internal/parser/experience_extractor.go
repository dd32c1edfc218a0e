package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/types"
)

// maxTitles 职位名称和公司名最多保留数
const maxTitles = 5

const monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

var (
	// 起止日期: "Mon YYYY" | "MM/YYYY" | "YYYY"，结束还可以是 present/current
	// 分组: 1 起始月名 2 年, 3 起始月 4 年, 5 起始年; 6 结束月名 7 年, 8 结束月 9 年, 10 结束年, 11 至今
	dateRangePattern = regexp.MustCompile(
		`\b(?:(` + monthNames + `)\.?,?\s*((?:19|20)\d{2})|(0?[1-9]|1[0-2])/((?:19|20)\d{2})|((?:19|20)\d{2}))` +
			`\s*(?:-|–|—|to|until|till)\s*` +
			`(?:(` + monthNames + `)\.?,?\s*((?:19|20)\d{2})|(0?[1-9]|1[0-2])/((?:19|20)\d{2})|((?:19|20)\d{2})|(present|current|now|today|date))\b`)

	// "5+ years of experience"
	yearsClaimPattern = regexp.MustCompile(`\b(\d{1,2})\+?\s*(?:years?|yrs?)\.?\s+of\s+(?:[a-z-]+\s+)?experience\b`)

	companyAtPattern     = regexp.MustCompile(`\bat\s+([A-Z][\w&.'-]*(?:\s+(?:[A-Z][\w&.'-]*|&|of|and))*)`)
	companySuffixPattern = regexp.MustCompile(`\b((?:[A-Z][\w&.'-]*\s+){1,4}(?:Inc|LLC|Ltd|Corp|Corporation|GmbH|Co)\b\.?)`)
)

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// Thresholds 资历等级下界（含）
type Thresholds struct {
	Junior float64
	Mid    float64
	Senior float64
	Lead   float64
}

// DefaultThresholds junior 1 年，mid 3 年，senior 6 年，lead 10 年
var DefaultThresholds = Thresholds{Junior: 1, Mid: 3, Senior: 6, Lead: 10}

// Level 年限到资历等级的阶梯函数
func (t Thresholds) Level(years float64) types.ExperienceLevel {
	switch {
	case years >= t.Lead:
		return types.LevelLead
	case years >= t.Senior:
		return types.LevelSenior
	case years >= t.Mid:
		return types.LevelMid
	case years >= t.Junior:
		return types.LevelJunior
	default:
		return types.LevelEntry
	}
}

// ExperienceOption ExperienceExtractor 的配置选项
type ExperienceOption func(*ExperienceExtractor)

// WithClock 注入 "至今" 使用的当前时间
func WithClock(now func() time.Time) ExperienceOption {
	return func(e *ExperienceExtractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRoleKeywords 职位名称识别用的角色词和资历词
func WithRoleKeywords(roles, seniority []string) ExperienceOption {
	return func(e *ExperienceExtractor) {
		e.roles = toLowerSet(roles)
		e.seniority = toLowerSet(seniority)
	}
}

// ExperienceExtractor 工作年限、资历等级、职位与公司
type ExperienceExtractor struct {
	thresholds Thresholds
	now        func() time.Time
	roles      map[string]struct{}
	seniority  map[string]struct{}
}

// NewExperienceExtractor thresholds 需为正且严格递增，由配置层校验
func NewExperienceExtractor(thresholds Thresholds, opts ...ExperienceOption) *ExperienceExtractor {
	e := &ExperienceExtractor{
		thresholds: thresholds,
		now:        time.Now,
		roles:      map[string]struct{}{},
		seniority:  map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ExperienceExtractor) Name() string { return ExtractorExperience }

func (e *ExperienceExtractor) Extract(doc *types.NormalizedText) Fragment {
	summary := e.ExtractExperience(doc)
	return func(rec *types.ResumeRecord) {
		rec.Experience = summary
	}
}

// ExtractExperience 优先使用经历章节，没有时扫描全文。重叠区间不去重，直接累加
func (e *ExperienceExtractor) ExtractExperience(doc *types.NormalizedText) types.ExperienceSummary {
	scope := experienceScope(doc)
	now := e.now()
	nowIdx := now.Year()*12 + int(now.Month()) - 1

	months := 0
	found := false
	for _, i := range scope {
		for _, m := range dateRangePattern.FindAllStringSubmatch(doc.Lower[i], -1) {
			found = true
			months += rangeMonths(m, nowIdx)
		}
	}

	years := float64(months) / 12
	if !found {
		years = float64(claimedYears(doc.LowerText()))
	}
	years = math.Round(years*100) / 100

	return types.ExperienceSummary{
		TotalYearsExperience: years,
		ExperienceLevel:      e.thresholds.Level(years),
		JobTitles:            e.jobTitles(doc, scope),
		Companies:            companies(doc, scope),
	}
}

// rangeMonths 区间月数。只有年份的起点取当年一月，只有年份的终点取终止年一月（不含），
// 带月份的终点和 present 都含当月。终点晚于当前月时截到当前月；倒序或起点在未来的区间记 0
func rangeMonths(m []string, nowIdx int) int {
	start, ok := monthIdx(m[1], m[2], m[3], m[4], m[5], false)
	if !ok || start > nowIdx {
		return 0
	}
	end := nowIdx + 1
	if m[11] == "" {
		named, ok := monthIdx(m[6], m[7], m[8], m[9], m[10], true)
		if !ok {
			return 0
		}
		end = min(named, end)
	}
	if end <= start {
		return 0
	}
	return end - start
}

// monthIdx 转为 year*12+month-1。end 为真且带月份时返回下个月，即不含上界的下标
func monthIdx(monName, monYear, mm, mmYear, yearOnly string, end bool) (int, bool) {
	switch {
	case monName != "":
		y, err := strconv.Atoi(monYear)
		mon, ok := monthIndex[monName[:3]]
		if err != nil || !ok {
			return 0, false
		}
		idx := y*12 + mon - 1
		if end {
			idx++
		}
		return idx, true
	case mm != "":
		y, err1 := strconv.Atoi(mmYear)
		mon, err2 := strconv.Atoi(mm)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		idx := y*12 + mon - 1
		if end {
			idx++
		}
		return idx, true
	case yearOnly != "":
		y, err := strconv.Atoi(yearOnly)
		if err != nil {
			return 0, false
		}
		return y * 12, true
	}
	return 0, false
}

// claimedYears 文中自述的最大工作年限
func claimedYears(lower string) int {
	best := 0
	for _, m := range yearsClaimPattern.FindAllStringSubmatch(lower, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > best {
			best = n
		}
	}
	return best
}

func experienceScope(doc *types.NormalizedText) []int {
	var scope []int
	for _, s := range doc.Sections {
		if s.Label != types.SectionExperience {
			continue
		}
		for i := s.Start; i < s.End; i++ {
			scope = append(scope, i)
		}
	}
	if len(scope) > 0 {
		return scope
	}
	for i := range doc.Lines {
		scope = append(scope, i)
	}
	return scope
}

// jobTitles 以角色词结尾、前面最多三个首字母大写单词或资历词的短语
func (e *ExperienceExtractor) jobTitles(doc *types.NormalizedText, scope []int) []string {
	titles := []string{}
	if len(e.roles) == 0 {
		return titles
	}
	seen := make(map[string]struct{})
	for _, i := range scope {
		words := strings.Fields(doc.Lines[i])
		for j, w := range words {
			role := strings.ToLower(strings.Trim(w, ",.;:|()"))
			if _, ok := e.roles[role]; !ok {
				continue
			}
			k := j - 1
			for ; k >= 0 && k >= j-3; k-- {
				prev := words[k]
				if strings.ContainsAny(prev, ",;:|()") || anyDigitRun.MatchString(prev) {
					break
				}
				_, senior := e.seniority[strings.ToLower(prev)]
				if !senior && !isCapitalized(prev) {
					break
				}
			}
			parts := append([]string{}, words[k+1:j]...)
			parts = append(parts, strings.Trim(w, ",.;:|()"))
			if len(parts) == 1 && !isCapitalized(parts[0]) {
				continue
			}
			title := strings.Join(parts, " ")
			titles = uniqueAppend(titles, seen, title, lowerKey(title))
			if len(titles) >= maxTitles {
				return titles
			}
		}
	}
	return titles
}

// companies "at Acme Corp" 或带公司后缀的大写短语
func companies(doc *types.NormalizedText, scope []int) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, i := range scope {
		line := doc.Lines[i]
		var found []string
		for _, m := range companyAtPattern.FindAllStringSubmatch(line, -1) {
			found = append(found, m[1])
		}
		for _, m := range companySuffixPattern.FindAllStringSubmatch(line, -1) {
			found = append(found, m[1])
		}
		for _, c := range found {
			c = trimCompany(c)
			if c == "" {
				continue
			}
			out = uniqueAppend(out, seen, c, lowerKey(c))
			if len(out) >= maxTitles {
				return out
			}
		}
	}
	return out
}

func trimCompany(s string) string {
	words := strings.Fields(strings.TrimRight(s, " ,;:-"))
	for len(words) > 0 {
		last := strings.ToLower(words[len(words)-1])
		if last != "&" && last != "of" && last != "and" {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func toLowerSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}
