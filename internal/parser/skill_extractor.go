package parser

import (
	"sort"
	"strings"

	"github.com/Saking-tech/Resume-parser/internal/types"
)

// SkillExtractor 基于词典的技能匹配与计数
type SkillExtractor struct {
	phrases   []string          // 小写短语，按字典序，保证遍历顺序稳定
	category  map[string]string // 短语 -> 分类
	maxSkills int               // 0 表示不截断
}

// NewSkillExtractor dictionary 为短语到分类的映射，构建后不再修改
func NewSkillExtractor(dictionary map[string]string, maxSkills int) *SkillExtractor {
	e := &SkillExtractor{
		category:  make(map[string]string, len(dictionary)),
		maxSkills: maxSkills,
	}
	for phrase, category := range dictionary {
		key := collapseSpaces(strings.ToLower(phrase))
		if key == "" {
			continue
		}
		if _, dup := e.category[key]; !dup {
			e.phrases = append(e.phrases, key)
		}
		e.category[key] = category
	}
	sort.Strings(e.phrases)
	return e
}

func (e *SkillExtractor) Name() string { return ExtractorSkills }

func (e *SkillExtractor) Extract(doc *types.NormalizedText) Fragment {
	info := e.ExtractSkills(doc)
	return func(rec *types.ResumeRecord) {
		rec.Skills = info
	}
}

type skillHit struct {
	entry types.SkillEntry
	first int
}

// ExtractSkills 按出现次数降序，次数相同按首次出现位置升序，再按名称升序
func (e *SkillExtractor) ExtractSkills(doc *types.NormalizedText) types.SkillsInfo {
	text := doc.LowerText()

	var hits []skillHit
	for _, phrase := range e.phrases {
		positions := findPhrase(text, phrase)
		if len(positions) == 0 {
			continue
		}
		category := e.category[phrase]
		if category == "" {
			category = "other"
		}
		hits = append(hits, skillHit{
			entry: types.SkillEntry{
				Skill:    phrase,
				Mentions: len(positions),
				Category: category,
			},
			first: positions[0],
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.entry.Mentions != b.entry.Mentions {
			return a.entry.Mentions > b.entry.Mentions
		}
		if a.first != b.first {
			return a.first < b.first
		}
		return a.entry.Skill < b.entry.Skill
	})

	info := types.SkillsInfo{
		TechnicalSkills:  make([]types.SkillEntry, 0, len(hits)),
		TotalSkillsFound: len(hits),
	}
	for i, h := range hits {
		if e.maxSkills > 0 && i >= e.maxSkills {
			break
		}
		info.TechnicalSkills = append(info.TechnicalSkills, h.entry)
	}
	return info
}
