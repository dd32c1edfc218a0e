package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Saking-tech/Resume-parser/internal/types"
	"gopkg.in/yaml.v3"
)

// 技能分类
const (
	CategoryLanguage    = "programming_language"
	CategoryFramework   = "framework"
	CategoryDatabase    = "database"
	CategoryCloudDevOps = "cloud_devops"
	CategoryDataScience = "data_science"
	CategoryTool        = "tool"
	CategoryMethodology = "methodology"
	CategoryOther       = "other"
)

// ExperienceThresholds 资历等级下界（含），单位年
type ExperienceThresholds struct {
	Junior float64 `yaml:"junior"`
	Mid    float64 `yaml:"mid"`
	Senior float64 `yaml:"senior"`
	Lead   float64 `yaml:"lead"`
}

// IsZero 未配置
func (t ExperienceThresholds) IsZero() bool {
	return t == ExperienceThresholds{}
}

// Vocabulary 提取管线使用的全部词表。构建一次后只读
type Vocabulary struct {
	// 技能短语 -> 分类
	Skills map[string]string `yaml:"skills"`
	// 学位同义词 -> 层级
	Degrees map[string]types.DegreeLevel `yaml:"degrees"`
	// 章节标签 -> 标题同义词
	SectionHeaders map[types.SectionLabel][]string `yaml:"section_headers"`

	InstitutionKeywords []string `yaml:"institution_keywords"`
	RoleKeywords        []string `yaml:"role_keywords"`      // engineer, developer ...
	SeniorityKeywords   []string `yaml:"seniority_keywords"` // senior, lead ...
	NetworkDomains      []string `yaml:"network_domains"`    // 例如 "linkedin.com/in/"
	LocationLabels      []string `yaml:"location_labels"`

	ExperienceThresholds ExperienceThresholds `yaml:"experience_thresholds"`
}

// LoadVocabulary 从独立的 YAML 文件加载词表，未出现的部分保持为空
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("读取词表文件失败: %w", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("解析词表文件失败: %w", err)
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("词表文件 '%s' 无效: %w", path, err)
	}
	return v, nil
}

// Validate 检查学位层级和阈值。空的部分视为未配置
func (v Vocabulary) Validate() error {
	skillKeys := make(map[string]string, len(v.Skills))
	for phrase := range v.Skills {
		key := vocabularyKey(phrase)
		if key == "" {
			return fmt.Errorf("技能短语不能为空")
		}
		if prev, ok := skillKeys[key]; ok {
			return fmt.Errorf("技能短语 '%s' 与 '%s' 忽略大小写和空白后重复", collisionPair(prev, phrase)...)
		}
		skillKeys[key] = phrase
	}
	degreeKeys := make(map[string]string, len(v.Degrees))
	for syn, level := range v.Degrees {
		key := vocabularyKey(syn)
		if key == "" {
			return fmt.Errorf("学位同义词不能为空")
		}
		if prev, ok := degreeKeys[key]; ok {
			return fmt.Errorf("学位同义词 '%s' 与 '%s' 忽略大小写和空白后重复", collisionPair(prev, syn)...)
		}
		degreeKeys[key] = syn
		switch level {
		case types.DegreeAssociate, types.DegreeBachelor, types.DegreeMaster, types.DegreeDoctorate:
		default:
			return fmt.Errorf("学位 '%s' 的层级 '%s' 不在允许范围内", syn, level)
		}
	}
	t := v.ExperienceThresholds
	if !t.IsZero() {
		if t.Junior <= 0 || t.Mid <= t.Junior || t.Senior <= t.Mid || t.Lead <= t.Senior {
			return fmt.Errorf("资历阈值必须为正且严格递增: %+v", t)
		}
	}
	return nil
}

// vocabularyKey 与提取器建索引时的规范化一致: 小写并合并空白
func vocabularyKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// collisionPair 按字典序排列，保证报错信息不随 map 遍历顺序变化
func collisionPair(a, b string) []any {
	if b < a {
		a, b = b, a
	}
	return []any{a, b}
}

// Merge 用 other 中非空的部分整体替换当前部分
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	if len(other.Skills) > 0 {
		v.Skills = other.Skills
	}
	if len(other.Degrees) > 0 {
		v.Degrees = other.Degrees
	}
	if len(other.SectionHeaders) > 0 {
		v.SectionHeaders = other.SectionHeaders
	}
	if len(other.InstitutionKeywords) > 0 {
		v.InstitutionKeywords = other.InstitutionKeywords
	}
	if len(other.RoleKeywords) > 0 {
		v.RoleKeywords = other.RoleKeywords
	}
	if len(other.SeniorityKeywords) > 0 {
		v.SeniorityKeywords = other.SeniorityKeywords
	}
	if len(other.NetworkDomains) > 0 {
		v.NetworkDomains = other.NetworkDomains
	}
	if len(other.LocationLabels) > 0 {
		v.LocationLabels = other.LocationLabels
	}
	if !other.ExperienceThresholds.IsZero() {
		v.ExperienceThresholds = other.ExperienceThresholds
	}
	return v
}

// WithDefaults 空的部分用默认词表补齐
func (v Vocabulary) WithDefaults() Vocabulary {
	return DefaultVocabulary().Merge(v)
}

// DefaultVocabulary 内置默认词表，每次调用返回新副本
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Skills:              defaultSkills(),
		Degrees:             defaultDegrees(),
		SectionHeaders:      defaultSectionHeaders(),
		InstitutionKeywords: []string{"university", "college", "institute", "school", "academy", "polytechnic"},
		RoleKeywords: []string{
			"engineer", "developer", "manager", "analyst", "designer", "specialist", "consultant",
			"architect", "administrator", "programmer", "scientist", "director", "intern",
		},
		SeniorityKeywords: []string{
			"intern", "junior", "senior", "lead", "principal", "staff", "chief", "head", "associate",
		},
		NetworkDomains: []string{"linkedin.com/in/"},
		LocationLabels: []string{"location", "address", "based in"},
		ExperienceThresholds: ExperienceThresholds{
			Junior: 1,
			Mid:    3,
			Senior: 6,
			Lead:   10,
		},
	}
}

func defaultSkills() map[string]string {
	skills := make(map[string]string)
	add := func(category string, phrases ...string) {
		for _, p := range phrases {
			skills[p] = category
		}
	}

	add(CategoryLanguage,
		"python", "java", "javascript", "typescript", "c++", "c#", "php", "ruby", "go", "golang", "rust",
		"swift", "kotlin", "scala", "matlab", "sql", "html", "css", "sass", "bash", "powershell")
	add(CategoryFramework,
		"react", "angular", "vue", "node.js", "express.js", "django", "flask", "spring", "laravel",
		"rails", "asp.net", ".net", "fastapi", "nextjs", "nuxt", "svelte", "jquery", "graphql", "rest api")
	add(CategoryDatabase,
		"mysql", "postgresql", "mongodb", "redis", "sqlite", "oracle", "sql server", "elasticsearch",
		"firebase", "dynamodb", "cassandra", "neo4j")
	add(CategoryCloudDevOps,
		"aws", "azure", "gcp", "google cloud", "docker", "kubernetes", "jenkins", "gitlab ci",
		"github actions", "terraform", "ansible", "vagrant", "chef", "puppet", "microservices")
	add(CategoryDataScience,
		"machine learning", "deep learning", "artificial intelligence", "data science", "pandas",
		"numpy", "scikit-learn", "tensorflow", "pytorch", "keras", "opencv", "nltk", "spacy")
	add(CategoryTool,
		"git", "linux", "unix", "windows", "macos", "jira", "confluence", "slack")
	add(CategoryMethodology, "agile", "scrum", "kanban")

	return skills
}

func defaultDegrees() map[string]types.DegreeLevel {
	return map[string]types.DegreeLevel{
		"associate":            types.DegreeAssociate,
		"associate's":          types.DegreeAssociate,
		"associates":           types.DegreeAssociate,
		"a.s.":                 types.DegreeAssociate,
		"a.a.":                 types.DegreeAssociate,
		"a.a.s.":               types.DegreeAssociate,
		"aas":                  types.DegreeAssociate,
		"bachelor":             types.DegreeBachelor,
		"bachelor's":           types.DegreeBachelor,
		"bachelors":            types.DegreeBachelor,
		"b.s.":                 types.DegreeBachelor,
		"b.s":                  types.DegreeBachelor,
		"bs":                   types.DegreeBachelor,
		"b.sc.":                types.DegreeBachelor,
		"b.sc":                 types.DegreeBachelor,
		"bsc":                  types.DegreeBachelor,
		"b.a.":                 types.DegreeBachelor,
		"ba":                   types.DegreeBachelor,
		"b.tech":               types.DegreeBachelor,
		"b.e.":                 types.DegreeBachelor,
		"b.eng":                types.DegreeBachelor,
		"bca":                  types.DegreeBachelor,
		"master":               types.DegreeMaster,
		"master's":             types.DegreeMaster,
		"masters":              types.DegreeMaster,
		"m.s.":                 types.DegreeMaster,
		"m.s":                  types.DegreeMaster,
		"ms":                   types.DegreeMaster,
		"m.sc.":                types.DegreeMaster,
		"m.sc":                 types.DegreeMaster,
		"msc":                  types.DegreeMaster,
		"m.a.":                 types.DegreeMaster,
		"m.tech":               types.DegreeMaster,
		"m.eng":                types.DegreeMaster,
		"mba":                  types.DegreeMaster,
		"mca":                  types.DegreeMaster,
		"phd":                  types.DegreeDoctorate,
		"ph.d.":                types.DegreeDoctorate,
		"ph.d":                 types.DegreeDoctorate,
		"doctorate":            types.DegreeDoctorate,
		"doctor of philosophy": types.DegreeDoctorate,
	}
}

func defaultSectionHeaders() map[types.SectionLabel][]string {
	return map[types.SectionLabel][]string{
		types.SectionExperience: {
			"experience", "work experience", "professional experience", "employment history",
			"work history", "employment", "career history", "relevant experience",
		},
		types.SectionEducation: {
			"education", "academic background", "education and training", "academic qualifications",
		},
		types.SectionSkills: {
			"skills", "technical skills", "core competencies", "competencies", "key skills",
			"technologies", "tech stack",
		},
		types.SectionSummary: {
			"summary", "professional summary", "profile", "objective", "career objective",
			"about me", "about", "executive summary",
		},
		types.SectionProjects: {"projects", "personal projects", "key projects"},
		types.SectionCertifications: {
			"certifications", "certificates", "licenses and certifications", "licenses & certifications",
		},
		types.SectionContact: {"contact", "contact information", "contact details"},
		types.SectionAwards:  {"awards", "honors", "achievements", "honors and awards", "honors & awards"},
	}
}
