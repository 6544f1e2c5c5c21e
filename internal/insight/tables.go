package insight

import "career-guide-go/internal/types"

// DefaultSkillVocabulary 技能关键词词表，按子串匹配小写后的用户输入
var DefaultSkillVocabulary = []string{
	"python", "java", "javascript", "typescript", "golang", "sql", "excel",
	"statistics", "machine learning", "data analysis", "data visualization",
	"cloud", "aws", "docker", "kubernetes", "linux", "security", "networking",
	"html", "css", "react", "figma", "photoshop", "illustrator", "user experience",
	"design", "prototyping", "user research", "writing", "communication",
	"leadership", "management", "project management", "agile", "negotiation",
	"marketing", "sales", "seo", "accounting", "financial modeling",
	"budgeting", "risk", "tableau", "research", "problem solving",
}

// DomainTable 按 (domain, level) 组织的静态文案
type DomainTable struct {
	ByDomain map[string]map[string]string
	Default  map[string]string
}

// Lookup 依次查找 domain+level、默认桶+level，兜底 fallback
func (t DomainTable) Lookup(domain, level, fallback string) string {
	if levels, ok := t.ByDomain[domain]; ok {
		if v, ok := levels[level]; ok && v != "" {
			return v
		}
	}
	if v, ok := t.Default[level]; ok && v != "" {
		return v
	}
	return fallback
}

// Tables 洞察所需的全部编辑性数据
type Tables struct {
	Growth      DomainTable
	Salary      DomainTable
	Outlook     map[string]string
	OutlookElse string
}

// DefaultTables 默认文案
var DefaultTables = Tables{
	Growth: DomainTable{
		ByDomain: map[string]map[string]string{
			"Technology": {
				types.LevelBeginner:     "High - rapid skill growth and many entry points",
				types.LevelIntermediate: "Very High - strong demand for specialised engineers",
				types.LevelAdvanced:     "Very High - leadership and architecture tracks",
			},
			"Finance": {
				types.LevelBeginner:     "Moderate - structured progression through analyst roles",
				types.LevelIntermediate: "High - quantitative skills are well rewarded",
				types.LevelAdvanced:     "High - senior advisory and management positions",
			},
			"Design": {
				types.LevelBeginner:     "Moderate - portfolio driven growth",
				types.LevelIntermediate: "High - product design is in demand",
				types.LevelAdvanced:     "High - design leadership and strategy roles",
			},
			"Business": {
				types.LevelBeginner:     "Moderate - broad exposure across functions",
				types.LevelIntermediate: "High - cross-functional ownership",
				types.LevelAdvanced:     "High - executive and consulting paths",
			},
		},
		Default: map[string]string{
			types.LevelBeginner:     "Moderate - steady progression with experience",
			types.LevelIntermediate: "Moderate to High - depends on specialisation",
			types.LevelAdvanced:     "High - senior and leadership opportunities",
		},
	},
	Salary: DomainTable{
		ByDomain: map[string]map[string]string{
			"Technology": {
				types.LevelBeginner:     "$60,000 - $85,000",
				types.LevelIntermediate: "$85,000 - $130,000",
				types.LevelAdvanced:     "$130,000 - $200,000+",
			},
			"Finance": {
				types.LevelBeginner:     "$55,000 - $80,000",
				types.LevelIntermediate: "$80,000 - $120,000",
				types.LevelAdvanced:     "$120,000 - $180,000+",
			},
			"Design": {
				types.LevelBeginner:     "$45,000 - $65,000",
				types.LevelIntermediate: "$65,000 - $100,000",
				types.LevelAdvanced:     "$100,000 - $150,000+",
			},
			"Business": {
				types.LevelBeginner:     "$50,000 - $70,000",
				types.LevelIntermediate: "$70,000 - $110,000",
				types.LevelAdvanced:     "$110,000 - $170,000+",
			},
		},
		Default: map[string]string{
			types.LevelBeginner:     "$40,000 - $60,000",
			types.LevelIntermediate: "$60,000 - $90,000",
			types.LevelAdvanced:     "$90,000 - $140,000+",
		},
	},
	Outlook: map[string]string{
		"Technology": "Excellent - demand keeps outpacing supply",
		"Finance":    "Good - stable demand with growth in fintech",
		"Design":     "Good - digital products keep design teams growing",
		"Business":   "Stable - consistent demand across industries",
	},
	OutlookElse: "Stable - moderate demand",
}

// 兜底文案，保证任何组合都能得到非空字符串
const (
	fallbackGrowth = "Moderate"
	fallbackSalary = "Varies by region and experience"
)
