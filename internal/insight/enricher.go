// Package insight 从排序结果和用户原始输入派生辅助信号：技能重合度、
// 匹配理由、置信度以及成长/薪资/前景等静态文案。全部为纯函数，不做 I/O。
package insight

import (
	"fmt"
	"math"
	"strings"

	"career-guide-go/internal/types"
)

const (
	// MaxMatchReasons 匹配理由最多保留条数
	MaxMatchReasons = 3
	// maxCitedSkills 理由中最多列出的技能数
	maxCitedSkills = 3

	similarityWeight = 0.7
	skillWeight      = 0.3
)

// Enricher 洞察生成器
type Enricher struct {
	vocabulary []string
	tables     Tables
}

// Option Enricher 配置选项
type Option func(*Enricher)

// WithVocabulary 替换技能词表
func WithVocabulary(vocab []string) Option {
	return func(e *Enricher) {
		e.vocabulary = vocab
	}
}

// WithTables 替换成长/薪资/前景文案表
func WithTables(t Tables) Option {
	return func(e *Enricher) {
		e.tables = t
	}
}

// NewEnricher 创建洞察生成器，默认使用内置词表与文案表
func NewEnricher(opts ...Option) *Enricher {
	e := &Enricher{
		vocabulary: DefaultSkillVocabulary,
		tables:     DefaultTables,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractSkillTokens 返回词表中以子串形式出现在文本里的技能，按词表顺序
func (e *Enricher) ExtractSkillTokens(text string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0)
	for _, skill := range e.vocabulary {
		if strings.Contains(lower, skill) {
			found = append(found, skill)
		}
	}
	return found
}

// SkillMatchPercentage 用户技能命中职业技能的百分比，职业无技能时为 0
func SkillMatchPercentage(record *types.CareerRecord, extracted []string) float64 {
	if len(record.Skills) == 0 {
		return 0
	}
	matched := 0
	for _, skill := range extracted {
		if record.HasSkill(skill) {
			matched++
		}
	}
	pct := float64(matched) / float64(len(record.Skills)) * 100
	return math.Min(pct, 100)
}

// ConfidenceScore similarity*0.7 + pct/100*0.3，保留三位小数
func ConfidenceScore(similarity, skillMatchPercentage float64) float64 {
	return round3(similarity*similarityWeight + (skillMatchPercentage/100)*skillWeight)
}

// MatchReasons 按优先级生成匹配理由，至少一条，至多三条
func (e *Enricher) MatchReasons(record *types.CareerRecord, text string, similarity float64) []string {
	lower := strings.ToLower(text)
	reasons := make([]string, 0, MaxMatchReasons+1)

	if record.Domain != "" && strings.Contains(lower, strings.ToLower(record.Domain)) {
		reasons = append(reasons, fmt.Sprintf("Aligns with %s domain", record.Domain))
	}

	if cited := citedSkills(record, e.ExtractSkillTokens(text)); len(cited) > 0 {
		reasons = append(reasons, "Matches your skills: "+strings.Join(cited, ", "))
	}

	switch {
	case strings.Contains(lower, "beginner") && record.Level == types.LevelBeginner:
		reasons = append(reasons, "Appropriate for beginners")
	case strings.Contains(lower, "advanced") && record.Level == types.LevelAdvanced:
		reasons = append(reasons, "Suited to advanced experience")
	}

	reasons = append(reasons, similarityBand(similarity))

	if len(reasons) > MaxMatchReasons {
		reasons = reasons[:MaxMatchReasons]
	}
	return reasons
}

// GrowthPotential 成长潜力
func (e *Enricher) GrowthPotential(domain, level string) string {
	return e.tables.Growth.Lookup(domain, level, fallbackGrowth)
}

// SalaryRange 薪资区间
func (e *Enricher) SalaryRange(domain, level string) string {
	return e.tables.Salary.Lookup(domain, level, fallbackSalary)
}

// JobOutlook 就业前景
func (e *Enricher) JobOutlook(domain string) string {
	if v, ok := e.tables.Outlook[domain]; ok && v != "" {
		return v
	}
	if e.tables.OutlookElse != "" {
		return e.tables.OutlookElse
	}
	return DefaultTables.OutlookElse
}

// Enrich 将排序结果与用户输入组合成完整洞察
func (e *Enricher) Enrich(match types.RankedMatch, text string) types.EnrichedInsight {
	record := match.Career
	pct := SkillMatchPercentage(record, e.ExtractSkillTokens(text))

	return types.EnrichedInsight{
		Title:                record.Title,
		Description:          record.Description,
		Skills:               record.Skills,
		Domain:               record.Domain,
		Level:                record.Level,
		Resources:            record.Resources,
		Similarity:           match.Similarity,
		ConfidenceScore:      ConfidenceScore(match.Similarity, pct),
		SkillMatchPercentage: round3(pct),
		MatchReasons:         e.MatchReasons(record, text, match.Similarity),
		GrowthPotential:      e.GrowthPotential(record.Domain, record.Level),
		SalaryRange:          e.SalaryRange(record.Domain, record.Level),
		JobOutlook:           e.JobOutlook(record.Domain),
	}
}

// citedSkills 按职业技能顺序列出与用户技能的交集
func citedSkills(record *types.CareerRecord, extracted []string) []string {
	var cited []string
	for _, skill := range record.Skills {
		for _, token := range extracted {
			if strings.EqualFold(skill, token) {
				cited = append(cited, skill)
				break
			}
		}
		if len(cited) == maxCitedSkills {
			break
		}
	}
	return cited
}

func similarityBand(similarity float64) string {
	switch {
	case similarity > 0.8:
		return "Excellent match"
	case similarity > 0.6:
		return "Strong alignment"
	default:
		return "Good potential match"
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
