package types

import "strings"

// 职业级别
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// KnownLevels 合法的职业级别集合
var KnownLevels = map[string]bool{
	LevelBeginner:     true,
	LevelIntermediate: true,
	LevelAdvanced:     true,
}

// Resource 学习资源
type Resource struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// CareerRecord 职业目录中的一条记录，加载后只读
type CareerRecord struct {
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Skills      []string   `json:"skills" yaml:"skills"`
	Keywords    []string   `json:"keywords,omitempty" yaml:"keywords"`
	Domain      string     `json:"domain" yaml:"domain"`
	Level       string     `json:"level" yaml:"level"`
	Resources   []Resource `json:"resources" yaml:"resources"`

	// Embedding 由目录加载时计算，不参与序列化
	Embedding []float64 `json:"-" yaml:"-"`
}

// HasSkill 大小写不敏感地判断记录是否包含某技能
func (r *CareerRecord) HasSkill(skill string) bool {
	for _, s := range r.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// RankedMatch 一次排序的结果项
type RankedMatch struct {
	Career     *CareerRecord
	Similarity float64
}

// EnrichedInsight 在 RankedMatch 基础上派生的洞察信息
type EnrichedInsight struct {
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Skills               []string   `json:"skills"`
	Domain               string     `json:"domain"`
	Level                string     `json:"level"`
	Resources            []Resource `json:"resources"`
	Similarity           float64    `json:"similarity"`
	ConfidenceScore      float64    `json:"confidence_score"`
	SkillMatchPercentage float64    `json:"skill_match_percentage"`
	MatchReasons         []string   `json:"match_reasons"`
	GrowthPotential      string     `json:"growth_potential"`
	SalaryRange          string     `json:"salary_range"`
	JobOutlook           string     `json:"job_outlook"`
}

// RecommendationRequest 推荐请求，UserInput 兼容旧版客户端字段，Text 为空时使用
type RecommendationRequest struct {
	Text          string   `json:"text"`
	UserInput     string   `json:"user_input,omitempty"`
	Domain        *string  `json:"domain,omitempty"`
	Level         *string  `json:"level,omitempty"`
	TopN          *int     `json:"top_n,omitempty"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
}

// RecommendationResponse 推荐响应
type RecommendationResponse struct {
	Results      []EnrichedInsight `json:"results"`
	Count        int               `json:"count"`
	ModelVersion string            `json:"model_version"`
}

// CatalogInfo 目录概要信息
type CatalogInfo struct {
	Size         int    `json:"size"`
	ModelVersion string `json:"model_version"`
	Dimensions   int    `json:"dimensions"`
}

// BookmarkToggleResponse 收藏切换结果
type BookmarkToggleResponse struct {
	SessionID  string `json:"session_id"`
	Title      string `json:"title"`
	Bookmarked bool   `json:"bookmarked"`
}

// BookmarkListResponse 会话收藏列表
type BookmarkListResponse struct {
	SessionID string   `json:"session_id"`
	Titles    []string `json:"titles"`
	Dropped   []string `json:"dropped,omitempty"`
}
