package insight_test

import (
	"testing"

	"career-guide-go/internal/insight"
	"career-guide-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataScientist() *types.CareerRecord {
	return &types.CareerRecord{
		Title:       "Data Scientist",
		Description: "Build models from data",
		Skills:      []string{"Python", "SQL", "Statistics", "Machine Learning"},
		Domain:      "Technology",
		Level:       types.LevelAdvanced,
	}
}

func TestExtractSkillTokens(t *testing.T) {
	e := insight.NewEnricher()

	tokens := e.ExtractSkillTokens("I love PYTHON, sql and Leadership of small teams")
	assert.Contains(t, tokens, "python")
	assert.Contains(t, tokens, "sql")
	assert.Contains(t, tokens, "leadership")
	assert.NotContains(t, tokens, "excel")

	assert.Empty(t, e.ExtractSkillTokens("nothing relevant here"))
}

func TestExtractSkillTokens_CustomVocabulary(t *testing.T) {
	e := insight.NewEnricher(insight.WithVocabulary([]string{"cobol"}))

	assert.Equal(t, []string{"cobol"}, e.ExtractSkillTokens("legacy COBOL systems and python"))
}

func TestSkillMatchPercentage(t *testing.T) {
	record := dataScientist()

	tests := []struct {
		name      string
		extracted []string
		want      float64
	}{
		{"无命中", []string{"excel"}, 0},
		{"部分命中", []string{"python", "sql"}, 50},
		{"全部命中", []string{"python", "sql", "statistics", "machine learning"}, 100},
		{"大小写不敏感", []string{"PYTHON"}, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := insight.SkillMatchPercentage(record, tt.extracted)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}

	empty := &types.CareerRecord{Title: "No Skills"}
	assert.Equal(t, 0.0, insight.SkillMatchPercentage(empty, []string{"python"}))
}

func TestConfidenceScore(t *testing.T) {
	assert.Equal(t, 1.0, insight.ConfidenceScore(1.0, 100))
	assert.Equal(t, 0.7, insight.ConfidenceScore(1.0, 0))
	assert.Equal(t, 0.0, insight.ConfidenceScore(0, 0))
	// 0.7*0.5 + 0.3*0.25 = 0.425
	assert.Equal(t, 0.425, insight.ConfidenceScore(0.5, 25))
	// 三位小数舍入
	assert.Equal(t, 0.467, insight.ConfidenceScore(0.6666, 0))
	assert.Equal(t, -0.7, insight.ConfidenceScore(-1, 0))
}

func TestMatchReasons_PriorityAndCap(t *testing.T) {
	e := insight.NewEnricher()
	record := dataScientist()

	reasons := e.MatchReasons(record, "advanced technology work with python and sql", 0.9)
	require.Len(t, reasons, insight.MaxMatchReasons)
	assert.Equal(t, "Aligns with Technology domain", reasons[0])
	assert.Equal(t, "Matches your skills: Python, SQL", reasons[1])
	assert.Equal(t, "Suited to advanced experience", reasons[2])
}

func TestMatchReasons_SimilarityBands(t *testing.T) {
	e := insight.NewEnricher()
	record := dataScientist()

	tests := []struct {
		similarity float64
		want       string
	}{
		{0.95, "Excellent match"},
		{0.81, "Excellent match"},
		{0.8, "Strong alignment"},
		{0.61, "Strong alignment"},
		{0.6, "Good potential match"},
		{-0.2, "Good potential match"},
	}
	for _, tt := range tests {
		reasons := e.MatchReasons(record, "something unrelated", tt.similarity)
		require.Len(t, reasons, 1)
		assert.Equal(t, tt.want, reasons[0], "similarity=%v", tt.similarity)
	}
}

func TestMatchReasons_CitesAtMostThreeSkills(t *testing.T) {
	e := insight.NewEnricher()
	record := dataScientist()

	reasons := e.MatchReasons(record, "python sql statistics machine learning", 0.5)
	require.Len(t, reasons, 2)
	assert.Equal(t, "Matches your skills: Python, SQL, Statistics", reasons[0])
	assert.Equal(t, "Good potential match", reasons[1])
}

func TestMatchReasons_BeginnerLevel(t *testing.T) {
	e := insight.NewEnricher()
	record := &types.CareerRecord{Title: "Junior Designer", Domain: "Design", Level: types.LevelBeginner}

	reasons := e.MatchReasons(record, "I am a beginner", 0.7)
	assert.Equal(t, []string{"Appropriate for beginners", "Strong alignment"}, reasons)
}

func TestMatchReasons_AdvancedLevel(t *testing.T) {
	e := insight.NewEnricher()
	record := &types.CareerRecord{Title: "Design Director", Domain: "Design", Level: types.LevelAdvanced}

	reasons := e.MatchReasons(record, "Looking for an ADVANCED role", 0.9)
	assert.Equal(t, []string{"Suited to advanced experience", "Excellent match"}, reasons)

	// 级别不一致时不给出级别理由
	record.Level = types.LevelBeginner
	reasons = e.MatchReasons(record, "Looking for an advanced role", 0.5)
	assert.Equal(t, []string{"Good potential match"}, reasons)
}

func TestLookupTables_NeverEmpty(t *testing.T) {
	e := insight.NewEnricher()
	domains := []string{"Technology", "Finance", "Design", "Business", "Healthcare", ""}
	levels := []string{types.LevelBeginner, types.LevelIntermediate, types.LevelAdvanced, "Expert"}

	for _, d := range domains {
		assert.NotEmpty(t, e.JobOutlook(d), "outlook domain=%q", d)
		for _, l := range levels {
			assert.NotEmpty(t, e.GrowthPotential(d, l), "growth domain=%q level=%q", d, l)
			assert.NotEmpty(t, e.SalaryRange(d, l), "salary domain=%q level=%q", d, l)
		}
	}

	assert.Equal(t, "$130,000 - $200,000+", e.SalaryRange("Technology", types.LevelAdvanced))
	assert.Equal(t, insight.DefaultTables.OutlookElse, e.JobOutlook("Healthcare"))
}

func TestEnrich(t *testing.T) {
	e := insight.NewEnricher()
	record := dataScientist()

	got := e.Enrich(types.RankedMatch{Career: record, Similarity: 0.9}, "python and sql")

	assert.Equal(t, "Data Scientist", got.Title)
	assert.Equal(t, 0.9, got.Similarity)
	assert.Equal(t, 50.0, got.SkillMatchPercentage)
	assert.Equal(t, 0.78, got.ConfidenceScore)
	assert.NotEmpty(t, got.MatchReasons)
	assert.LessOrEqual(t, len(got.MatchReasons), insight.MaxMatchReasons)
	assert.NotEmpty(t, got.GrowthPotential)
	assert.NotEmpty(t, got.SalaryRange)
	assert.NotEmpty(t, got.JobOutlook)
}
