package ranker_test

import (
	"fmt"
	"sync"
	"testing"

	"career-guide-go/internal/ranker"
	"career-guide-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoRecordCatalog() []*types.CareerRecord {
	return []*types.CareerRecord{
		{Title: "A", Domain: "Technology", Level: types.LevelBeginner, Skills: []string{"python"}, Embedding: []float64{1, 0}},
		{Title: "B", Domain: "Finance", Level: types.LevelAdvanced, Skills: []string{"excel"}, Embedding: []float64{0, 1}},
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, ranker.CosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-12)
	assert.InDelta(t, 0.0, ranker.CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, -1.0, ranker.CosineSimilarity([]float64{1, 1}, []float64{-1, -1}), 1e-12)
	assert.InDelta(t, 0.7071067811865475, ranker.CosineSimilarity([]float64{1, 1}, []float64{1, 0}), 1e-12)

	// 零向量与维度不一致
	assert.Equal(t, 0.0, ranker.CosineSimilarity([]float64{0, 0}, []float64{1, 0}))
	assert.Equal(t, 0.0, ranker.CosineSimilarity([]float64{1, 0, 0}, []float64{1, 0}))
	assert.Equal(t, 0.0, ranker.CosineSimilarity(nil, nil))
}

func TestRank_NoFilters(t *testing.T) {
	got := ranker.Rank(twoRecordCatalog(), []float64{1, 0}, ranker.Filters{}, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Career.Title)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-12)
	assert.Equal(t, "B", got[1].Career.Title)
	assert.InDelta(t, 0.0, got[1].Similarity, 1e-12)
}

func TestRank_DomainFilter(t *testing.T) {
	got := ranker.Rank(twoRecordCatalog(), []float64{1, 0}, ranker.Filters{Domain: "Finance"}, 2)

	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Career.Title)
}

func TestRank_FiltersAreConjunctive(t *testing.T) {
	records := twoRecordCatalog()

	got := ranker.Rank(records, []float64{1, 0}, ranker.Filters{Domain: "Finance", Level: types.LevelBeginner}, 5)
	assert.Empty(t, got)

	got = ranker.Rank(records, []float64{1, 0}, ranker.Filters{Domain: "Technology", Level: types.LevelBeginner}, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Career.Title)
}

func TestRank_UnknownDomainYieldsEmpty(t *testing.T) {
	got := ranker.Rank(twoRecordCatalog(), []float64{1, 0}, ranker.Filters{Domain: "Healthcare"}, 3)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRank_TopNTruncatesAndAllowsOversize(t *testing.T) {
	records := twoRecordCatalog()

	got := ranker.Rank(records, []float64{1, 0}, ranker.Filters{}, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Career.Title)

	got = ranker.Rank(records, []float64{1, 0}, ranker.Filters{}, 100)
	assert.Len(t, got, 2)
}

func TestRank_StableTiesKeepCatalogOrder(t *testing.T) {
	var records []*types.CareerRecord
	for i := 0; i < 6; i++ {
		records = append(records, &types.CareerRecord{
			Title:     fmt.Sprintf("R%d", i),
			Embedding: []float64{1, 1},
		})
	}
	records = append(records, &types.CareerRecord{Title: "Best", Embedding: []float64{1, 0.9}})

	got := ranker.Rank(records, []float64{1, 0.9}, ranker.Filters{}, 10)
	require.Len(t, got, 7)
	assert.Equal(t, "Best", got[0].Career.Title)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, fmt.Sprintf("R%d", i-1), got[i].Career.Title)
		assert.LessOrEqual(t, got[i].Similarity, got[i-1].Similarity)
	}
}

func TestRank_DeterministicAndReadOnly(t *testing.T) {
	records := []*types.CareerRecord{
		{Title: "x", Domain: "Technology", Embedding: []float64{0.2, 0.9, 0.1}},
		{Title: "y", Domain: "Design", Embedding: []float64{0.8, 0.1, 0.3}},
		{Title: "z", Domain: "Technology", Embedding: []float64{0.5, 0.5, 0.5}},
	}
	query := []float64{0.6, 0.4, 0.2}

	first := ranker.Rank(records, query, ranker.Filters{}, 3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			again := ranker.Rank(records, query, ranker.Filters{}, 3)
			assert.Equal(t, first, again)
		}()
	}
	wg.Wait()

	assert.Equal(t, "x", records[0].Title)
	assert.Equal(t, []float64{0.2, 0.9, 0.1}, records[0].Embedding)
}
