// Package ranker 计算查询向量与目录向量的余弦相似度，并完成过滤、排序与截断。
package ranker

import (
	"math"
	"sort"

	"career-guide-go/internal/types"
)

// Filters 可选过滤条件，多个条件之间为逻辑与
type Filters struct {
	Domain string
	Level  string
}

// Matches 判断记录是否满足全部已设置的过滤条件
func (f Filters) Matches(r *types.CareerRecord) bool {
	if f.Domain != "" && r.Domain != f.Domain {
		return false
	}
	if f.Level != "" && r.Level != f.Level {
		return false
	}
	return true
}

// CosineSimilarity dot(a,b) / (|a|*|b|)；维度不一致或存在零向量时返回 0
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// 浮点误差可能略微越界
	return math.Max(-1, math.Min(1, sim))
}

// Rank 对 records 按与 query 的相似度降序排序，同分保持目录顺序，截断到 topN。
// records 只读，不会被修改；可并发调用。
func Rank(records []*types.CareerRecord, query []float64, filters Filters, topN int) []types.RankedMatch {
	matches := make([]types.RankedMatch, 0, len(records))
	for _, r := range records {
		if !filters.Matches(r) {
			continue
		}
		matches = append(matches, types.RankedMatch{
			Career:     r,
			Similarity: CosineSimilarity(query, r.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if topN < 1 {
		topN = 1
	}
	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches
}
