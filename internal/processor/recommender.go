package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"career-guide-go/internal/catalog"
	"career-guide-go/internal/constants"
	"career-guide-go/internal/insight"
	"career-guide-go/internal/ranker"
	"career-guide-go/internal/tracing"
	"career-guide-go/internal/types"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FilterAll 与空字符串等价，表示不过滤
const FilterAll = "All"

// Recommender 推荐服务：校验、查询向量化、排序、生成洞察
type Recommender struct {
	catalog  *catalog.Catalog
	queries  *QueryEmbedder
	enricher *insight.Enricher

	defaultTopN int
	maxTopN     int
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// RecommenderOption 推荐服务配置选项
type RecommenderOption func(*Recommender)

// WithTopNBounds 设置默认与最大返回条数，非正值保留默认
func WithTopNBounds(defaultTopN, maxTopN int) RecommenderOption {
	return func(r *Recommender) {
		if defaultTopN > 0 {
			r.defaultTopN = defaultTopN
		}
		if maxTopN > 0 {
			r.maxTopN = maxTopN
		}
	}
}

func WithRecommenderLogger(l zerolog.Logger) RecommenderOption {
	return func(r *Recommender) {
		r.logger = l
	}
}

// WithEnricher 替换洞察生成器
func WithEnricher(e *insight.Enricher) RecommenderOption {
	return func(r *Recommender) {
		r.enricher = e
	}
}

func NewRecommender(cat *catalog.Catalog, queries *QueryEmbedder, opts ...RecommenderOption) *Recommender {
	r := &Recommender{
		catalog:     cat,
		queries:     queries,
		enricher:    insight.NewEnricher(),
		defaultTopN: constants.DefaultTopN,
		maxTopN:     constants.DefaultMaxTopN,
		logger:      zerolog.Nop(),
		tracer:      otel.Tracer("career-guide-go/processor"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog 推荐所使用的目录
func (r *Recommender) Catalog() *catalog.Catalog {
	return r.catalog
}

// validatedRequest 校验后的请求
type validatedRequest struct {
	text          string
	filters       ranker.Filters
	topN          int
	minConfidence *float64
}

// validate 在任何向量化调用之前拒绝非法请求
func (r *Recommender) validate(req types.RecommendationRequest) (*validatedRequest, error) {
	const op = "Recommender.Validate"

	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = strings.TrimSpace(req.UserInput)
	}
	if text == "" {
		return nil, types.NewValidationError(op, "text 不能为空")
	}

	v := &validatedRequest{text: text, topN: r.defaultTopN, minConfidence: req.MinConfidence}
	if req.TopN != nil {
		if *req.TopN < 1 {
			return nil, types.NewValidationError(op, fmt.Sprintf("top_n 必须 >= 1，实际 %d", *req.TopN))
		}
		if *req.TopN > r.maxTopN {
			return nil, types.NewValidationError(op, fmt.Sprintf("top_n 不能超过 %d，实际 %d", r.maxTopN, *req.TopN))
		}
		v.topN = *req.TopN
	}

	// level 是固定枚举，非法值直接拒绝；domain 为开放集合，目录中不存在时结果为空
	v.filters.Domain = filterValue(req.Domain)
	if l := filterValue(req.Level); l != "" {
		if !types.KnownLevels[l] {
			return nil, types.NewValidationError(op, fmt.Sprintf("未知的 level: %q", l))
		}
		v.filters.Level = l
	}

	// NaN 与任何数比较都为 false，写成取反以一并拒绝
	if mc := req.MinConfidence; mc != nil && !(*mc >= 0 && *mc <= 1) {
		return nil, types.NewValidationError(op, fmt.Sprintf("min_confidence 必须在 [0,1] 内，实际 %v", *mc))
	}
	return v, nil
}

func filterValue(p *string) string {
	if p == nil {
		return ""
	}
	v := strings.TrimSpace(*p)
	if strings.EqualFold(v, FilterAll) {
		return ""
	}
	return v
}

// Recommend 对一次推荐请求返回按相似度降序的洞察列表
func (r *Recommender) Recommend(ctx context.Context, req types.RecommendationRequest) (*types.RecommendationResponse, error) {
	ctx, span := r.tracer.Start(ctx, "Recommender.Recommend")
	defer span.End()
	start := time.Now()

	v, err := r.validate(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("query.text", tracing.SafeQueryText(v.text)),
		attribute.String("filter.domain", v.filters.Domain),
		attribute.String("filter.level", v.filters.Level),
		attribute.Int("top_n", v.topN),
	)

	query, err := r.queries.Embed(ctx, v.text, r.catalog)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		r.logger.Error().Err(err).Msg("查询向量化失败")
		return nil, err
	}

	matches := ranker.Rank(r.catalog.Records(), query, v.filters, v.topN)
	results := make([]types.EnrichedInsight, 0, len(matches))
	for _, m := range matches {
		in := r.enricher.Enrich(m, v.text)
		if v.minConfidence != nil && in.ConfidenceScore < *v.minConfidence {
			continue
		}
		results = append(results, in)
	}

	span.SetAttributes(attribute.Int("result.count", len(results)))
	span.SetStatus(codes.Ok, "")

	r.logger.Info().
		Str("domain", v.filters.Domain).
		Str("level", v.filters.Level).
		Int("top_n", v.topN).
		Int("matched", len(matches)).
		Int("returned", len(results)).
		Dur("latency", time.Since(start)).
		Msg("推荐完成")

	return &types.RecommendationResponse{
		Results:      results,
		Count:        len(results),
		ModelVersion: r.catalog.ModelVersion(),
	}, nil
}

// Insight 按标题（大小写不敏感）返回单个职业相对于 text 的洞察。
// 标题不存在时返回 NotFound，与空结果区分。
func (r *Recommender) Insight(ctx context.Context, title, text string) (*types.EnrichedInsight, error) {
	ctx, span := r.tracer.Start(ctx, "Recommender.Insight")
	defer span.End()
	span.SetAttributes(attribute.String("career.title", title))

	record, ok := r.catalog.Lookup(title)
	if !ok {
		err := types.NewNotFoundError("Recommender.Insight", title)
		tracing.RecordError(span, err, tracing.ErrorTypeNotFound)
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		err := types.NewValidationError("Recommender.Insight", "text 不能为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	query, err := r.queries.Embed(ctx, text, r.catalog)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, err
	}

	in := r.enricher.Enrich(types.RankedMatch{
		Career:     record,
		Similarity: ranker.CosineSimilarity(query, record.Embedding),
	}, text)
	span.SetStatus(codes.Ok, "")
	return &in, nil
}
