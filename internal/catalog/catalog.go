package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"career-guide-go/internal/constants"
	"career-guide-go/internal/tracing"
	"career-guide-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// VersionedEmbedder 带模型版本标签的向量化提供方
type VersionedEmbedder interface {
	embedding.Embedder
	ModelVersion() string
}

// levelOrder Levels() 按职业进阶顺序输出
var levelOrder = map[string]int{
	types.LevelBeginner:     0,
	types.LevelIntermediate: 1,
	types.LevelAdvanced:     2,
}

// Catalog 加载完成后只读的职业目录，并发读取无需加锁
type Catalog struct {
	records      []*types.CareerRecord
	byTitle      map[string]*types.CareerRecord
	domains      []string
	levels       []string
	modelVersion string
	dimensions   int
}

// EmbeddingText 记录的向量化文本: title + description + keywords，顺序固定
func EmbeddingText(r *types.CareerRecord) string {
	return r.Title + " " + r.Description + " " + strings.Join(r.Keywords, " ")
}

// Validate 校验并规范化原始记录: 必填字段、合法级别、标题唯一（大小写不敏感）
func Validate(records []*types.CareerRecord) error {
	if len(records) == 0 {
		return types.NewDataError("Catalog.Validate", "目录为空")
	}

	seen := make(map[string]int, len(records))
	for i, r := range records {
		if r == nil {
			return types.NewDataError("Catalog.Validate", fmt.Sprintf("第 %d 条记录为空", i))
		}
		r.Title = strings.TrimSpace(r.Title)
		r.Domain = strings.TrimSpace(r.Domain)
		r.Level = strings.TrimSpace(r.Level)

		switch {
		case r.Title == "":
			return types.NewDataError("Catalog.Validate", fmt.Sprintf("第 %d 条记录缺少 title", i))
		case strings.TrimSpace(r.Description) == "":
			return types.NewDataError("Catalog.Validate", fmt.Sprintf("%q 缺少 description", r.Title))
		case r.Domain == "":
			return types.NewDataError("Catalog.Validate", fmt.Sprintf("%q 缺少 domain", r.Title))
		case r.Level == "":
			return types.NewDataError("Catalog.Validate", fmt.Sprintf("%q 缺少 level", r.Title))
		case !types.KnownLevels[r.Level]:
			return types.NewDataError("Catalog.Validate", fmt.Sprintf("%q 的 level 无效: %q", r.Title, r.Level))
		case len(r.Skills) == 0:
			return types.NewDataError("Catalog.Validate", fmt.Sprintf("%q 缺少 skills", r.Title))
		}

		key := strings.ToLower(r.Title)
		if prev, dup := seen[key]; dup {
			return types.NewDataError("Catalog.Validate", fmt.Sprintf("标题重复: %q (第 %d 条与第 %d 条)", r.Title, prev, i))
		}
		seen[key] = i

		if r.Keywords == nil {
			r.Keywords = []string{}
		}
		if r.Resources == nil {
			r.Resources = []types.Resource{}
		}
	}
	return nil
}

// New 由已带向量的记录构造目录，主要供测试与快照工具使用
func New(records []*types.CareerRecord, modelVersion string) (*Catalog, error) {
	if err := Validate(records); err != nil {
		return nil, err
	}
	dims := -1
	for _, r := range records {
		if len(r.Embedding) == 0 || (dims >= 0 && len(r.Embedding) != dims) {
			return nil, types.NewDataError("Catalog.New", fmt.Sprintf("%q 的向量维度无效", r.Title))
		}
		dims = len(r.Embedding)
	}
	return build(records, modelVersion, dims), nil
}

func build(records []*types.CareerRecord, modelVersion string, dims int) *Catalog {
	c := &Catalog{
		records:      records,
		byTitle:      make(map[string]*types.CareerRecord, len(records)),
		modelVersion: modelVersion,
		dimensions:   dims,
	}
	domainSet := make(map[string]struct{})
	levelSet := make(map[string]struct{})
	for _, r := range records {
		c.byTitle[strings.ToLower(r.Title)] = r
		domainSet[r.Domain] = struct{}{}
		levelSet[r.Level] = struct{}{}
	}
	for d := range domainSet {
		c.domains = append(c.domains, d)
	}
	sort.Strings(c.domains)
	for l := range levelSet {
		c.levels = append(c.levels, l)
	}
	sort.Slice(c.levels, func(i, j int) bool {
		return levelOrder[c.levels[i]] < levelOrder[c.levels[j]]
	})
	return c
}

// LoadOption 加载选项
type LoadOption func(*loadOptions)

type loadOptions struct {
	batchSize int
	snapshot  SnapshotStore
	logger    zerolog.Logger
}

// WithBatchSize 每次向量化调用的文本条数
func WithBatchSize(n int) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithSnapshotStore 启用向量快照复用
func WithSnapshotStore(s SnapshotStore) LoadOption {
	return func(o *loadOptions) {
		o.snapshot = s
	}
}

func WithLogger(l zerolog.Logger) LoadOption {
	return func(o *loadOptions) {
		o.logger = l
	}
}

// Load 读取、校验并向量化目录。
// 快照的模型版本与每条记录的文本哈希都一致时直接复用，否则整体重新计算。
func Load(ctx context.Context, source Source, embedder VersionedEmbedder, opts ...LoadOption) (*Catalog, error) {
	o := loadOptions{
		batchSize: constants.DefaultEmbeddingBatchSize,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	tracer := otel.Tracer("career-guide-go/catalog")
	ctx, span := tracer.Start(ctx, "Catalog.Load")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.source", source.Name()))

	start := time.Now()
	records, err := source.Load(ctx)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeData)
		return nil, err
	}
	if err := Validate(records); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeData)
		return nil, err
	}

	version := embedder.ModelVersion()
	span.SetAttributes(
		attribute.Int("catalog.size", len(records)),
		attribute.String("embedding.model_version", version),
	)

	vectors, reused := reuseSnapshot(ctx, o, version, records)
	if !reused {
		vectors, err = embedAll(ctx, embedder, records, o.batchSize)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
			return nil, err
		}
	}

	dims := len(vectors[0])
	for i, r := range records {
		if len(vectors[i]) == 0 || len(vectors[i]) != dims {
			err := types.NewEmbeddingError("Catalog.Load", fmt.Errorf("%q 的向量维度 %d 与 %d 不一致", r.Title, len(vectors[i]), dims))
			tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
			return nil, err
		}
		r.Embedding = vectors[i]
	}

	if !reused && o.snapshot != nil {
		if err := o.snapshot.SaveSnapshot(ctx, NewSnapshot(version, records)); err != nil {
			o.logger.Warn().Err(err).Msg("保存向量快照失败，下次启动将重新计算")
		}
	}

	span.SetAttributes(
		attribute.Int("embedding.dimensions", dims),
		attribute.Bool("catalog.snapshot_reused", reused),
	)
	span.SetStatus(codes.Ok, "")

	o.logger.Info().
		Str("source", source.Name()).
		Int("size", len(records)).
		Str("model_version", version).
		Int("dimensions", dims).
		Bool("snapshot_reused", reused).
		Dur("latency", time.Since(start)).
		Msg("职业目录加载完成")

	return build(records, version, dims), nil
}

func reuseSnapshot(ctx context.Context, o loadOptions, version string, records []*types.CareerRecord) ([][]float64, bool) {
	if o.snapshot == nil {
		return nil, false
	}
	snap, err := o.snapshot.LoadSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			o.logger.Warn().Err(err).Msg("读取向量快照失败，重新计算全部向量")
		}
		return nil, false
	}
	vectors, err := snap.Vectors(version, records)
	if err != nil {
		o.logger.Info().Err(err).Msg("向量快照失效，重新计算全部向量")
		return nil, false
	}
	return vectors, true
}

// embedAll 按批调用提供方，每条记录恰好一次
func embedAll(ctx context.Context, embedder VersionedEmbedder, records []*types.CareerRecord, batchSize int) ([][]float64, error) {
	vectors := make([][]float64, 0, len(records))
	for startIdx := 0; startIdx < len(records); startIdx += batchSize {
		end := startIdx + batchSize
		if end > len(records) {
			end = len(records)
		}
		texts := make([]string, 0, end-startIdx)
		for _, r := range records[startIdx:end] {
			texts = append(texts, EmbeddingText(r))
		}
		batch, err := embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return nil, types.NewEmbeddingError("Catalog.Load", err)
		}
		if len(batch) != len(texts) {
			return nil, types.NewEmbeddingError("Catalog.Load",
				fmt.Errorf("返回向量数 %d 与请求文本数 %d 不一致", len(batch), len(texts)))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// Records 目录记录，按加载顺序。调用方不得修改
func (c *Catalog) Records() []*types.CareerRecord {
	return c.records
}

func (c *Catalog) Len() int {
	return len(c.records)
}

// Lookup 大小写不敏感的精确标题查找
func (c *Catalog) Lookup(title string) (*types.CareerRecord, bool) {
	r, ok := c.byTitle[strings.ToLower(strings.TrimSpace(title))]
	return r, ok
}

// Domains 去重后按字母序
func (c *Catalog) Domains() []string {
	return append([]string(nil), c.domains...)
}

// Levels 去重后按 Beginner, Intermediate, Advanced 排列
func (c *Catalog) Levels() []string {
	return append([]string(nil), c.levels...)
}

func (c *Catalog) HasDomain(domain string) bool {
	for _, d := range c.domains {
		if d == domain {
			return true
		}
	}
	return false
}

func (c *Catalog) HasLevel(level string) bool {
	for _, l := range c.levels {
		if l == level {
			return true
		}
	}
	return false
}

func (c *Catalog) ModelVersion() string {
	return c.modelVersion
}

func (c *Catalog) Dimensions() int {
	return c.dimensions
}

func (c *Catalog) Info() types.CatalogInfo {
	return types.CatalogInfo{
		Size:         len(c.records),
		ModelVersion: c.modelVersion,
		Dimensions:   c.dimensions,
	}
}
