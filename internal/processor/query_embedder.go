package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"career-guide-go/internal/catalog"
	"career-guide-go/internal/storage"
	"career-guide-go/internal/types"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
)

// QueryVectorCache 查询向量缓存，键为查询文本的 sha256
type QueryVectorCache interface {
	Get(ctx context.Context, key string) (vector []float64, modelVersion string, found bool, err error)
	Set(ctx context.Context, key string, vector []float64, modelVersion string) error
}

// RedisQueryCache 基于 Redis HASH 的查询向量缓存
type RedisQueryCache struct {
	redis *storage.Redis
	ttl   time.Duration
}

func NewRedisQueryCache(r *storage.Redis, ttl time.Duration) *RedisQueryCache {
	return &RedisQueryCache{redis: r, ttl: ttl}
}

func (c *RedisQueryCache) Get(ctx context.Context, key string) ([]float64, string, bool, error) {
	vector, version, err := c.redis.GetQueryVector(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	return vector, version, true, nil
}

func (c *RedisQueryCache) Set(ctx context.Context, key string, vector []float64, modelVersion string) error {
	return c.redis.SetQueryVector(ctx, key, vector, modelVersion, c.ttl)
}

type cachedVector struct {
	vector       []float64
	modelVersion string
}

// MemoryQueryCache 进程内查询向量缓存
type MemoryQueryCache struct {
	cache *ttlcache.Cache[string, cachedVector]
}

// NewMemoryQueryCache 创建并启动过期清理，使用完毕需调用 Stop
func NewMemoryQueryCache(ttl time.Duration) *MemoryQueryCache {
	c := ttlcache.New[string, cachedVector](
		ttlcache.WithTTL[string, cachedVector](ttl),
		ttlcache.WithDisableTouchOnHit[string, cachedVector](),
	)
	go c.Start()
	return &MemoryQueryCache{cache: c}
}

func (c *MemoryQueryCache) Get(_ context.Context, key string) ([]float64, string, bool, error) {
	item := c.cache.Get(key)
	if item == nil {
		return nil, "", false, nil
	}
	v := item.Value()
	return v.vector, v.modelVersion, true, nil
}

func (c *MemoryQueryCache) Set(_ context.Context, key string, vector []float64, modelVersion string) error {
	c.cache.Set(key, cachedVector{vector: vector, modelVersion: modelVersion}, ttlcache.DefaultTTL)
	return nil
}

func (c *MemoryQueryCache) Len() int {
	return c.cache.Len()
}

func (c *MemoryQueryCache) Stop() {
	c.cache.Stop()
}

// QueryEmbedder 将查询文本转换为向量，并保证结果与目录的模型版本和维度一致
type QueryEmbedder struct {
	embedder catalog.VersionedEmbedder
	cache    QueryVectorCache
	logger   zerolog.Logger
}

// NewQueryEmbedder cache 可为 nil
func NewQueryEmbedder(embedder catalog.VersionedEmbedder, cache QueryVectorCache, logger zerolog.Logger) *QueryEmbedder {
	return &QueryEmbedder{embedder: embedder, cache: cache, logger: logger}
}

// ModelVersion 当前提供方的模型版本
func (q *QueryEmbedder) ModelVersion() string {
	return q.embedder.ModelVersion()
}

// Embed 返回查询向量。缓存中版本或维度不符的条目视为未命中；
// 提供方返回的向量与目录不一致时报 EmbeddingError，不重试。
func (q *QueryEmbedder) Embed(ctx context.Context, text string, cat *catalog.Catalog) ([]float64, error) {
	if q.embedder.ModelVersion() != cat.ModelVersion() {
		return nil, types.NewEmbeddingError("QueryEmbedder.Embed",
			fmt.Errorf("提供方模型版本 %q 与目录 %q 不一致", q.embedder.ModelVersion(), cat.ModelVersion()))
	}

	key := catalog.TextHash(text)
	if q.cache != nil {
		vector, version, found, err := q.cache.Get(ctx, key)
		switch {
		case err != nil:
			q.logger.Warn().Err(err).Msg("读取查询向量缓存失败")
		case found && version == cat.ModelVersion() && len(vector) == cat.Dimensions():
			return vector, nil
		case found:
			q.logger.Debug().Str("cached_version", version).Int("cached_dims", len(vector)).Msg("查询向量缓存已过时")
		}
	}

	vectors, err := q.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, types.NewEmbeddingError("QueryEmbedder.Embed", err)
	}
	if len(vectors) != 1 {
		return nil, types.NewEmbeddingError("QueryEmbedder.Embed", fmt.Errorf("期望 1 个向量，实际 %d 个", len(vectors)))
	}
	vector := vectors[0]
	if len(vector) != cat.Dimensions() {
		return nil, types.NewEmbeddingError("QueryEmbedder.Embed",
			fmt.Errorf("查询向量维度 %d 与目录维度 %d 不一致", len(vector), cat.Dimensions()))
	}

	if q.cache != nil {
		if err := q.cache.Set(ctx, key, vector, cat.ModelVersion()); err != nil {
			q.logger.Warn().Err(err).Msg("写入查询向量缓存失败")
		}
	}
	return vector, nil
}
