package bootstrap // 按配置组装目录数据源、向量快照与查询缓存

import (
	"context"
	"fmt"

	"career-guide-go/internal/catalog"
	"career-guide-go/internal/config"
	"career-guide-go/internal/constants"
	"career-guide-go/internal/processor"
	"career-guide-go/internal/storage"

	"github.com/rs/zerolog"
)

// CatalogSource 按 catalog.source 选择数据源
func CatalogSource(cfg *config.Config, st *storage.Storage) (catalog.Source, error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourceMySQL:
		if st == nil || st.MySQL == nil {
			return nil, fmt.Errorf("catalog.source 为 mysql 但 MySQL 未初始化")
		}
		return catalog.NewMySQLSource(st.MySQL), nil
	default:
		return catalog.NewFileSource(cfg.Catalog.Path), nil
	}
}

// SnapshotStore 按配置选择向量快照存储，未配置时返回 nil
func SnapshotStore(cfg *config.Config, st *storage.Storage) catalog.SnapshotStore {
	if cfg.Catalog.SnapshotInMySQL && st != nil && st.MySQL != nil {
		return catalog.NewMySQLSnapshotStore(st.MySQL)
	}
	if cfg.Catalog.SnapshotPath != "" {
		return catalog.NewFileSnapshotStore(cfg.Catalog.SnapshotPath)
	}
	return nil
}

// LoadCatalog 读取并向量化职业目录
func LoadCatalog(ctx context.Context, cfg *config.Config, st *storage.Storage, embedder catalog.VersionedEmbedder, logger zerolog.Logger) (*catalog.Catalog, error) {
	source, err := CatalogSource(cfg, st)
	if err != nil {
		return nil, err
	}
	opts := []catalog.LoadOption{
		catalog.WithBatchSize(cfg.Catalog.BatchSize),
		catalog.WithLogger(logger),
	}
	if snap := SnapshotStore(cfg, st); snap != nil {
		opts = append(opts, catalog.WithSnapshotStore(snap))
	}
	return catalog.Load(ctx, source, embedder, opts...)
}

// QueryCache 按 recommend.query_cache 选择查询向量缓存，none 时返回 nil
func QueryCache(cfg *config.Config, st *storage.Storage) (processor.QueryVectorCache, error) {
	ttl := config.GetDuration(cfg.Recommend.QueryCacheTTL, constants.QueryVectorCacheDuration)
	switch cfg.Recommend.QueryCache {
	case config.BackendRedis:
		if st == nil || st.Redis == nil {
			return nil, fmt.Errorf("query_cache 为 redis 但 Redis 未初始化")
		}
		return processor.NewRedisQueryCache(st.Redis, ttl), nil
	case config.BackendMemory:
		return processor.NewMemoryQueryCache(ttl), nil
	default:
		return nil, nil
	}
}
