package storage

import (
	"context"
	"fmt"

	"career-guide-go/internal/config"

	"github.com/rs/zerolog"
)

// Storage 存储管理器，聚合按配置启用的外部存储
type Storage struct {
	// 报告归档
	MinIO *MinIO
	// 职业目录与向量快照
	MySQL *MySQL
	// 查询向量缓存与会话收藏
	Redis *Redis

	logger zerolog.Logger
}

// NewStorage 按配置初始化存储组件，已启用的组件初始化失败即返回错误
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{logger: logger}
	var err error

	if cfg.Redis.Enabled {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("初始化Redis失败: %w", err)
		}
		logger.Info().Str("address", cfg.Redis.Address).Msg("Redis初始化成功")
	}

	if cfg.Catalog.Source == config.CatalogSourceMySQL || cfg.Catalog.SnapshotInMySQL {
		s.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("初始化MySQL失败: %w", err)
		}
		logger.Info().Str("database", cfg.MySQL.Database).Msg("MySQL初始化成功")
	}

	if cfg.MinIO.Enabled {
		s.MinIO, err = NewMinIO(ctx, &cfg.MinIO, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("初始化MinIO失败: %w", err)
		}
	}

	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
