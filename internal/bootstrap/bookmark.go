package bootstrap

import (
	"fmt"

	"career-guide-go/internal/bookmark"
	"career-guide-go/internal/config"
	"career-guide-go/internal/constants"
	"career-guide-go/internal/storage"
)

// BookmarkStore 按 session.store 选择收藏存储
func BookmarkStore(cfg *config.Config, st *storage.Storage) (bookmark.Store, error) {
	ttl := config.GetDuration(cfg.Session.TTL, constants.SessionDuration)
	if cfg.Session.Store == config.BackendRedis {
		if st == nil || st.Redis == nil {
			return nil, fmt.Errorf("session.store 为 redis 但 Redis 未初始化")
		}
		return bookmark.NewRedisStore(st.Redis, ttl), nil
	}
	return bookmark.NewMemoryStore(ttl), nil
}
