package bookmark

import (
	"context"
	"fmt"
	"sync"
	"time"

	"career-guide-go/internal/constants"
	"career-guide-go/internal/storage"

	"github.com/jellydator/ttlcache/v3"
)

// Store 会话收藏集合的存储接口
type Store interface {
	// Add 加入标题，已存在时静默成功
	Add(ctx context.Context, sessionID, title string) error
	// Remove 移除标题，返回实际移除的数量
	Remove(ctx context.Context, sessionID string, titles ...string) (int, error)
	Contains(ctx context.Context, sessionID, title string) (bool, error)
	// Toggle 原子地切换标题的收藏状态，返回切换后是否已收藏
	Toggle(ctx context.Context, sessionID, title string) (bool, error)
	// List 会话不存在时返回空切片
	List(ctx context.Context, sessionID string) ([]string, error)
	// Clear 会话不存在时静默成功
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore 进程内实现，会话在最后一次写入后 ttl 过期
type MemoryStore struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, map[string]struct{}]
}

// NewMemoryStore 创建并启动过期清理，使用完毕需调用 Stop
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	c := ttlcache.New[string, map[string]struct{}](
		ttlcache.WithTTL[string, map[string]struct{}](ttl),
		ttlcache.WithDisableTouchOnHit[string, map[string]struct{}](),
	)
	go c.Start()
	return &MemoryStore{cache: c}
}

func (m *MemoryStore) Stop() {
	m.cache.Stop()
}

// load 返回会话集合的副本，调用方需持有锁
func (m *MemoryStore) load(sessionID string) map[string]struct{} {
	set := make(map[string]struct{})
	if item := m.cache.Get(sessionID); item != nil {
		for t := range item.Value() {
			set[t] = struct{}{}
		}
	}
	return set
}

func (m *MemoryStore) Add(_ context.Context, sessionID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.load(sessionID)
	set[title] = struct{}{}
	m.cache.Set(sessionID, set, ttlcache.DefaultTTL)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, sessionID string, titles ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.load(sessionID)
	removed := 0
	for _, t := range titles {
		if _, ok := set[t]; ok {
			delete(set, t)
			removed++
		}
	}
	if removed > 0 {
		m.cache.Set(sessionID, set, ttlcache.DefaultTTL)
	}
	return removed, nil
}

func (m *MemoryStore) Contains(_ context.Context, sessionID, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.load(sessionID)[title]
	return ok, nil
}

func (m *MemoryStore) Toggle(_ context.Context, sessionID, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.load(sessionID)
	_, exists := set[title]
	if exists {
		delete(set, title)
	} else {
		set[title] = struct{}{}
	}
	m.cache.Set(sessionID, set, ttlcache.DefaultTTL)
	return !exists, nil
}

func (m *MemoryStore) List(_ context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.load(sessionID)
	titles := make([]string, 0, len(set))
	for t := range set {
		titles = append(titles, t)
	}
	return titles, nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Delete(sessionID)
	return nil
}

// RedisStore 以 Redis SET 保存会话收藏，每次写入刷新过期时间
type RedisStore struct {
	redis *storage.Redis
	ttl   time.Duration
}

func NewRedisStore(r *storage.Redis, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: r, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf(constants.KeySessionBookmarks, sessionID)
}

func (s *RedisStore) Add(ctx context.Context, sessionID, title string) error {
	if err := s.redis.AddToSet(ctx, s.key(sessionID), title, s.ttl); err != nil {
		return fmt.Errorf("添加收藏失败 (session %s): %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, sessionID string, titles ...string) (int, error) {
	n, err := s.redis.RemoveFromSet(ctx, s.key(sessionID), titles...)
	if err != nil {
		return 0, fmt.Errorf("移除收藏失败 (session %s): %w", sessionID, err)
	}
	return int(n), nil
}

func (s *RedisStore) Contains(ctx context.Context, sessionID, title string) (bool, error) {
	return s.redis.IsSetMember(ctx, s.key(sessionID), title)
}

func (s *RedisStore) Toggle(ctx context.Context, sessionID, title string) (bool, error) {
	bookmarked, err := s.redis.ToggleSetMember(ctx, s.key(sessionID), title, s.ttl)
	if err != nil {
		return false, fmt.Errorf("切换收藏失败 (session %s): %w", sessionID, err)
	}
	return bookmarked, nil
}

func (s *RedisStore) List(ctx context.Context, sessionID string) ([]string, error) {
	titles, err := s.redis.SetMembers(ctx, s.key(sessionID))
	if err != nil {
		return nil, fmt.Errorf("读取收藏失败 (session %s): %w", sessionID, err)
	}
	return titles, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.redis.Delete(ctx, s.key(sessionID))
}
