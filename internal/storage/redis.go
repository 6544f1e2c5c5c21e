package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"career-guide-go/internal/config"
	"career-guide-go/internal/constants"
	"career-guide-go/internal/tracing"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when a key is not found in Redis.
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("career-guide-go/storage/redis")

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	})

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// NewRedisFromClient 包装已有客户端
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{Client: client, config: &config.RedisConfig{}}
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// SetQueryVector 将查询向量和模型版本存入 HASH
func (r *Redis) SetQueryVector(ctx context.Context, textHash string, vector []float64, modelVersion string, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	cacheKey := fmt.Sprintf(constants.KeyQueryVector, textHash)

	ctx, span := redisTracer.Start(ctx, "Redis.SetQueryVector", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(cacheKey)),
		attribute.Int("vector.dimensions", len(vector)),
	)

	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("序列化向量失败: %w", err)
	}

	pipe := r.Client.TxPipeline()
	pipe.HSet(ctx, cacheKey, "vector", vectorJSON, "model_version", modelVersion)
	if ttl > 0 {
		pipe.Expire(ctx, cacheKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("设置查询向量缓存失败: %w", err)
	}
	return nil
}

// GetQueryVector 读取查询向量和模型版本，不存在时返回 ErrNotFound
func (r *Redis) GetQueryVector(ctx context.Context, textHash string) ([]float64, string, error) {
	if r.Client == nil {
		return nil, "", fmt.Errorf("redis client is not initialized")
	}
	cacheKey := fmt.Sprintf(constants.KeyQueryVector, textHash)

	ctx, span := redisTracer.Start(ctx, "Redis.GetQueryVector", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	vals, err := r.Client.HMGet(ctx, cacheKey, "vector", "model_version").Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, "", err
	}
	if len(vals) < 2 || vals[0] == nil {
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		return nil, "", ErrNotFound
	}

	vectorJSON, ok := vals[0].(string)
	if !ok || vectorJSON == "" {
		return nil, "", fmt.Errorf("向量缓存格式错误")
	}
	var vector []float64
	if err := json.Unmarshal([]byte(vectorJSON), &vector); err != nil {
		return nil, "", fmt.Errorf("反序列化向量失败: %w", err)
	}

	modelVersion, _ := vals[1].(string)
	span.SetAttributes(attribute.Bool("db.redis.key_exists", true))
	return vector, modelVersion, nil
}

// AddToSet 向集合添加成员并刷新过期时间
func (r *Redis) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	pipe := r.Client.TxPipeline()
	pipe.SAdd(ctx, key, member)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// toggleSetMemberScript 成员存在则移除并返回 0，否则加入、刷新过期时间并返回 1
var toggleSetMemberScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
  redis.call('SREM', KEYS[1], ARGV[1])
  return 0
end
redis.call('SADD', KEYS[1], ARGV[1])
if tonumber(ARGV[2]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// ToggleSetMember 原子地切换成员是否在集合中，返回切换后的状态
func (r *Redis) ToggleSetMember(ctx context.Context, key, member string, ttl time.Duration) (bool, error) {
	n, err := toggleSetMemberScript.Run(ctx, r.Client, []string{key}, member, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RemoveFromSet 从集合移除成员，返回实际移除的数量
func (r *Redis) RemoveFromSet(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return r.Client.SRem(ctx, key, args...).Result()
}

// IsSetMember 判断成员是否在集合中
func (r *Redis) IsSetMember(ctx context.Context, key, member string) (bool, error) {
	return r.Client.SIsMember(ctx, key, member).Result()
}

// SetMembers 返回集合全部成员，集合不存在时返回空切片
func (r *Redis) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.Client.SMembers(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return []string{}, nil
	}
	return members, err
}

// Delete 删除键，键不存在时不报错
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.Client.Del(ctx, keys...).Err()
}
