package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"chattix/pkg/constants"
	"chattix/pkg/errorx"

	"github.com/redis/go-redis/v9"
)

// keyPrefix 消息列表缓存键前缀，完整键为 chattix:messages:<chat_id>
const keyPrefix = "chattix:messages:"

// RedisMessageCache MessageCache 的 Redis 实现
type RedisMessageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMessageCache 创建 Redis 消息缓存，ttl<=0 时使用默认过期时间
func NewMessageCache(client *redis.Client, ttl time.Duration) *RedisMessageCache {
	if ttl <= 0 {
		ttl = time.Duration(constants.REDIS_TIMEOUT) * time.Minute
	}
	return &RedisMessageCache{client: client, ttl: ttl}
}

func messagesKey(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

// Get 键不存在时返回空字符串和 nil
func (r *RedisMessageCache) Get(ctx context.Context, chatID int64) (string, error) {
	key := messagesKey(chatID)
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

func (r *RedisMessageCache) Set(ctx context.Context, chatID int64, value string) error {
	key := messagesKey(chatID)
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis set key %s", key)
	}
	return nil
}

// Invalidate 使用 UNLINK 异步删除
func (r *RedisMessageCache) Invalidate(ctx context.Context, chatIDs ...int64) error {
	if len(chatIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(chatIDs))
	for _, id := range chatIDs {
		keys = append(keys, messagesKey(id))
	}
	if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink %d message keys", len(keys))
	}
	return nil
}

// Flush SCAN 分批扫描前缀 + UNLINK，避免阻塞 Redis
func (r *RedisMessageCache) Flush(ctx context.Context) error {
	pattern := keyPrefix + "*"
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return errorx.Wrapf(err, errorx.CodeCacheError, "redis scan pattern %s", pattern)
		}
		if len(keys) > 0 {
			if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
				return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink keys with pattern %s", pattern)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
