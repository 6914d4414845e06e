package redis

import (
	"context"
	"strconv"

	"chattix/internal/config"
	"chattix/pkg/errorx"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient 按配置创建 Redis 客户端并 PING 一次
// Host 为空表示未启用缓存，返回 nil
func NewClient(ctx context.Context, conf config.RedisConfig) (*redis.Client, error) {
	if conf.Host == "" {
		return nil, nil
	}
	port := conf.Port
	if port == 0 {
		port = 6379
	}
	addr := conf.Host + ":" + strconv.Itoa(port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.Password,
		DB:       conf.Db,
		// 连接池配置
		PoolSize:     20, // 最大连接数
		MinIdleConns: 4,  // 最小空闲连接，避免冷启动时频繁建连
	})
	// 启动时 PING 一次
	// 为什么：连不上时尽早退化为 NopMessageCache，而不是在每次读消息时报错
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "redis ping %s", addr)
	}
	zap.L().Info("redis connected", zap.String("addr", addr), zap.Int("db", conf.Db))
	return client, nil
}

// NewCache 按配置返回消息缓存，未配置或连接失败时退化为 NopMessageCache
// 返回的 close 函数用于关闭底层连接
func NewCache(ctx context.Context, conf config.RedisConfig) (MessageCache, func() error) {
	client, err := NewClient(ctx, conf)
	if err != nil {
		zap.L().Warn("redis unavailable, message cache disabled", zap.Error(err))
		return NopMessageCache{}, func() error { return nil }
	}
	if client == nil {
		return NopMessageCache{}, func() error { return nil }
	}
	return NewMessageCache(client, 0), client.Close
}
