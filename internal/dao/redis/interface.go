// Package redis 定义参考网关的消息列表缓存
// Service 层依赖 MessageCache 接口，未配置 Redis 时使用 NopMessageCache
package redis

import "context"

// MessageCache 按会话缓存序列化后的消息列表
type MessageCache interface {
	// Get 读取会话缓存（未命中返回空字符串和 nil）
	Get(ctx context.Context, chatID int64) (string, error)
	// Set 写入会话缓存，过期时间由实现决定
	Set(ctx context.Context, chatID int64, value string) error
	// Invalidate 删除会话缓存，新消息写入后调用
	Invalidate(ctx context.Context, chatIDs ...int64) error
	// Flush 删除全部消息缓存
	Flush(ctx context.Context) error
}

// NopMessageCache 不缓存任何内容
type NopMessageCache struct{}

func (NopMessageCache) Get(context.Context, int64) (string, error) { return "", nil }
func (NopMessageCache) Set(context.Context, int64, string) error { return nil }
func (NopMessageCache) Invalidate(context.Context, ...int64) error { return nil }
func (NopMessageCache) Flush(context.Context) error { return nil }
