// Package service 参考网关的业务逻辑
// 通过 store.Repositories 访问数据，消息列表可选缓存在 Redis 中
package service

import (
	"context"
	"sync"
	"time"

	myredis "chattix/internal/dao/redis"
	"chattix/internal/dao/store"
	"chattix/pkg/errorx"
	"chattix/pkg/util/snowflake"

	"go.uber.org/zap"
)

// Options 可选依赖，零值使用默认实现
type Options struct {
	Cache     myredis.MessageCache // 默认 NopMessageCache
	IDs       *snowflake.Generator // 默认按配置初始化的全局节点
	Responder Responder            // 默认 EchoResponder
	Now       func() time.Time     // 默认 time.Now
}

// Service 参考网关的全部业务操作
type Service struct {
	repos     *store.Repositories
	cache     myredis.MessageCache
	ids       *snowflake.Generator
	responder Responder
	now       func() time.Time

	// createMu 串行化会话的查找或创建，保证私聊和 AI 会话不重复
	createMu sync.Mutex
}

// New 创建 Service
func New(repos *store.Repositories, opts Options) *Service {
	s := &Service{
		repos:     repos,
		cache:     opts.Cache,
		ids:       opts.IDs,
		responder: opts.Responder,
		now:       opts.Now,
	}
	if s.cache == nil {
		s.cache = myredis.NopMessageCache{}
	}
	if s.ids == nil {
		s.ids = snowflake.Default()
	}
	if s.responder == nil {
		s.responder = EchoResponder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// timestamp 统一为 UTC 毫秒精度，与 MySQL datetime(3) 一致
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// ensureUsers 校验用户全部存在
func (s *Service) ensureUsers(repos *store.Repositories, ids []int64) error {
	users, err := repos.User.FindByIDs(ids)
	if err != nil {
		return err
	}
	if len(users) != len(ids) {
		return errorx.Newf(errorx.CodeNotFound, "user not found")
	}
	return nil
}

// invalidate 删除消息列表缓存，失败只记录日志
func (s *Service) invalidate(ctx context.Context, chatID int64) {
	if err := s.cache.Invalidate(ctx, chatID); err != nil {
		zap.L().Warn("invalidate message cache failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

// dedupIDs 去重并保持顺序，跳过 skip 和非正数
func dedupIDs(ids []int64, skip int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || id == skip {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
