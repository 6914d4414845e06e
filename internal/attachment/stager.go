package attachment

import (
	"sync"

	"chattix/internal/model"
)

// Stager 待发送消息的附件槽位，最多一个，后写覆盖
type Stager struct {
	mu     sync.Mutex
	staged *model.Attachment
}

// Stage 暂存附件，替换已有的
func (s *Stager) Stage(a model.Attachment) {
	s.mu.Lock()
	s.staged = &a
	s.mu.Unlock()
}

// Staged 返回暂存附件的副本
func (s *Stager) Staged() (*model.Attachment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staged == nil {
		return nil, false
	}
	a := *s.staged
	return &a, true
}

// Clear 移除暂存附件
func (s *Stager) Clear() {
	s.mu.Lock()
	s.staged = nil
	s.mu.Unlock()
}
