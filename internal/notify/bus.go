// Package notify 引擎到界面的单向事件总线
// 发布永不阻塞：通道满时丢弃事件并记录日志
package notify

import (
	"sync"
	"sync/atomic"

	"chattix/internal/model"

	"go.uber.org/zap"
)

// Kind 事件类型
type Kind int

const (
	KindNotice   Kind = iota // 瞬时提示（错误、警告）
	KindChats                // 会话列表已替换
	KindContacts             // 联系人列表已替换
	KindHistory              // 某会话历史已加载
	KindMessage              // 某会话追加了一条消息
	KindSession              // 登录/登出
)

func (k Kind) String() string {
	switch k {
	case KindNotice:
		return "notice"
	case KindChats:
		return "chats"
	case KindContacts:
		return "contacts"
	case KindHistory:
		return "history"
	case KindMessage:
		return "message"
	case KindSession:
		return "session"
	}
	return "unknown"
}

// Level 提示级别
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notice 非阻塞提示，Op 为触发的操作名
type Notice struct {
	Level Level
	Op    string
	Text  string
	Err   error
}

// Event 总线上的事件
// Active 仅对 KindHistory/KindMessage 有意义：事件完成时 ChatID 是否为当前活动会话
type Event struct {
	Kind    Kind
	ChatID  int64
	Active  bool
	Message *model.Message
	Notice  *Notice
}

// Publisher 发布状态事件
type Publisher interface {
	Publish(Event)
}

// Notifier 发布提示
type Notifier interface {
	Notify(Notice)
}

// Bus 带缓冲的事件总线
type Bus struct {
	ch      chan Event
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

var (
	_ Publisher = (*Bus)(nil)
	_ Notifier  = (*Bus)(nil)
)

// NewBus 创建总线，size 为缓冲大小
func NewBus(size int) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{ch: make(chan Event, size)}
}

// Publish 非阻塞发布
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.ch <- ev:
	default:
		b.dropped.Add(1)
		zap.L().Debug("event bus full, event dropped", zap.Stringer("kind", ev.Kind), zap.Int64("chat_id", ev.ChatID))
	}
}

// Notify 记录并发布一条提示
func (b *Bus) Notify(n Notice) {
	fields := []zap.Field{zap.String("op", n.Op), zap.String("text", n.Text)}
	if n.Err != nil {
		fields = append(fields, zap.Error(n.Err))
	}
	switch n.Level {
	case LevelError:
		zap.L().Error("notice", fields...)
	case LevelWarn:
		zap.L().Warn("notice", fields...)
	default:
		zap.L().Info("notice", fields...)
	}
	b.Publish(Event{Kind: KindNotice, Notice: &n})
}

// Events 订阅端，Close 后通道关闭
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Dropped 因通道满而丢弃的事件数
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close 关闭总线，可重复调用
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}

// Sink 同时发布状态事件和提示
type Sink interface {
	Publisher
	Notifier
}

var _ Sink = (*Bus)(nil)
