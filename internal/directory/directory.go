// Package directory 联系人列表和会话列表的缓存
// 每次加载成功都整体替换缓存，不做合并、重排或过滤（联系人仅按 ID 去重）
package directory

import (
	"context"
	"sync"

	"chattix/internal/infrastructure/worker"
	"chattix/internal/model"
	"chattix/internal/notify"

	"go.uber.org/zap"
)

// Gateway 目录同步使用的网关能力
type Gateway interface {
	Chats(ctx context.Context, userID int64) ([]model.Chat, error)
	Contacts(ctx context.Context, userID int64) ([]model.Contact, error)
}

// Directory 会话和联系人缓存，可并发使用
type Directory struct {
	gw   Gateway
	sink notify.Sink
	pool *worker.Pool
	lg   *zap.Logger

	mu       sync.RWMutex
	epoch    uint64 // Reset 时递增，丢弃之前发起的加载结果
	chats    []model.Chat
	contacts []model.Contact
}

// New pool 为 nil 时异步刷新退化为同步执行
func New(gw Gateway, sink notify.Sink, pool *worker.Pool) *Directory {
	return &Directory{gw: gw, sink: sink, pool: pool, lg: zap.L().Named("directory")}
}

// LoadChats 前台加载会话列表，失败时保留旧缓存并发出提示
// 返回加载后的缓存
func (d *Directory) LoadChats(ctx context.Context, userID int64) []model.Chat {
	d.loadChats(ctx, userID, true)
	return d.Chats()
}

// LoadContacts 前台加载联系人，失败时保留旧缓存并发出提示
func (d *Directory) LoadContacts(ctx context.Context, userID int64) []model.Contact {
	d.loadContacts(ctx, userID, true)
	return d.Contacts()
}

// RefreshChats 后台刷新会话列表，失败只记日志
func (d *Directory) RefreshChats(ctx context.Context, userID int64) {
	d.loadChats(ctx, userID, false)
}

// RefreshContacts 后台刷新联系人（心跳使用），失败只记日志
func (d *Directory) RefreshContacts(ctx context.Context, userID int64) {
	d.loadContacts(ctx, userID, false)
}

// RefreshChatsAsync 提交到 worker 池的即发即忘刷新
func (d *Directory) RefreshChatsAsync(userID int64) {
	task := func() { d.RefreshChats(context.Background(), userID) }
	if d.pool == nil {
		task()
		return
	}
	if !d.pool.Submit(task) {
		d.lg.Debug("chat refresh dropped, pool closed", zap.Int64("user_id", userID))
	}
}

func (d *Directory) loadChats(ctx context.Context, userID int64, foreground bool) {
	epoch := d.currentEpoch()
	chats, err := d.gw.Chats(ctx, userID)
	if err != nil {
		d.fail("load chats", userID, err, foreground)
		return
	}

	d.mu.Lock()
	if d.epoch != epoch {
		d.mu.Unlock()
		d.lg.Debug("stale chat list discarded", zap.Int64("user_id", userID))
		return
	}
	d.chats = chats
	d.mu.Unlock()

	d.sink.Publish(notify.Event{Kind: notify.KindChats})
}

func (d *Directory) loadContacts(ctx context.Context, userID int64, foreground bool) {
	epoch := d.currentEpoch()
	contacts, err := d.gw.Contacts(ctx, userID)
	if err != nil {
		d.fail("load contacts", userID, err, foreground)
		return
	}
	contacts = model.DedupContacts(contacts)

	d.mu.Lock()
	if d.epoch != epoch {
		d.mu.Unlock()
		d.lg.Debug("stale contact list discarded", zap.Int64("user_id", userID))
		return
	}
	d.contacts = contacts
	d.mu.Unlock()

	d.sink.Publish(notify.Event{Kind: notify.KindContacts})
}

func (d *Directory) fail(op string, userID int64, err error, foreground bool) {
	if foreground {
		d.sink.Notify(notify.Notice{Level: notify.LevelWarn, Op: op, Text: "could not " + op, Err: err})
		return
	}
	d.lg.Warn(op+" failed", zap.Int64("user_id", userID), zap.Error(err))
}

func (d *Directory) currentEpoch() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.epoch
}

// Chats 会话列表副本
func (d *Directory) Chats() []model.Chat {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Chat(nil), d.chats...)
}

// Contacts 联系人副本
func (d *Directory) Contacts() []model.Contact {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Contact(nil), d.contacts...)
}

// Chat 按 ID 查找已缓存的会话
func (d *Directory) Chat(chatID int64) (model.Chat, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.chats {
		if c.ID == chatID {
			return c, true
		}
	}
	return model.Chat{}, false
}

// Contact 按用户 ID 查找已缓存的联系人
func (d *Directory) Contact(userID int64) (model.Contact, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.contacts {
		if c.Contact.ID == userID {
			return c, true
		}
	}
	return model.Contact{}, false
}

// Reset 清空缓存，进行中的加载结果将被丢弃
func (d *Directory) Reset() {
	d.mu.Lock()
	d.epoch++
	d.chats = nil
	d.contacts = nil
	d.mu.Unlock()
}
