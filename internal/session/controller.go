// Package session 把界面意图映射到引擎组件，并负责会话生命周期
package session

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"chattix/internal/attachment"
	"chattix/internal/channel"
	"chattix/internal/directory"
	"chattix/internal/infrastructure/worker"
	"chattix/internal/model"
	"chattix/internal/notify"
	"chattix/internal/presence"
	"chattix/pkg/constants"
	"chattix/pkg/errorx"

	"go.uber.org/zap"
)

// Gateway 会话控制器直接使用的网关能力
type Gateway interface {
	Register(ctx context.Context, phone, name, avatar string) (model.User, error)
	SearchUser(ctx context.Context, phone string) (model.User, error)
	AddContact(ctx context.Context, userID, contactUserID int64) error
}

// Session 登录成功后创建，登出时销毁
type Session struct {
	User      model.User
	StartedAt time.Time
}

// Deps 控制器依赖
type Deps struct {
	Gateway   Gateway
	Directory *directory.Directory
	Channel   *channel.Channel
	Heartbeat *presence.Heartbeat
	Pipeline  *attachment.Pipeline
	Pool      *worker.Pool // 可为空；登出时等待其中的刷新任务结束
	Sink      notify.Sink
}

// Controller 会话控制器，可并发使用
type Controller struct {
	deps   Deps
	stager attachment.Stager
	lg     *zap.Logger

	mu      sync.Mutex
	session *Session
}

// ErrNotLoggedIn 未登录时调用任何意图返回
var ErrNotLoggedIn = errorx.New(errorx.CodeInvalidParam, "not logged in")

// New 创建控制器
func New(deps Deps) *Controller {
	return &Controller{deps: deps, lg: zap.L().Named("session")}
}

// Login 按手机号注册或更新用户，然后开始会话
// name 为空时使用 "User"，avatar 为空时取名称首字母
func (c *Controller) Login(ctx context.Context, phone, name, avatar string) (model.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return model.User{}, c.fail("login", errorx.New(errorx.CodeInvalidParam, "phone is required"))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = constants.DEFAULT_USER_NAME
	}
	if avatar == "" {
		avatar = initial(name)
	}

	user, err := c.deps.Gateway.Register(ctx, phone, name, avatar)
	if err != nil {
		return model.User{}, c.fail("login", err)
	}
	c.Begin(ctx, user)
	return user, nil
}

// Begin 为已认证的用户创建会话：启动心跳并做首次目录同步
// 已有会话时先结束它
func (c *Controller) Begin(ctx context.Context, user model.User) {
	c.mu.Lock()
	prev := c.session
	c.mu.Unlock()
	if prev != nil {
		c.Logout()
	}

	c.mu.Lock()
	c.session = &Session{User: user, StartedAt: time.Now()}
	c.mu.Unlock()

	c.deps.Heartbeat.Start(user.ID)
	c.deps.Directory.LoadContacts(ctx, user.ID)
	c.deps.Directory.LoadChats(ctx, user.ID)
	c.deps.Sink.Publish(notify.Event{Kind: notify.KindSession})
	c.lg.Info("session started", zap.Int64("user_id", user.ID))
}

// Logout 停止心跳（含离线上报），清空会话和所有缓存
func (c *Controller) Logout() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()
	if s == nil {
		return
	}

	c.deps.Heartbeat.Stop()
	if c.deps.Pool != nil {
		c.deps.Pool.Drain()
	}
	c.deps.Directory.Reset()
	c.deps.Channel.Reset()
	c.stager.Clear()
	c.deps.Sink.Publish(notify.Event{Kind: notify.KindSession})
	c.lg.Info("session ended", zap.Int64("user_id", s.User.ID), zap.Duration("duration", time.Since(s.StartedAt)))
}

// Current 当前登录用户
func (c *Controller) Current() (model.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return model.User{}, false
	}
	return c.session.User, true
}

func (c *Controller) require(op string) (model.User, error) {
	u, ok := c.Current()
	if !ok {
		return model.User{}, c.fail(op, ErrNotLoggedIn)
	}
	return u, nil
}

// OpenChat 切换活动会话并加载其历史；已是活动会话时不重复加载
func (c *Controller) OpenChat(ctx context.Context, chatID int64) error {
	if _, err := c.require("open chat"); err != nil {
		return err
	}
	if active, ok := c.deps.Channel.Active(); ok && active.ID == chatID {
		return nil
	}
	chat, ok := c.deps.Directory.Chat(chatID)
	if !ok {
		return c.fail("open chat", errorx.Newf(errorx.CodeNotFound, "chat %d not found", chatID))
	}
	if err := c.deps.Channel.Open(ctx, chat); err != nil {
		return c.fail("open chat", err)
	}
	return nil
}

// Send 向活动会话发送文本和暂存的附件，成功后清空附件槽位
func (c *Controller) Send(ctx context.Context, content string) (*model.Message, error) {
	user, err := c.require("send")
	if err != nil {
		return nil, err
	}
	active, ok := c.deps.Channel.Active()
	if !ok {
		return nil, c.fail("send", errorx.New(errorx.CodeInvalidParam, "no chat selected"))
	}
	att, _ := c.stager.Staged()

	msg, err := c.deps.Channel.Send(ctx, active.ID, user.ID, content, att)
	if err != nil {
		return nil, c.fail("send", err)
	}
	if msg != nil {
		c.stager.Clear()
	}
	return msg, nil
}

// Attach 上传本地文件并暂存，替换已暂存的附件
func (c *Controller) Attach(ctx context.Context, path string) (*model.Attachment, error) {
	if _, err := c.require("attach"); err != nil {
		return nil, err
	}
	a, err := c.deps.Pipeline.UploadPath(ctx, path)
	if err != nil {
		return nil, c.fail("attach", err)
	}
	c.stager.Stage(*a)
	return a, nil
}

// Detach 移除暂存的附件
func (c *Controller) Detach() {
	c.stager.Clear()
}

// Staged 当前暂存的附件
func (c *Controller) Staged() (*model.Attachment, bool) {
	return c.stager.Staged()
}

// AddContact 按手机号查找用户并添加为联系人，随后重新加载联系人列表
func (c *Controller) AddContact(ctx context.Context, phone string) (model.User, error) {
	user, err := c.require("add contact")
	if err != nil {
		return model.User{}, err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return model.User{}, c.fail("add contact", errorx.New(errorx.CodeInvalidParam, "phone is required"))
	}

	found, err := c.deps.Gateway.SearchUser(ctx, phone)
	if err != nil {
		return model.User{}, c.fail("add contact", err)
	}
	if found.ID == user.ID {
		return model.User{}, c.fail("add contact", errorx.New(errorx.CodeInvalidParam, "cannot add yourself"))
	}
	if err := c.deps.Gateway.AddContact(ctx, user.ID, found.ID); err != nil {
		return model.User{}, c.fail("add contact", err)
	}
	c.deps.Directory.LoadContacts(ctx, user.ID)
	return found, nil
}

// StartChatWith 与联系人开始私聊
func (c *Controller) StartChatWith(ctx context.Context, contactID int64) (model.Chat, error) {
	user, err := c.require("start chat")
	if err != nil {
		return model.Chat{}, err
	}
	contact, ok := c.deps.Directory.Contact(contactID)
	if !ok {
		return model.Chat{}, c.fail("start chat", errorx.Newf(errorx.CodeNotFound, "contact %d not found", contactID))
	}
	chat, err := c.deps.Channel.StartPrivateChat(ctx, user.ID, contact.Contact)
	if err != nil {
		return chat, c.fail("start chat", err)
	}
	return chat, nil
}

// StartAIChat 打开与助手的会话
func (c *Controller) StartAIChat(ctx context.Context) (model.Chat, error) {
	user, err := c.require("start ai chat")
	if err != nil {
		return model.Chat{}, err
	}
	chat, err := c.deps.Channel.StartAIChat(ctx, user.ID)
	if err != nil {
		return chat, c.fail("start ai chat", err)
	}
	return chat, nil
}

// CreateGroup 创建群组并返回会话 ID
func (c *Controller) CreateGroup(ctx context.Context, name string, memberIDs []int64) (int64, error) {
	user, err := c.require("create group")
	if err != nil {
		return 0, err
	}
	id, err := c.deps.Channel.CreateGroup(ctx, user.ID, name, memberIDs)
	if err != nil {
		return 0, c.fail("create group", err)
	}
	return id, nil
}

// Chats 缓存的会话列表
func (c *Controller) Chats() []model.Chat {
	return c.deps.Directory.Chats()
}

// Contacts 缓存的联系人
func (c *Controller) Contacts() []model.Contact {
	return c.deps.Directory.Contacts()
}

// ActiveMessages 活动会话的消息
func (c *Controller) ActiveMessages() []model.Message {
	active, ok := c.deps.Channel.Active()
	if !ok {
		return nil
	}
	return c.deps.Channel.Messages(active.ID)
}

// fail 发出提示并原样返回错误
func (c *Controller) fail(op string, err error) error {
	level := notify.LevelWarn
	if errorx.GetCode(err) == errorx.CodeInvalidParam || errorx.GetCode(err) == errorx.CodeInvalidGroupSpec {
		level = notify.LevelInfo
	}
	c.deps.Sink.Notify(notify.Notice{Level: level, Op: op, Text: noticeText(err), Err: err})
	return err
}

// noticeText 给界面看的简短说明
func noticeText(err error) string {
	switch errorx.GetCode(err) {
	case errorx.CodeNotFound:
		return "not found"
	case errorx.CodeNetworkTimeout:
		return "request timed out"
	case errorx.CodeFileTooLarge:
		return "file is larger than 10 MB"
	case errorx.CodeUploadFailed:
		return "upload failed"
	case errorx.CodeSendFailed:
		return "message was not sent"
	case errorx.CodeInvalidGroupSpec:
		return "enter a group name and pick at least one member"
	case errorx.CodeNetwork:
		return "network error"
	}
	return err.Error()
}

// initial 名称首字母（大写）
func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}
