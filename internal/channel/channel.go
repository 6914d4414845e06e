// Package channel 按会话维护消息历史，负责发送协议、AI 自动回复和会话创建
//
// 每个会话的状态为 Unloaded -> Loading -> Loaded。历史加载以 (chatID, 加载序号)
// 标记，只有该会话最新一次加载的结果才会写入；加载期间追加的已确认消息会被合并回去。
// 网络请求从不在持锁期间发起。
package channel

import (
	"context"
	"sort"
	"strings"
	"sync"

	"chattix/internal/dto/request"
	"chattix/internal/gateway"
	"chattix/internal/model"
	"chattix/internal/notify"
	"chattix/pkg/constants"
	"chattix/pkg/errorx"

	"go.uber.org/zap"
)

// Gateway 消息通道使用的网关能力
type Gateway interface {
	Messages(ctx context.Context, chatID int64) ([]model.Message, error)
	SendMessage(ctx context.Context, req *request.SendMessageRequest) (*gateway.SendResult, error)
	AIResponse(ctx context.Context, message string) (string, error)
	CreateChat(ctx context.Context, name string, members []int64, isAI bool) (int64, error)
	CreateGroup(ctx context.Context, req *request.CreateGroupRequest) (int64, error)
}

// ChatsRefresher 会话列表刷新，由 directory.Directory 实现
type ChatsRefresher interface {
	RefreshChats(ctx context.Context, userID int64)
	RefreshChatsAsync(userID int64)
}

// Options 消息通道配置
type Options struct {
	// ServerSideReply 为 true 时 AI 回复由 send_message(should_reply) 一次完成，
	// 否则走 ai_response + send_message 两步
	ServerSideReply bool
	Logger          *zap.Logger
}

// LoadState 会话历史的加载状态
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	}
	return "unloaded"
}

type chatState struct {
	chat     model.Chat
	state    LoadState
	loadSeq  uint64
	messages []model.Message
	ids      map[int64]struct{}
	// 最新一次加载发起后追加的消息，加载完成时合并
	sinceLoad []model.Message
}

// Channel 消息通道，可并发使用
type Channel struct {
	gw    Gateway
	chats ChatsRefresher
	sink  notify.Sink
	opts  Options
	lg    *zap.Logger

	mu     sync.Mutex
	states map[int64]*chatState
	active int64  // 0 表示没有活动会话
	epoch  uint64 // Reset 时递增，之前发起的发送结果不再写回
}

// New 创建消息通道
func New(gw Gateway, chats ChatsRefresher, sink notify.Sink, opts Options) *Channel {
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	return &Channel{
		gw:     gw,
		chats:  chats,
		sink:   sink,
		opts:   opts,
		lg:     opts.Logger.Named("channel"),
		states: make(map[int64]*chatState),
	}
}

// stateLocked 调用方需持有 mu
func (c *Channel) stateLocked(chatID int64) *chatState {
	st, ok := c.states[chatID]
	if !ok {
		st = &chatState{chat: model.Chat{ID: chatID}, ids: make(map[int64]struct{})}
		c.states[chatID] = st
	}
	return st
}

// Open 将 chat 设为活动会话并加载其历史
// 过期的加载结果会被丢弃；非活动会话的结果只更新该会话自己的存储
func (c *Channel) Open(ctx context.Context, chat model.Chat) error {
	c.mu.Lock()
	c.active = chat.ID
	st := c.stateLocked(chat.ID)
	if chat.Kind != "" {
		st.chat = chat
	}
	st.loadSeq++
	seq := st.loadSeq
	prev := st.state
	st.state = Loading
	st.sinceLoad = nil
	c.mu.Unlock()

	msgs, err := c.gw.Messages(ctx, chat.ID)

	c.mu.Lock()
	cur, ok := c.states[chat.ID]
	if !ok || cur != st || st.loadSeq != seq {
		c.mu.Unlock()
		c.lg.Debug("stale history discarded", zap.Int64("chat_id", chat.ID), zap.Uint64("seq", seq))
		return nil
	}
	if err != nil {
		if prev == Loaded {
			st.state = Loaded
		} else {
			st.state = Unloaded
		}
		st.sinceLoad = nil
		c.mu.Unlock()
		return err
	}

	merged := make([]model.Message, 0, len(msgs)+len(st.sinceLoad))
	ids := make(map[int64]struct{}, len(msgs)+len(st.sinceLoad))
	for _, m := range msgs {
		if _, dup := ids[m.ID]; dup {
			continue
		}
		ids[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range st.sinceLoad {
		if _, dup := ids[m.ID]; dup {
			continue
		}
		ids[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	model.SortMessages(merged)
	st.messages = merged
	st.ids = ids
	st.sinceLoad = nil
	st.state = Loaded
	active := c.active == chat.ID
	c.mu.Unlock()

	c.sink.Publish(notify.Event{Kind: notify.KindHistory, ChatID: chat.ID, Active: active})
	return nil
}

// currentEpoch 发起网络请求前记录，用于丢弃跨越 Reset 的结果
func (c *Channel) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// append 按 (CreatedAt, ID) 插入，重复 ID 忽略
// epoch 与当前不一致说明期间发生过 Reset（登出），消息直接丢弃
func (c *Channel) append(msg model.Message, epoch uint64) bool {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.lg.Debug("message after reset discarded", zap.Int64("chat_id", msg.ChatID), zap.Int64("id", msg.ID))
		return false
	}
	st := c.stateLocked(msg.ChatID)
	if _, dup := st.ids[msg.ID]; dup {
		c.mu.Unlock()
		return false
	}
	n := len(st.messages)
	if n == 0 || !msg.Less(st.messages[n-1]) {
		st.messages = append(st.messages, msg)
	} else {
		i := sort.Search(n, func(i int) bool { return msg.Less(st.messages[i]) })
		st.messages = append(st.messages, model.Message{})
		copy(st.messages[i+1:], st.messages[i:])
		st.messages[i] = msg
	}
	st.ids[msg.ID] = struct{}{}
	if st.state == Loading {
		st.sinceLoad = append(st.sinceLoad, msg)
	}
	active := c.active == msg.ChatID
	c.mu.Unlock()

	c.sink.Publish(notify.Event{Kind: notify.KindMessage, ChatID: msg.ChatID, Active: active, Message: &msg})
	return true
}

// Send 发送消息
// 内容去除首尾空白；内容为空且无附件时不做任何事并返回 (nil, nil)。
// AI 会话且无附件时追加 AI 回复；回复步骤失败静默忽略，持久化失败只发提示。
// 发送失败返回 CodeSendFailed，消息序列不变。
func (c *Channel) Send(ctx context.Context, chatID, senderID int64, content string, att *model.Attachment) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && att == nil {
		return nil, nil
	}

	c.mu.Lock()
	var kind model.ChatKind
	if st, ok := c.states[chatID]; ok {
		kind = st.chat.Kind
	}
	epoch := c.epoch
	c.mu.Unlock()
	wantAI := kind == model.ChatAI && att == nil

	req := &request.SendMessageRequest{
		ChatID:   chatID,
		SenderID: &senderID,
		Content:  content,
	}
	if att != nil {
		req.AttachmentURL = att.URL
		req.AttachmentType = att.MimeType
		req.AttachmentName = att.Name
		req.AttachmentSize = att.SizeBytes
	}
	if wantAI && c.opts.ServerSideReply {
		req.ShouldReply = true
	}

	res, err := c.gw.SendMessage(ctx, req)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeSendFailed, "send to chat %d", chatID)
	}
	sent := res.Message
	c.append(sent, epoch)
	if c.currentEpoch() != epoch {
		// 已登出：网关已保存，本地不再写回也不再继续 AI 步骤
		return &sent, nil
	}

	if wantAI {
		if c.opts.ServerSideReply {
			if res.AIReply != nil && res.AIReply.Content != "" {
				c.append(*res.AIReply, epoch)
			}
		} else {
			c.reply(ctx, chatID, content, epoch)
		}
	}

	c.chats.RefreshChatsAsync(senderID)
	return &sent, nil
}

// reply ai_response 取得回复后以 sender_id=null, is_ai=true 持久化
func (c *Channel) reply(ctx context.Context, chatID int64, prompt string, epoch uint64) {
	text, err := c.gw.AIResponse(ctx, prompt)
	if err != nil {
		c.lg.Debug("ai response failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.lg.Debug("empty ai response", zap.Int64("chat_id", chatID))
		return
	}

	res, err := c.gw.SendMessage(ctx, &request.SendMessageRequest{
		ChatID:  chatID,
		Content: text,
		IsAI:    true,
	})
	if err != nil {
		c.sink.Notify(notify.Notice{
			Level: notify.LevelWarn,
			Op:    "ai reply",
			Text:  "assistant reply could not be saved",
			Err:   err,
		})
		return
	}
	c.append(res.Message, epoch)
}

// StartPrivateChat 创建（或由网关返回已有的）私聊并打开
func (c *Channel) StartPrivateChat(ctx context.Context, userID int64, contact model.User) (model.Chat, error) {
	id, err := c.gw.CreateChat(ctx, "", []int64{userID, contact.ID}, false)
	if err != nil {
		return model.Chat{}, err
	}
	chat := model.Chat{ID: id, Kind: model.ChatPrivate, Name: contact.Name, Avatar: contact.Avatar}
	c.chats.RefreshChatsAsync(userID)
	return chat, c.Open(ctx, chat)
}

// StartAIChat 创建（或由网关返回已有的）AI 会话并打开
func (c *Channel) StartAIChat(ctx context.Context, userID int64) (model.Chat, error) {
	id, err := c.gw.CreateChat(ctx, constants.AI_CHAT_SERVER_NAME, []int64{userID}, true)
	if err != nil {
		return model.Chat{}, err
	}
	chat := model.Chat{ID: id, Kind: model.ChatAI, Name: constants.AI_CHAT_LABEL, Avatar: constants.AI_CHAT_AVATAR}
	c.chats.RefreshChatsAsync(userID)
	return chat, c.Open(ctx, chat)
}

// CreateGroup 名称去空白后为空或没有成员时返回 CodeInvalidGroupSpec，不发起请求
// 成功后刷新会话列表并返回新会话 ID
func (c *Channel) CreateGroup(ctx context.Context, userID int64, name string, memberIDs []int64) (int64, error) {
	name = strings.TrimSpace(name)
	members := make([]int64, 0, len(memberIDs))
	seen := map[int64]struct{}{userID: {}}
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup || id <= 0 {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if name == "" || len(members) == 0 {
		return 0, errorx.New(errorx.CodeInvalidGroupSpec, "group name and at least one member are required")
	}

	chatID, err := c.gw.CreateGroup(ctx, &request.CreateGroupRequest{
		Name:      name,
		Avatar:    constants.GROUP_AVATAR,
		CreatedBy: userID,
		MemberIDs: members,
	})
	if err != nil {
		return 0, err
	}
	c.chats.RefreshChats(ctx, userID)
	return chatID, nil
}

// Messages 会话消息的副本
func (c *Channel) Messages(chatID int64) []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[chatID]
	if !ok {
		return nil
	}
	return append([]model.Message(nil), st.messages...)
}

// State 会话加载状态
func (c *Channel) State(chatID int64) LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[chatID]; ok {
		return st.state
	}
	return Unloaded
}

// Active 当前活动会话
func (c *Channel) Active() (model.Chat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == 0 {
		return model.Chat{}, false
	}
	return c.states[c.active].chat, true
}

// Reset 清空所有会话状态，进行中的加载和发送结果都将被丢弃
func (c *Channel) Reset() {
	c.mu.Lock()
	c.states = make(map[int64]*chatState)
	c.active = 0
	c.epoch++
	c.mu.Unlock()
}
