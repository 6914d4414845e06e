package respond

import "chattix/internal/model"

// ChatRespond 会话列表项
type ChatRespond struct {
	ID              int64      `json:"id"`
	Type            string     `json:"type"`
	Name            string     `json:"name"`
	Avatar          string     `json:"avatar"`
	LastMessage     *string    `json:"last_message"`
	LastMessageTime *Timestamp `json:"last_message_time"`
}

func (c ChatRespond) ToModel() model.Chat {
	chat := model.Chat{
		ID:            c.ID,
		Kind:          model.ChatKind(c.Type),
		Name:          c.Name,
		Avatar:        c.Avatar,
		LastMessageAt: c.LastMessageTime.TimePtr(),
	}
	if c.LastMessage != nil {
		chat.LastMessagePreview = *c.LastMessage
	}
	return chat
}

// ChatsRespond GET chats，顺序由网关决定
type ChatsRespond struct {
	Chats []ChatRespond `json:"chats"`
}

func (r ChatsRespond) ToModel() []model.Chat {
	out := make([]model.Chat, 0, len(r.Chats))
	for _, c := range r.Chats {
		out = append(out, c.ToModel())
	}
	return out
}

// CreateChatRespond POST create_chat
type CreateChatRespond struct {
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

// CreateGroupRespond POST create_group
type CreateGroupRespond struct {
	ChatID  int64 `json:"chat_id"`
	GroupID int64 `json:"group_id"`
}
