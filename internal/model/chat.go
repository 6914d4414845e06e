package model

import "time"

// ChatKind 会话类型
type ChatKind string

const (
	ChatPrivate ChatKind = "private" // 两个用户
	ChatGroup   ChatKind = "group"   // 创建者 + 成员
	ChatAI      ChatKind = "ai"      // 一个用户 + 助手
)

// Valid 是否为已知类型
func (k ChatKind) Valid() bool {
	switch k {
	case ChatPrivate, ChatGroup, ChatAI:
		return true
	}
	return false
}

// Chat 会话列表中的一项，名称和头像由网关按查看者计算
type Chat struct {
	ID                 int64
	Kind               ChatKind
	Name               string
	Avatar             string
	LastMessagePreview string
	LastMessageAt      *time.Time
}
