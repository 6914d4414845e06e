package store

import "time"

// UserRepository 用户数据访问接口
type UserRepository interface {
	// FindByID 按 ID 查找用户
	FindByID(id int64) (*User, error)
	// FindByPhone 按手机号查找用户
	FindByPhone(phone string) (*User, error)
	// FindByIDs 批量查找用户
	FindByIDs(ids []int64) ([]User, error)
	// Upsert 按手机号注册，已存在时只更新名称
	Upsert(phone, name, avatar string) (*User, error)
	// UpdateOnline 更新在线状态和最后在线时间
	UpdateOnline(id int64, online bool, at time.Time) error
}

// ContactRepository 联系人数据访问接口
type ContactRepository interface {
	// Add 添加联系人，重复添加不报错
	Add(userID, contactUserID int64) error
	// ListUsers 用户的联系人，按名称排序
	ListUsers(userID int64) ([]User, error)
}

// ChatRepository 会话数据访问接口
type ChatRepository interface {
	// FindByID 按 ID 查找会话
	FindByID(id int64) (*Chat, error)
	// FindPrivate 查找两人之间的私聊
	FindPrivate(userID, peerID int64) (*Chat, error)
	// FindAI 查找用户的 AI 会话
	FindAI(userID int64) (*Chat, error)
	// Create 创建会话并写入参与者
	Create(chat *Chat, participantIDs []int64) error
	// ListForUser 用户参与的全部会话
	ListForUser(userID int64) ([]Chat, error)
	// Participants 会话参与者 ID
	Participants(chatID int64) ([]int64, error)
}

// GroupRepository 群组数据访问接口
type GroupRepository interface {
	// FindByID 按 ID 查找群组
	FindByID(id int64) (*Group, error)
	// FindByIDs 批量查找群组
	FindByIDs(ids []int64) ([]Group, error)
	// Create 创建群组，创建者为管理员，其余为普通成员
	Create(group *Group, memberIDs []int64) error
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// Create 写入消息，ID 由调用方生成
	Create(msg *Message) error
	// ListByChat 会话的全部消息，按 (created_at, id) 升序
	ListByChat(chatID int64) ([]Message, error)
	// LastByChat 会话的最后一条消息，没有消息时返回 nil
	LastByChat(chatID int64) (*Message, error)
}
