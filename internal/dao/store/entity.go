// Package store 参考网关的持久化层
// 表结构与远端网关一致：users、contacts、chats、chat_participants、groups、group_members、messages
package store

import "time"

// 会话类型，与 JSON 中的 type 字段一致
const (
	ChatTypePrivate = "private"
	ChatTypeGroup   = "group"
	ChatTypeAI      = "ai"
)

// 群成员角色
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User 用户表，phone 唯一
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Phone     string `gorm:"size:32;not null;uniqueIndex"`
	Name      string `gorm:"size:64;not null"`
	Avatar    string `gorm:"size:16"`
	IsOnline  bool   `gorm:"not null;default:false"`
	LastSeen  *time.Time
	CreatedAt time.Time
}

func (User) TableName() string { return "users" }

// Contact 联系人关系（单向），(user_id, contact_user_id) 唯一
type Contact struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	UserID        int64 `gorm:"not null;uniqueIndex:idx_contact_pair"`
	ContactUserID int64 `gorm:"not null;uniqueIndex:idx_contact_pair"`
	CreatedAt     time.Time
}

func (Contact) TableName() string { return "contacts" }

// Chat 会话表，群聊通过 group_id 关联 groups
type Chat struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Type      string `gorm:"size:16;not null;index"`
	GroupID   *int64 `gorm:"index"`
	CreatedAt time.Time
}

func (Chat) TableName() string { return "chats" }

// ChatParticipant 会话参与者
type ChatParticipant struct {
	ChatID   int64 `gorm:"primaryKey"`
	UserID   int64 `gorm:"primaryKey;index"`
	JoinedAt time.Time
}

func (ChatParticipant) TableName() string { return "chat_participants" }

// Group 群组信息
type Group struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:64;not null"`
	Description string `gorm:"size:255"`
	Avatar      string `gorm:"size:16"`
	CreatedBy   int64  `gorm:"not null"`
	CreatedAt   time.Time
}

func (Group) TableName() string { return "groups" }

// GroupMember 群成员，创建者为 admin
type GroupMember struct {
	GroupID  int64  `gorm:"primaryKey"`
	UserID   int64  `gorm:"primaryKey"`
	Role     string `gorm:"size:16;not null"`
	JoinedAt time.Time
}

func (GroupMember) TableName() string { return "group_members" }

// Message 消息表
// ID 由雪花算法生成，SenderID 为空表示 AI 消息
type Message struct {
	ID             int64  `gorm:"primaryKey;autoIncrement:false"`
	ChatID         int64  `gorm:"not null;index:idx_chat_created,priority:1"`
	SenderID       *int64 `gorm:"index"`
	Content        string `gorm:"type:text"`
	IsAI           bool   `gorm:"not null;default:false"`
	AttachmentURL  string `gorm:"size:512"`
	AttachmentType string `gorm:"size:128"`
	AttachmentName string `gorm:"size:255"`
	AttachmentSize int64
	CreatedAt      time.Time `gorm:"index:idx_chat_created,priority:2"`
}

func (Message) TableName() string { return "messages" }
