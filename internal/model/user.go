// Package model 定义客户端同步引擎使用的领域模型
// 与线上 JSON 字段解耦，转换见 internal/dto/respond
package model

import "time"

// User 用户
// IsOnline / LastSeenAt 只随网关数据变化（心跳驱动的联系人刷新）
type User struct {
	ID         int64
	Phone      string // 唯一且不可修改
	Name       string
	Avatar     string // 单个字符或 emoji
	IsOnline   bool
	LastSeenAt *time.Time
}

// Contact 有向联系人关系，同一 (OwnerID, Contact.ID) 至多一条
type Contact struct {
	OwnerID int64
	Contact User
}

// DedupContacts 按联系人 ID 去重，保留首次出现的顺序
func DedupContacts(contacts []Contact) []Contact {
	seen := make(map[int64]struct{}, len(contacts))
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if _, ok := seen[c.Contact.ID]; ok {
			continue
		}
		seen[c.Contact.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
