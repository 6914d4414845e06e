// Package respond 定义网关返回的 JSON 结构以及到领域模型的转换
package respond

import "chattix/internal/model"

// UserRespond 用户
type UserRespond struct {
	ID       int64      `json:"id"`
	Phone    string     `json:"phone"`
	Name     string     `json:"name"`
	Avatar   string     `json:"avatar"`
	IsOnline bool       `json:"is_online"`
	LastSeen *Timestamp `json:"last_seen"`
}

func (u UserRespond) ToModel() model.User {
	return model.User{
		ID:         u.ID,
		Phone:      u.Phone,
		Name:       u.Name,
		Avatar:     u.Avatar,
		IsOnline:   u.IsOnline,
		LastSeenAt: u.LastSeen.TimePtr(),
	}
}

// FromUser model.User -> UserRespond
func FromUser(u model.User) UserRespond {
	return UserRespond{
		ID:       u.ID,
		Phone:    u.Phone,
		Name:     u.Name,
		Avatar:   u.Avatar,
		IsOnline: u.IsOnline,
		LastSeen: TimestampOf(u.LastSeenAt),
	}
}

// RegisterRespond POST register
type RegisterRespond struct {
	User UserRespond `json:"user"`
}

// SearchUserRespond GET search_user，未找到时 user 缺省
type SearchUserRespond struct {
	User *UserRespond `json:"user,omitempty"`
}

// ContactsRespond GET contacts
type ContactsRespond struct {
	Contacts []UserRespond `json:"contacts"`
}

// ToModel 包装为 ownerID 的联系人列表（已去重）
func (r ContactsRespond) ToModel(ownerID int64) []model.Contact {
	out := make([]model.Contact, 0, len(r.Contacts))
	for _, u := range r.Contacts {
		out = append(out, model.Contact{OwnerID: ownerID, Contact: u.ToModel()})
	}
	return model.DedupContacts(out)
}
