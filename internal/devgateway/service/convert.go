package service

import (
	"chattix/internal/dao/store"
	"chattix/internal/dto/respond"
)

func toUserRespond(u store.User) respond.UserRespond {
	return respond.UserRespond{
		ID:       u.ID,
		Phone:    u.Phone,
		Name:     u.Name,
		Avatar:   u.Avatar,
		IsOnline: u.IsOnline,
		LastSeen: respond.TimestampOf(u.LastSeen),
	}
}

// toMessageRespond sender 为空时 sender_name/sender_avatar 输出 null
func toMessageRespond(m store.Message, sender *store.User) respond.MessageRespond {
	out := respond.MessageRespond{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		IsAI:      m.IsAI,
		CreatedAt: respond.Timestamp{Time: m.CreatedAt},
	}
	if sender != nil {
		out.SenderName = &sender.Name
		out.SenderAvatar = &sender.Avatar
	}
	if m.AttachmentURL != "" {
		out.AttachmentURL = &m.AttachmentURL
		out.AttachmentType = &m.AttachmentType
		out.AttachmentName = &m.AttachmentName
		out.AttachmentSize = &m.AttachmentSize
	}
	return out
}
