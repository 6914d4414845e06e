package respond

import "chattix/internal/model"

// MessageRespond 消息
type MessageRespond struct {
	ID             int64     `json:"id"`
	ChatID         int64     `json:"chat_id"`
	SenderID       *int64    `json:"sender_id"`
	Content        string    `json:"content"`
	IsAI           bool      `json:"is_ai"`
	CreatedAt      Timestamp `json:"created_at"`
	AttachmentURL  *string   `json:"attachment_url"`
	AttachmentType *string   `json:"attachment_type"`
	AttachmentName *string   `json:"attachment_name"`
	AttachmentSize *int64    `json:"attachment_size"`
	SenderName     *string   `json:"sender_name"`
	SenderAvatar   *string   `json:"sender_avatar"`
}

func (m MessageRespond) ToModel() model.Message {
	msg := model.Message{
		ID:           m.ID,
		ChatID:       m.ChatID,
		SenderID:     m.SenderID,
		SenderName:   deref(m.SenderName),
		SenderAvatar: deref(m.SenderAvatar),
		Content:      m.Content,
		IsAI:         m.IsAI,
		CreatedAt:    m.CreatedAt.Time,
	}
	if url := deref(m.AttachmentURL); url != "" {
		msg.Attachment = &model.Attachment{
			URL:      url,
			MimeType: deref(m.AttachmentType),
			Name:     deref(m.AttachmentName),
		}
		if m.AttachmentSize != nil {
			msg.Attachment.SizeBytes = *m.AttachmentSize
		}
	}
	return msg
}

// FromMessage model.Message -> MessageRespond
func FromMessage(m model.Message) MessageRespond {
	out := MessageRespond{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		IsAI:      m.IsAI,
		CreatedAt: Timestamp{Time: m.CreatedAt},
	}
	if m.SenderName != "" {
		out.SenderName = &m.SenderName
	}
	if m.SenderAvatar != "" {
		out.SenderAvatar = &m.SenderAvatar
	}
	if a := m.Attachment; a != nil {
		out.AttachmentURL = &a.URL
		out.AttachmentType = &a.MimeType
		out.AttachmentName = &a.Name
		out.AttachmentSize = &a.SizeBytes
	}
	return out
}

// MessagesRespond GET messages
type MessagesRespond struct {
	Messages []MessageRespond `json:"messages"`
}

func (r MessagesRespond) ToModel() []model.Message {
	out := make([]model.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		out = append(out, m.ToModel())
	}
	return out
}

// SendMessageRespond POST send_message，should_reply 时附带 ai_reply
type SendMessageRespond struct {
	Message MessageRespond  `json:"message"`
	AIReply *MessageRespond `json:"ai_reply,omitempty"`
}

// AIResponseRespond POST ai_response
type AIResponseRespond struct {
	Response string `json:"response"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
