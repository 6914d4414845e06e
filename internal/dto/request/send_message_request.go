package request

// SendMessageRequest 发送消息
// SenderID 为 nil 时序列化为 null，表示 AI 消息
// 使用位置:
//   - internal/gateway: Client.SendMessage
//   - internal/devgateway: Handler.sendMessage, service.SendMessage
type SendMessageRequest struct {
	Action         string `json:"action"`
	ChatID         int64  `json:"chat_id" binding:"required,gt=0"`
	SenderID       *int64 `json:"sender_id"`
	Content        string `json:"content" binding:"required_without=AttachmentURL"`
	IsAI           bool   `json:"is_ai,omitempty"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
	AttachmentSize int64  `json:"attachment_size,omitempty" binding:"gte=0"`
	ShouldReply    bool   `json:"should_reply,omitempty"`
}
