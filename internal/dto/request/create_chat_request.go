package request

// CreateChatRequest 创建私聊或 AI 会话
// 私聊 Members 恰好为 [当前用户, 对方]，AI 会话为 [当前用户]
type CreateChatRequest struct {
	Action  string  `json:"action"`
	Name    string  `json:"name"`
	IsGroup bool    `json:"is_group"`
	Members []int64 `json:"members" binding:"required,min=1,max=2,dive,gt=0"`
	IsAI    bool    `json:"is_ai,omitempty"`
}
