package request

// AIResponseRequest 请求 AI 回复
type AIResponseRequest struct {
	Action  string `json:"action"`
	Message string `json:"message" binding:"required"`
}
