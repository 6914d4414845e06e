package request

// UpdateStatusRequest 上报在线状态
type UpdateStatusRequest struct {
	Action   string `json:"action"`
	UserID   int64  `json:"user_id" binding:"required,gt=0"`
	IsOnline bool   `json:"is_online"`
}
