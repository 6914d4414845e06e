package request

// CreateGroupRequest 创建群组，创建者自动成为管理员
type CreateGroupRequest struct {
	Action      string  `json:"action"`
	Name        string  `json:"name" binding:"required,max=64"`
	Description string  `json:"description"`
	Avatar      string  `json:"avatar"`
	CreatedBy   int64   `json:"created_by" binding:"required,gt=0"`
	MemberIDs   []int64 `json:"member_ids" binding:"required,min=1,dive,gt=0"`
}
