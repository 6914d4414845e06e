package request

// AddContactRequest 添加联系人（幂等）
type AddContactRequest struct {
	Action        string `json:"action"`
	UserID        int64  `json:"user_id" binding:"required,gt=0"`
	ContactUserID int64  `json:"contact_user_id" binding:"required,gt=0,nefield=UserID"`
}
