package request

// GET 请求的查询参数，json 标签只用于校验错误中的字段名

// PathQuery 只解析 path，用于分发
type PathQuery struct {
	Path string `form:"path" json:"path" binding:"required"`
}

// UserQuery ?path=chats|contacts&user_id=
type UserQuery struct {
	UserID int64 `form:"user_id" json:"user_id" binding:"required,gt=0"`
}

// ChatQuery ?path=messages&chat_id=
type ChatQuery struct {
	ChatID int64 `form:"chat_id" json:"chat_id" binding:"required,gt=0"`
}

// PhoneQuery ?path=search_user&phone=
type PhoneQuery struct {
	Phone string `form:"phone" json:"phone" binding:"required,max=32"`
}
