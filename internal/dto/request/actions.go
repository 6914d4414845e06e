// Package request 定义发往网关的请求体
// binding 标签同时被参考网关（gin 绑定）和客户端（Validate）使用
package request

// POST 请求的 action 取值
const (
	ActionRegister           = "register"
	ActionSendMessage        = "send_message"
	ActionAIResponse         = "ai_response"
	ActionCreateChat         = "create_chat"
	ActionCreateGroup        = "create_group"
	ActionAddContact         = "add_contact"
	ActionUpdateOnlineStatus = "update_online_status"
	ActionUpdateStatus       = "update_status" // update_online_status 的别名
)

// GET 请求的 path 取值
const (
	PathChats      = "chats"
	PathContacts   = "contacts"
	PathMessages   = "messages"
	PathSearchUser = "search_user"
)

// ActionEnvelope 只解析 action 字段，用于分发
type ActionEnvelope struct {
	Action string `json:"action" binding:"required"`
}
