package request

// RegisterRequest 注册（按手机号 upsert）
// 使用位置:
//   - internal/gateway: Client.Register
//   - internal/devgateway: Handler.register
type RegisterRequest struct {
	Action string `json:"action"`
	Phone  string `json:"phone" binding:"required,max=32"`
	Name   string `json:"name" binding:"max=64"`
	Avatar string `json:"avatar" binding:"max=16"`
}
