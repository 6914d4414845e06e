package constants

import "time"

const (
	CHANNEL_SIZE           = 100              // 事件总线通道大小
	WORKER_COUNT           = 4                // 后台刷新 worker 数量
	FILE_MAX_SIZE          = 10 << 20         // 附件最大大小（字节），10 MiB
	REDIS_TIMEOUT          = 1                // 消息列表缓存过期时间（分钟）
	REQUEST_TIMEOUT        = 15 * time.Second // 单次网关请求超时
	HEARTBEAT_INTERVAL     = 30 * time.Second // 在线状态心跳间隔
	OFFLINE_REPORT_TIMEOUT = 5 * time.Second  // 退出时离线上报的超时
)

const (
	DEFAULT_USER_NAME   = "User"                     // 注册时未填写名称的默认值
	DEFAULT_MIME_TYPE   = "application/octet-stream" // 未知附件类型
	AI_CHAT_LABEL       = "assistant"                // 客户端 AI 会话标题
	AI_CHAT_AVATAR      = "🤖"                        // AI 会话头像
	AI_CHAT_SERVER_NAME = "Chattik AI"               // 服务端为 AI 会话计算的名称
	GROUP_AVATAR        = "👥"                        // 群组默认头像
)

// 会话类型
const (
	CHAT_PRIVATE = "private"
	CHAT_GROUP   = "group"
	CHAT_AI      = "ai"
)
