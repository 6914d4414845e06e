package model

import (
	"sort"
	"time"
)

// Attachment 已上传的附件描述
type Attachment struct {
	URL       string
	MimeType  string
	Name      string
	SizeBytes int64
}

// Message 消息，创建后不可变
// SenderID 为 nil 表示系统或 AI 消息
type Message struct {
	ID           int64
	ChatID       int64
	SenderID     *int64
	SenderName   string
	SenderAvatar string
	Content      string
	Attachment   *Attachment
	IsAI         bool
	CreatedAt    time.Time
}

// Less 排序键 (CreatedAt, ID) 升序
func (m Message) Less(o Message) bool {
	if !m.CreatedAt.Equal(o.CreatedAt) {
		return m.CreatedAt.Before(o.CreatedAt)
	}
	return m.ID < o.ID
}

// SortMessages 原地按 (CreatedAt, ID) 排序
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Less(msgs[j]) })
}

// IsSorted 序列是否按 (CreatedAt, ID) 非递减
func IsSorted(msgs []Message) bool {
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Less(msgs[i-1]) {
			return false
		}
	}
	return true
}

// Int64Ptr 便于构造 SenderID
func Int64Ptr(v int64) *int64 {
	return &v
}
