package respond

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// timestampLayouts 网关可能返回的时间格式，依次尝试
// 小数秒在解析时总是可选的，不需要单独列出
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp 宽松解析的 JSON 时间
// 接受 RFC 3339，也接受空格分隔、不带时区的写法（按 UTC 处理）；输出统一为 RFC 3339
type Timestamp struct {
	time.Time
}

// NewTimestamp 包装 t
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// TimestampOf nil 保持为 nil
func TimestampOf(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	return NewTimestamp(*t)
}

// TimePtr nil 接收者返回 nil
func (t *Timestamp) TimePtr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

// ParseTimestamp 按 timestampLayouts 解析，不带时区的时间视为 UTC
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return t.Time.MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp must be a JSON string, got %s", data)
	}
	s = string(data[1 : len(data)-1])
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
