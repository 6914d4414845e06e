package service

import (
	"context"
	"strings"
)

// Responder 生成 AI 回复，返回空字符串表示不回复
type Responder interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

// ResponderFunc 函数适配器
type ResponderFunc func(ctx context.Context, prompt string) (string, error)

func (f ResponderFunc) Reply(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// EchoResponder 本地开发用的固定回复
type EchoResponder struct{}

func (EchoResponder) Reply(_ context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", nil
	}
	return "You said: " + prompt, nil
}
