package service

import (
	"context"
	"encoding/json"
	"strings"

	"chattix/internal/dao/store"
	"chattix/internal/dto/request"
	"chattix/internal/dto/respond"
	"chattix/pkg/constants"
	"chattix/pkg/errorx"

	"go.uber.org/zap"
)

// Messages 会话的完整历史，按 (created_at, id) 升序
// 命中缓存时直接返回，未命中时查库并回写
func (s *Service) Messages(ctx context.Context, chatID int64) ([]respond.MessageRespond, error) {
	if cached, err := s.cache.Get(ctx, chatID); err != nil {
		zap.L().Warn("read message cache failed", zap.Int64("chatID", chatID), zap.Error(err))
	} else if cached != "" {
		var out []respond.MessageRespond
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
		zap.L().Warn("drop corrupt message cache", zap.Int64("chatID", chatID))
	}

	repos := s.repos.WithContext(ctx)
	if _, err := repos.Chat.FindByID(chatID); err != nil {
		return nil, err
	}
	rows, err := repos.Message.ListByChat(chatID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]int64, 0, len(rows))
	for _, m := range rows {
		if m.SenderID != nil {
			senderIDs = append(senderIDs, *m.SenderID)
		}
	}
	senders, err := repos.User.FindByIDs(dedupIDs(senderIDs, 0))
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*store.User, len(senders))
	for i := range senders {
		byID[senders[i].ID] = &senders[i]
	}

	out := make([]respond.MessageRespond, 0, len(rows))
	for _, m := range rows {
		var sender *store.User
		if m.SenderID != nil {
			sender = byID[*m.SenderID]
		}
		out = append(out, toMessageRespond(m, sender))
	}

	if data, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, chatID, string(data)); err != nil {
			zap.L().Warn("write message cache failed", zap.Int64("chatID", chatID), zap.Error(err))
		}
	}
	return out, nil
}

// SendMessage 写入一条消息
// sender_id 为 null 表示 AI 消息；should_reply 且为 AI 会话时同步生成回复并随响应返回
func (s *Service) SendMessage(ctx context.Context, req *request.SendMessageRequest) (respond.SendMessageRespond, error) {
	repos := s.repos.WithContext(ctx)
	chat, err := repos.Chat.FindByID(req.ChatID)
	if err != nil {
		return respond.SendMessageRespond{}, err
	}
	var sender *store.User
	if req.SenderID != nil {
		if sender, err = repos.User.FindByID(*req.SenderID); err != nil {
			return respond.SendMessageRespond{}, err
		}
	}

	msg := &store.Message{
		ID:             s.ids.Next(),
		ChatID:         chat.ID,
		SenderID:       req.SenderID,
		Content:        req.Content,
		IsAI:           req.IsAI || req.SenderID == nil,
		AttachmentURL:  req.AttachmentURL,
		AttachmentType: req.AttachmentType,
		AttachmentName: req.AttachmentName,
		AttachmentSize: req.AttachmentSize,
		CreatedAt:      s.timestamp(),
	}
	if msg.AttachmentURL != "" && msg.AttachmentType == "" {
		msg.AttachmentType = constants.DEFAULT_MIME_TYPE
	}
	if err := repos.Message.Create(msg); err != nil {
		return respond.SendMessageRespond{}, err
	}
	s.invalidate(ctx, chat.ID)

	out := respond.SendMessageRespond{Message: toMessageRespond(*msg, sender)}
	if req.ShouldReply && !msg.IsAI && chat.Type == store.ChatTypeAI && strings.TrimSpace(req.Content) != "" {
		out.AIReply = s.reply(ctx, repos, chat.ID, req.Content)
	}
	return out, nil
}

// reply 生成并保存 AI 回复，任何失败都只记录日志
func (s *Service) reply(ctx context.Context, repos *store.Repositories, chatID int64, prompt string) *respond.MessageRespond {
	text, err := s.responder.Reply(ctx, prompt)
	if err != nil {
		zap.L().Warn("ai responder failed", zap.Int64("chatID", chatID), zap.Error(err))
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	msg := &store.Message{
		ID:        s.ids.Next(),
		ChatID:    chatID,
		Content:   text,
		IsAI:      true,
		CreatedAt: s.timestamp(),
	}
	if err := repos.Message.Create(msg); err != nil {
		zap.L().Warn("persist ai reply failed", zap.Int64("chatID", chatID), zap.Error(err))
		return nil
	}
	s.invalidate(ctx, chatID)
	reply := toMessageRespond(*msg, nil)
	return &reply
}

// AIResponse 只生成回复文本，不写库
func (s *Service) AIResponse(ctx context.Context, prompt string) (string, error) {
	text, err := s.responder.Reply(ctx, prompt)
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "ai responder failed")
	}
	return text, nil
}
