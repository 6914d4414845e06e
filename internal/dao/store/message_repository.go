package store

import (
	"errors"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(msg *Message) error {
	if err := r.db.Create(msg).Error; err != nil {
		return wrapDBErrorf(err, "写入消息 chat=%d", msg.ChatID)
	}
	return nil
}

func (r *messageRepository) ListByChat(chatID int64) ([]Message, error) {
	var messages []Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询消息 chat=%d", chatID)
	}
	return messages, nil
}

func (r *messageRepository) LastByChat(chatID int64) (*Message, error) {
	var msg Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("created_at DESC").Order("id DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBErrorf(err, "查询最后一条消息 chat=%d", chatID)
	}
	return &msg, nil
}
