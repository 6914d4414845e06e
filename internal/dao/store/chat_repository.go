package store

import (
	"time"

	"gorm.io/gorm"
)

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建会话 Repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindByID(id int64) (*Chat, error) {
	var chat Chat
	if err := r.db.First(&chat, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 id=%d", id)
	}
	return &chat, nil
}

func (r *chatRepository) FindPrivate(userID, peerID int64) (*Chat, error) {
	var chat Chat
	err := r.db.Model(&Chat{}).
		Joins("JOIN chat_participants p1 ON p1.chat_id = chats.id AND p1.user_id = ?", userID).
		Joins("JOIN chat_participants p2 ON p2.chat_id = chats.id AND p2.user_id = ?", peerID).
		Where("chats.type = ?", ChatTypePrivate).
		Order("chats.id ASC").
		First(&chat).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询私聊 %d/%d", userID, peerID)
	}
	return &chat, nil
}

func (r *chatRepository) FindAI(userID int64) (*Chat, error) {
	var chat Chat
	err := r.db.Model(&Chat{}).
		Joins("JOIN chat_participants p ON p.chat_id = chats.id AND p.user_id = ?", userID).
		Where("chats.type = ?", ChatTypeAI).
		Order("chats.id ASC").
		First(&chat).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询 AI 会话 user=%d", userID)
	}
	return &chat, nil
}

func (r *chatRepository) Create(chat *Chat, participantIDs []int64) error {
	if err := r.db.Create(chat).Error; err != nil {
		return wrapDBError(err, "创建会话")
	}
	if len(participantIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]ChatParticipant, 0, len(participantIDs))
	for _, id := range participantIDs {
		rows = append(rows, ChatParticipant{ChatID: chat.ID, UserID: id, JoinedAt: now})
	}
	if err := r.db.Create(&rows).Error; err != nil {
		return wrapDBErrorf(err, "写入会话参与者 chat=%d", chat.ID)
	}
	return nil
}

func (r *chatRepository) ListForUser(userID int64) ([]Chat, error) {
	var chats []Chat
	err := r.db.Model(&Chat{}).
		Joins("JOIN chat_participants p ON p.chat_id = chats.id").
		Where("p.user_id = ?", userID).
		Order("chats.id ASC").
		Find(&chats).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询会话列表 user=%d", userID)
	}
	return chats, nil
}

func (r *chatRepository) Participants(chatID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&ChatParticipant{}).
		Where("chat_id = ?", chatID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询会话参与者 chat=%d", chatID)
	}
	return ids, nil
}
