package store

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository 创建联系人 Repository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Add(userID, contactUserID int64) error {
	contact := Contact{UserID: userID, ContactUserID: contactUserID}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&contact).Error; err != nil {
		return wrapDBErrorf(err, "添加联系人 %d -> %d", userID, contactUserID)
	}
	return nil
}

func (r *contactRepository) ListUsers(userID int64) ([]User, error) {
	var users []User
	err := r.db.Model(&User{}).
		Joins("JOIN contacts ON contacts.contact_user_id = users.id").
		Where("contacts.user_id = ?", userID).
		Order("users.name ASC").Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询联系人 user=%d", userID)
	}
	return users, nil
}
