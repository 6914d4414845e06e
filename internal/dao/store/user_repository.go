package store

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(id int64) (*User, error) {
	var user User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 id=%d", id)
	}
	return &user, nil
}

func (r *userRepository) FindByPhone(phone string) (*User, error) {
	var user User
	if err := r.db.First(&user, "phone = ?", phone).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 phone=%s", phone)
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ids []int64) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户")
	}
	return users, nil
}

func (r *userRepository) Upsert(phone, name, avatar string) (*User, error) {
	user := User{Phone: phone, Name: name, Avatar: avatar}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&user).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "注册用户 phone=%s", phone)
	}
	// 冲突更新时部分驱动不回填主键，重新读取
	return r.FindByPhone(phone)
}

func (r *userRepository) UpdateOnline(id int64, online bool, at time.Time) error {
	res := r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]any{
		"is_online": online,
		"last_seen": at,
	})
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "更新在线状态 id=%d", id)
	}
	if res.RowsAffected == 0 {
		return wrapDBErrorf(gorm.ErrRecordNotFound, "更新在线状态 id=%d", id)
	}
	return nil
}
