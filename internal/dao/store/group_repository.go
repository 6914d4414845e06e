package store

import (
	"time"

	"gorm.io/gorm"
)

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository 创建群组 Repository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) FindByID(id int64) (*Group, error) {
	var group Group
	if err := r.db.First(&group, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询群组 id=%d", id)
	}
	return &group, nil
}

func (r *groupRepository) FindByIDs(ids []int64) ([]Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var groups []Group
	if err := r.db.Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, wrapDBError(err, "批量查询群组")
	}
	return groups, nil
}

func (r *groupRepository) Create(group *Group, memberIDs []int64) error {
	if err := r.db.Create(group).Error; err != nil {
		return wrapDBError(err, "创建群组")
	}
	now := time.Now().UTC()
	rows := []GroupMember{{GroupID: group.ID, UserID: group.CreatedBy, Role: RoleAdmin, JoinedAt: now}}
	for _, id := range memberIDs {
		if id == group.CreatedBy {
			continue
		}
		rows = append(rows, GroupMember{GroupID: group.ID, UserID: id, Role: RoleMember, JoinedAt: now})
	}
	if err := r.db.Create(&rows).Error; err != nil {
		return wrapDBErrorf(err, "写入群成员 group=%d", group.ID)
	}
	return nil
}
