package store

import (
	"context"

	"gorm.io/gorm"
)

// Repositories 聚合所有 Repository 实例
// 参考网关的 service 通过此结构访问数据层
type Repositories struct {
	db      *gorm.DB
	User    UserRepository
	Contact ContactRepository
	Chat    ChatRepository
	Group   GroupRepository
	Message MessageRepository
}

// NewRepositories 基于同一个 db 创建全部 Repository
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:      db,
		User:    NewUserRepository(db),
		Contact: NewContactRepository(db),
		Chat:    NewChatRepository(db),
		Group:   NewGroupRepository(db),
		Message: NewMessageRepository(db),
	}
}

// WithContext 返回绑定 ctx 的 Repository 集合，请求取消时查询随之取消
func (r *Repositories) WithContext(ctx context.Context) *Repositories {
	return NewRepositories(r.db.WithContext(ctx))
}

// Transaction 在数据库事务中执行函数
// fn 内只能使用 txRepos，出错时整体回滚
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Close 关闭底层连接池
func (r *Repositories) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
