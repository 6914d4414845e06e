package store

import (
	"fmt"
	"log"
	"os"
	"time"

	"chattix/internal/config"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open 按配置建立数据库连接，迁移表结构并返回 Repository 集合
// 支持 sqlite（默认，Path 为 ":memory:" 时使用内存库）和 mysql
func Open(cfg config.DBConfig) (*Repositories, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "chattix.db"
		}
		dialector = sqlite.Open(path)
	case "mysql":
		// 格式：user:password@tcp(host:port)/database?params
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DatabaseName,
		)
		dialector = mysqldriver.Open(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}

	// 1. 打开连接
	// 为什么：慢查询和错误交给 gorm 自带的 logger 打到 stderr，RecordNotFound 是正常分支，不记
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Driver, err)
	}

	// 2. 连接池配置
	if dialector.Name() == "sqlite" {
		// sqlite 单写者；内存库每个连接是独立的库，必须只保留一个连接
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store: sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// 3. 迁移表结构
	if err := Migrate(db); err != nil {
		return nil, err
	}
	zap.L().Info("store opened", zap.String("driver", dialector.Name()))
	return NewRepositories(db), nil
}

// Migrate 自动迁移表结构
// 表不存在则创建，字段变更则更新，不会删除已有字段或数据
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Contact{},
		&Chat{},
		&ChatParticipant{},
		&Group{},
		&GroupMember{},
		&Message{},
	)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}
