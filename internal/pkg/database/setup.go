package database

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
)

// DB 全局数据库连接
var DB *gorm.DB

// Setup 初始化数据库连接和迁移
func Setup() error {
	db, err := Open(config.GlobalConfig.Database)
	if err != nil {
		return err
	}
	DB = db

	return Migrate(DB)
}

// Open 按驱动类型建立连接
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
		)
		dialector = mysql.Open(dsn)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	// 内存库每个连接都是独立的数据库
	if cfg.Driver == "sqlite" && strings.Contains(cfg.Path, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate 自动迁移所有表
func Migrate(db *gorm.DB) error {
	tables := []struct {
		name  string
		model interface{}
	}{
		{"users", &model.User{}},
		{"categories", &model.Category{}},
		{"forms", &model.Form{}},
		{"attachments", &model.Attachment{}},
		{"submissions", &model.Submission{}},
		{"canned_responses", &model.CannedResponse{}},
		{"admin_login_logs", &model.AdminLoginLog{}},
	}

	for _, t := range tables {
		if err := db.AutoMigrate(t.model); err != nil {
			logger.L().Error("数据表迁移失败", zap.String("table", t.name), zap.Error(err))
			return fmt.Errorf("failed to migrate %s: %w", t.name, err)
		}
	}
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
