package model

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"irportal/internal/config"
	"irportal/internal/entity/db"
	"irportal/internal/model/migrations"
	"irportal/internal/model/sql"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// RepositoryFactory 根据数据库类型创建对应的仓库实现
type RepositoryFactory struct{}

// NewRepositoryFactory 创建新的仓库工厂
func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

// InitRepository 创建仓库并应用迁移
func InitRepository(ctx context.Context, cfg *config.Config) (Repository, error) {
	repo, err := NewRepositoryFactory().CreateRepository(cfg)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return repo, nil
}

// CreateRepository 根据配置创建对应的仓库实现，不执行迁移
func (f *RepositoryFactory) CreateRepository(cfg *config.Config) (Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	switch cfg.DBType {
	case config.DBTypeMySQL:
		return f.createMySQLRepository(cfg)
	case config.DBTypeSQLite:
		return f.createSQLiteRepository(cfg)
	case config.DBTypePostgres:
		return f.createPostgresRepository(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// createMySQLRepository 创建 MySQL 仓库
func (f *RepositoryFactory) createMySQLRepository(cfg *config.Config) (Repository, error) {
	gdb, err := f.openGormDB(mysql.Open(cfg.DSNURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return sql.NewGormRepository(gdb, autoMigrate), nil
}

// createSQLiteRepository 创建 SQLite 仓库
func (f *RepositoryFactory) createSQLiteRepository(cfg *config.Config) (Repository, error) {
	filePath := cfg.DBPath
	if filePath == "" {
		filePath = "datas/irportal.db"
	}

	// SQLite 会在连接时自动创建 .db 文件，但前提是目录已存在
	if dir := filepath.Dir(filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	gdb, err := f.openGormDB(sqlite.Open(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	return sql.NewGormRepository(gdb, autoMigrate), nil
}

// createPostgresRepository 创建 PostgreSQL 仓库，表结构由 goose 迁移维护
func (f *RepositoryFactory) createPostgresRepository(cfg *config.Config) (Repository, error) {
	gdb, err := f.openGormDB(postgres.Open(cfg.DSNURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return sql.NewGormRepository(gdb, gooseMigrate), nil
}

func (f *RepositoryFactory) openGormDB(dialector gorm.Dialector) (*gorm.DB, error) {
	// 配置 GORM 日志
	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second * 5,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormLogger,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}

	// 配置连接池
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gdb, nil
}

// autoMigrate 用于 SQLite/MySQL 的表结构迁移
func autoMigrate(ctx context.Context, gdb *gorm.DB) error {
	return gdb.WithContext(ctx).AutoMigrate(
		&db.User{},
		&db.InvestorApplication{},
		&db.AdminAction{},
		&db.Session{},
		&db.PasswordResetToken{},
		&db.NewsletterSignup{},
	)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, conn *stdsql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, conn, dir, opts...)
}

// gooseMigrate 使用内嵌的 SQL 迁移文件升级 PostgreSQL
func gooseMigrate(ctx context.Context, gdb *gorm.DB) error {
	conn, err := gdb.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseUpContext(ctx, conn, ".")
}
