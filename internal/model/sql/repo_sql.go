package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicate 唯一约束冲突
var ErrDuplicate = errors.New("duplicate record")

const pgUniqueViolation = "23505"

// Migrator applies the schema for a given connection.
type Migrator func(ctx context.Context, db *gorm.DB) error

// GormRepository implements Repository using GORM
type GormRepository struct {
	db      *gorm.DB
	migrate Migrator
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB, migrate Migrator) *GormRepository {
	return &GormRepository{db: db, migrate: migrate}
}

// Migrate applies pending schema changes.
func (r *GormRepository) Migrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if r.migrate == nil {
		return nil
	}
	return r.migrate(ctx, r.db)
}

// Close releases the underlying connection pool.
func (r *GormRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// supportsRowLocks reports whether SELECT ... FOR UPDATE is meaningful for the dialect.
func (r *GormRepository) supportsRowLocks() bool {
	return r.db.Dialector.Name() != "sqlite"
}

// classifyError 将各驱动的唯一约束错误统一为 ErrDuplicate
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate entry")
}
