package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"irportal/internal/config"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 或兼容的存储后端。
	TypeS3 = "s3"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
	// TypeR2 表示 Cloudflare R2 存储。
	TypeR2 = "r2"
)

// ErrNotFound 表示对象不存在。
var ErrNotFound = errors.New("storage: object not found")

// SaveOptions 控制存储后端如何持久化文件。
//
// Category 用于组织对象路径，Extension 为不含前导点的扩展名，BaseName 为文件名主体。
type SaveOptions struct {
	Category  string
	Extension string
	BaseName  string
}

// Storage 持久化证明文件并返回存储键（本地存储为相对路径）。
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewStorage 根据配置实例化存储后端。
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

// ContentTypeFor 根据存储键的扩展名推断 MIME 类型。
func ContentTypeFor(key string) string {
	idx := strings.LastIndex(key, ".")
	if idx < 0 {
		return detectContentType("")
	}
	return detectContentType(key[idx+1:])
}
