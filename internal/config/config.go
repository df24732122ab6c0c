package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

const (
	DBTypeMySQL    = "mysql"
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"

	minJWTSecretLength = 32
)

type Config struct {
	HTTPPort       string        `env:"HTTP_PORT" envDefault:"8080"`
	PublicBaseURL  string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`

	DBType string `env:"DB_TYPE" envDefault:"postgres"`
	DSNURL string `env:"DSN_URL" envDefault:""`
	DBPath string `env:"DB_PATH" envDefault:"datas/irportal.db"`

	// 会话签名密钥没有默认值，缺失时拒绝启动
	JWTSecret     string        `env:"JWT_SECRET,required"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"irportal"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	CookieName    string        `env:"COOKIE_NAME" envDefault:"ir_session"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"true"`
	CookieDomain  string        `env:"COOKIE_DOMAIN" envDefault:""`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`

	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	NotifyWebhookURL    string        `env:"NOTIFY_WEBHOOK_URL" envDefault:""`
	NotifyWebhookSecret string        `env:"NOTIFY_WEBHOOK_SECRET" envDefault:""`
	NotifyTimeout       time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`

	// Stack Auth 身份提供方
	StackProjectID     string `env:"STACK_PROJECT_ID" envDefault:""`
	StackJWKSURL       string `env:"STACK_JWKS_URL" envDefault:""`
	StackIssuer        string `env:"STACK_ISSUER" envDefault:""`
	StackWebhookSecret string `env:"STACK_WEBHOOK_SECRET" envDefault:""`

	// Notion 只读镜像
	NotionToken           string `env:"NOTION_TOKEN" envDefault:""`
	NotionUsersDatabaseID string `env:"NOTION_USERS_DATABASE_ID" envDefault:""`
	NotionBaseURL         string `env:"NOTION_BASE_URL" envDefault:"https://api.notion.com"`

	StorageType      string `env:"STORAGE_TYPE" envDefault:"local"`
	StorageLocalDir  string `env:"STORAGE_LOCAL_DIR" envDefault:"datas/evidence"`
	EvidenceMaxBytes int64  `env:"EVIDENCE_MAX_BYTES" envDefault:"10485760"`

	// S3 兼容存储配置
	StorageS3Region          string `env:"STORAGE_S3_REGION"`
	StorageS3Bucket          string `env:"STORAGE_S3_BUCKET"`
	StorageS3Prefix          string `env:"STORAGE_S3_PREFIX"`
	StorageS3Endpoint        string `env:"STORAGE_S3_ENDPOINT"`
	StorageS3AccessKeyID     string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	StorageS3SecretAccessKey string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	StorageS3SessionToken    string `env:"STORAGE_S3_SESSION_TOKEN"`
	StorageS3ForcePathStyle  bool   `env:"STORAGE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// 阿里云 OSS 存储配置
	StorageOSSEndpoint        string `env:"STORAGE_OSS_ENDPOINT"`
	StorageOSSBucket          string `env:"STORAGE_OSS_BUCKET"`
	StorageOSSPrefix          string `env:"STORAGE_OSS_PREFIX"`
	StorageOSSAccessKeyID     string `env:"STORAGE_OSS_ACCESS_KEY_ID"`
	StorageOSSAccessKeySecret string `env:"STORAGE_OSS_ACCESS_KEY_SECRET"`

	// 腾讯云 COS 存储配置
	StorageCOSBucketURL string `env:"STORAGE_COS_BUCKET_URL"`
	StorageCOSPrefix    string `env:"STORAGE_COS_PREFIX"`
	StorageCOSSecretID  string `env:"STORAGE_COS_SECRET_ID"`
	StorageCOSSecretKey string `env:"STORAGE_COS_SECRET_KEY"`

	// Cloudflare R2 存储配置
	StorageR2AccountID       string `env:"STORAGE_R2_ACCOUNT_ID"`
	StorageR2Endpoint        string `env:"STORAGE_R2_ENDPOINT"`
	StorageR2Region          string `env:"STORAGE_R2_REGION" envDefault:"auto"`
	StorageR2Bucket          string `env:"STORAGE_R2_BUCKET"`
	StorageR2Prefix          string `env:"STORAGE_R2_PREFIX"`
	StorageR2AccessKeyID     string `env:"STORAGE_R2_ACCESS_KEY_ID"`
	StorageR2SecretAccessKey string `env:"STORAGE_R2_SECRET_ACCESS_KEY"`
}

// ParseConfig 从进程环境变量解析配置
func ParseConfig() (Config, error) {
	var conf Config
	if err := env.Parse(&conf); err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	return finish(conf)
}

// ParseConfigFrom 从给定的键值对解析配置，不读取进程环境
func ParseConfigFrom(environ map[string]string) (Config, error) {
	var conf Config
	opts := env.Options{Environment: environ}
	if err := env.ParseWithOptions(&conf, opts); err != nil {
		return Config{}, err
	}
	return finish(conf)
}

func finish(conf Config) (Config, error) {
	conf.AdminEmails = normaliseEmails(conf.AdminEmails)
	conf.DBType = strings.ToLower(strings.TrimSpace(conf.DBType))
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Validate 校验配置，关键项缺失时返回错误
func (c Config) Validate() error {
	if len(strings.TrimSpace(c.JWTSecret)) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	switch c.DBType {
	case DBTypePostgres, DBTypeMySQL, DBTypeSQLite:
	default:
		return fmt.Errorf("unsupported DB_TYPE: %q", c.DBType)
	}
	if c.DBType != DBTypeSQLite && strings.TrimSpace(c.DSNURL) == "" {
		return errors.New("DSN_URL is required for " + c.DBType)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.ResetTokenTTL <= 0 {
		return errors.New("RESET_TOKEN_TTL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.StackProjectID) != "" && strings.TrimSpace(c.StackJWKSURL) == "" {
		return errors.New("STACK_JWKS_URL is required when STACK_PROJECT_ID is set")
	}
	return nil
}

// IsAdminEmail 判断邮箱是否在管理员白名单中
func (c Config) IsAdminEmail(email string) bool {
	candidate := strings.ToLower(strings.TrimSpace(email))
	if candidate == "" {
		return false
	}
	for _, e := range c.AdminEmails {
		if e == candidate {
			return true
		}
	}
	return false
}

// StackAuthEnabled 是否配置了 Stack Auth 令牌校验
func (c Config) StackAuthEnabled() bool {
	return strings.TrimSpace(c.StackProjectID) != "" && strings.TrimSpace(c.StackJWKSURL) != ""
}

// NotionMirrorEnabled 是否配置了 Notion 镜像
func (c Config) NotionMirrorEnabled() bool {
	return strings.TrimSpace(c.NotionToken) != "" && strings.TrimSpace(c.NotionUsersDatabaseID) != ""
}

func normaliseEmails(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
