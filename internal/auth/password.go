package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = bcrypt.DefaultCost

// MinPasswordLength 密码最小长度
const MinPasswordLength = 8

// MaxPasswordLength bcrypt 只接受 72 字节以内的输入
const MaxPasswordLength = 72

// dummyHash 用于未知邮箱时的等时比较
var dummyHash = mustHash("irportal-timing-equaliser")

// HashPassword 对明文密码进行哈希处理，bcrypt 为每个凭据生成随机盐
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password must not be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), defaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword 验证密码是否与存储的哈希值匹配
func VerifyPassword(hash, candidate string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("stored password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}

// EqualiseTiming 对未知账户执行一次无意义的比较，使响应时间与真实校验一致
func EqualiseTiming(candidate string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(candidate))
}

func mustHash(plain string) []byte {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), defaultBcryptCost)
	if err != nil {
		panic(err)
	}
	return hashed
}
