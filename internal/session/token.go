package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken token 不是 JWT
var ErrMalformedToken = errors.New("malformed token")

// Claims 服务端签发的 JWT 声明（字段按需读取）
type Claims struct {
	jwt.RegisteredClaims
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// TokenInfo token 中可读出的信息
//
// 客户端没有签名密钥，只做展示用；token 是否有效以服务端 /api/auth/me 为准。
type TokenInfo struct {
	Subject   string
	Role      string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time // 零值表示未声明过期时间
}

// ParseToken 不校验签名地解析 JWT
func ParseToken(token string) (*TokenInfo, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	info := &TokenInfo{
		Subject: claims.Subject,
		Role:    claims.Role,
		Email:   claims.Email,
	}
	if info.Subject == "" {
		info.Subject = claims.ID
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Expired now 是否已超过 exp
func (t *TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// ExpiresIn 剩余有效期，未声明过期时间返回 0
func (t *TokenInfo) ExpiresIn(now time.Time) time.Duration {
	if t.ExpiresAt.IsZero() {
		return 0
	}
	if d := t.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
