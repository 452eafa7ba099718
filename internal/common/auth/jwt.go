package auth

import (
	"fmt"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/golang-jwt/jwt/v5"
)

// 角色层级（单值枚举；不保留旧系统里“字符串或数组”的双重形态）。
const (
	TierDriver = "driver"
	TierStaff  = "staff"
	TierAdmin  = "admin"
)

// Claims JWT 负载：主体（员工 ID）、所属公司与角色层级。
type Claims struct {
	CompanyID string `json:"company_id"`
	Tier      string `json:"tier"`
	jwt.RegisteredClaims
}

// Identity 从 token 解析出的最小身份信息。
type Identity struct {
	Subject   string // 员工 ID
	CompanyID string // 所属公司 ID
	Tier      string // driver / staff / admin
}

// IsCompanyTier admin 按公司级权限处理（可管理车辆、绑定等）。
func (id Identity) IsCompanyTier() bool {
	return id.Tier == TierAdmin
}

// GenerateAccessToken 生成 HS256 JWT access token。
func GenerateAccessToken(cfg config.AuthConfig, subject, companyID, tier string, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("subject is empty")
	}
	if cfg.JWTSecret == "" {
		return "", time.Time{}, fmt.Errorf("jwt_secret is empty")
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	now := time.Now()
	expiresAt = now.Add(ttl)

	c := Claims{
		CompanyID: companyID,
		Tier:      tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			Audience:  audience(cfg.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccessToken 校验并解析 token（HS256，iss/aud 可选校验）。
func ParseAccessToken(cfg config.AuthConfig, tokenStr string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || parsed == nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("invalid token")
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return Identity{}, fmt.Errorf("invalid issuer")
	}
	if cfg.Audience != "" && !audienceContains(claims.Audience, cfg.Audience) {
		return Identity{}, fmt.Errorf("invalid audience")
	}

	return Identity{
		Subject:   claims.Subject,
		CompanyID: claims.CompanyID,
		Tier:      claims.Tier,
	}, nil
}

func audience(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}

func audienceContains(aud jwt.ClaimStrings, want string) bool {
	for _, v := range aud {
		if v == want {
			return true
		}
	}
	return false
}
