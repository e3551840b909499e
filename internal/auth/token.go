package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/transfer-service/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// Claims describes JWT payload. The subject claim carries the user id.
type Claims struct {
	Name       string            `json:"name,omitempty"`
	TenantID   string            `json:"tenant_id,omitempty"`
	Department string            `json:"department,omitempty"`
	Role       domain.CallerRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Caller converts the claims into the identity commands run on behalf of.
func (c *Claims) Caller() domain.Caller {
	role := c.Role
	if role == "" {
		role = domain.CallerRoleOperator
	}
	return domain.Caller{
		UserID:     c.Subject,
		UserName:   c.Name,
		TenantID:   c.TenantID,
		Department: c.Department,
		Role:       role,
	}
}

// GenerateToken builds and signs a JWT for the caller.
func (tm *TokenManager) GenerateToken(caller domain.Caller) (string, time.Time, error) {
	if caller.UserID == "" {
		return "", time.Time{}, errors.New("caller user id is required")
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Name:       caller.UserName,
		TenantID:   caller.TenantID,
		Department: caller.Department,
		Role:       caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	switch claims.Role {
	case "", domain.CallerRoleOperator, domain.CallerRoleSystem:
	default:
		return nil, errors.New("unknown caller role")
	}
	return claims, nil
}
