// Package auth выпускает и проверяет JWT, из которых строится сессия пользователя.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const defaultTTL = 168 * time.Hour

// Claims - полезная нагрузка токена: sub - идентификатор пользователя
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is not set")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (m *TokenManager) Issue(userID string, role domain.Role) (string, error) {
	if userID == "" {
		return "", domain.NewInvalidInputError("user id is required")
	}
	if role == "" {
		role = domain.RoleMember
	}

	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия токена и возвращает сессию
func (m *TokenManager) Parse(tokenString string) (domain.Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return domain.Session{}, unauthorized("invalid or expired token")
	}

	if claims.Subject == "" {
		return domain.Session{}, unauthorized("token has no subject")
	}
	role := claims.Role
	if role != domain.RoleAdmin {
		role = domain.RoleMember
	}

	return domain.Session{UserID: claims.Subject, Role: role}, nil
}

// ParseHeader разбирает заголовок "Authorization: Bearer <token>"
func (m *TokenManager) ParseHeader(header string) (domain.Session, error) {
	if header == "" {
		return domain.Session{}, unauthorized("authorization token is required")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return domain.Session{}, unauthorized("authorization header format must be Bearer {token}")
	}
	return m.Parse(parts[1])
}

func unauthorized(message string) error {
	return &domain.DomainError{
		Code:    domain.CodeUnauthorized,
		Message: message,
	}
}

// IsUnauthorized сообщает, что ошибка вызвана отсутствующим или неверным токеном
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
