package service

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"partyrooms/internal/domain"
	"partyrooms/internal/logger"
)

var (
	jwtSecret []byte

	ErrInvalidToken = errors.New("invalid token")
)

const jwtIssuer = "partyrooms"

// токен несет все, что нужно для места за столом, без похода в базу
type Claims struct {
	UserID int64  `json:"user_id"`
	TgID   int64  `json:"tg_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// InitJWT читает JWT_SECRET. Без секрета сервер не стартует
func InitJWT() {
	secret := os.Getenv("JWT_SECRET")
	if len(secret) < 16 {
		logger.Fatal("JWT_SECRET must be set and at least 16 characters long")
	}
	SetJWTSecret(secret)
}

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// IssueToken подписывает токен игрока на ttl
func IssueToken(p domain.Principal, ttl time.Duration) (string, error) {
	if len(jwtSecret) == 0 {
		return "", errors.New("jwt secret is not initialized")
	}
	now := time.Now()
	claims := Claims{
		UserID: p.UserID,
		TgID:   p.TgID,
		Name:   p.Name,
		Avatar: p.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ParseToken проверяет подпись и срок, возвращает игрока
func ParseToken(raw string) (domain.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID <= 0 {
		return domain.Principal{}, ErrInvalidToken
	}
	return domain.Principal{
		UserID: claims.UserID,
		TgID:   claims.TgID,
		Name:   claims.Name,
		Avatar: claims.Avatar,
	}, nil
}
