package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyrooms/internal/domain"
)

func TestJWT_RoundTrip(t *testing.T) {
	SetJWTSecret("test-secret-0123456789")
	p := domain.Principal{UserID: 7, TgID: 700, Name: "Ann", Avatar: "https://t.me/a.jpg"}

	token, err := IssueToken(p, time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestJWT_Rejects(t *testing.T) {
	SetJWTSecret("test-secret-0123456789")
	p := domain.Principal{UserID: 7, Name: "Ann"}

	expired, err := IssueToken(p, -time.Minute)
	require.NoError(t, err)

	SetJWTSecret("another-secret-0123456789")
	foreign, err := IssueToken(p, time.Hour)
	require.NoError(t, err)
	SetJWTSecret("test-secret-0123456789")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"истек":        expired,
		"чужой секрет": foreign,
		"alg none":     none,
		"мусор":        "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
