package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabea25/SISAPI/internal/models"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "sis"})
	claims := models.JWTClaims{
		UserID: "stu-1",
		Role:   models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "sis",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	parsed, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte("secret"), claims))
	require.NoError(t, err)
	assert.Equal(t, "stu-1", parsed.UserID)
	assert.Equal(t, models.RoleStudent, parsed.Role)
}

func TestAuthServiceRejectsInvalidTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "sis"})
	valid := jwt.RegisteredClaims{Issuer: "sis", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	cases := map[string]string{
		"wrong secret": signToken(t, jwt.SigningMethodHS256, []byte("other"), models.JWTClaims{UserID: "u", Role: models.RoleAdmin, RegisteredClaims: valid}),
		"expired": signToken(t, jwt.SigningMethodHS256, []byte("secret"), models.JWTClaims{UserID: "u", Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "sis", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}}),
		"wrong issuer": signToken(t, jwt.SigningMethodHS256, []byte("secret"), models.JWTClaims{UserID: "u", Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Issuer: "other"}}),
		"unknown role": signToken(t, jwt.SigningMethodHS256, []byte("secret"), models.JWTClaims{UserID: "u", Role: "GUEST", RegisteredClaims: valid}),
		"no subject":   signToken(t, jwt.SigningMethodHS256, []byte("secret"), models.JWTClaims{Role: models.RoleAdmin, RegisteredClaims: valid}),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		_, err := svc.ValidateToken(token)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, appErrors.ErrUnauthorized), name)
	}
}
