package security_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/food-delivery/internal/domain/models"
	security "github.com/linemk/food-delivery/internal/jwt-new"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken_Claims(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "u1@example.com", Role: "admin"}

	tokenStr, err := security.NewToken(user, "secret", time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)

	assert.Equal(t, "u-1", claims["sub"])
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "u1@example.com", claims["email"])
}

func TestNewToken_EmptySecret(t *testing.T) {
	_, err := security.NewToken(&models.User{ID: "u-1"}, "", time.Hour)
	assert.ErrorIs(t, err, security.ErrEmptySecret)
}
