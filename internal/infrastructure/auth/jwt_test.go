package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/infrastructure/config"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests",
		Issuer:                "storefront-test",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func testUser() checkout.UserInfo {
	return checkout.UserInfo{
		ID:    uuid.New(),
		Email: "ayse@example.com",
		Phone: "05321234567",
		Role:  "customer",
	}
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := newTestService()
	user := testUser()

	token, expiresAt, err := service.Generate(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, "storefront-test", claims.Issuer)
}

func TestJWTService_Validate_Errors(t *testing.T) {
	service := newTestService()

	t.Run("malformed token", func(t *testing.T) {
		_, err := service.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "a-different-secret",
			Issuer:                "storefront-test",
			AccessTokenExpiration: 15 * time.Minute,
		})
		token, _, err := other.Generate(testUser())
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-for-unit-tests",
			Issuer:                "storefront-test",
			AccessTokenExpiration: -time.Minute,
		})
		token, _, err := expired.Generate(testUser())
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestJWTService_Signal(t *testing.T) {
	service := newTestService()
	user := testUser()

	t.Run("valid token is logged in", func(t *testing.T) {
		token, _, err := service.Generate(user)
		require.NoError(t, err)

		signal := service.Signal(token)
		assert.True(t, signal.IsAuthenticated)
		require.NotNil(t, signal.User)
		assert.Equal(t, user.ID, signal.User.ID)
		assert.Equal(t, checkout.AuthLoggedIn, signal.State())
	})

	t.Run("empty token is a guest", func(t *testing.T) {
		signal := service.Signal("")
		assert.False(t, signal.IsAuthenticated)
		assert.Nil(t, signal.User)
		assert.Equal(t, checkout.AuthGuest, signal.State())
	})

	t.Run("garbage token is a guest, not an error", func(t *testing.T) {
		signal := service.Signal("garbage.token.value")
		assert.False(t, signal.IsAuthenticated)
		assert.Nil(t, signal.User)
	})
}
