package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-hub-backend/pkg/models"
)

func TestTokenPairRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	user := &models.User{ID: "u1", Username: "alice"}

	access, refresh, expiresIn, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.Equal(t, int64(60), expiresIn)

	claims, err := svc.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = svc.ValidateAccessToken(refresh)
	assert.Error(t, err, "refresh token must not pass as access token")

	claims, err = svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestExpiredAndForeignTokens(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	issued := time.Now()
	svc.now = func() time.Time { return issued }

	access, _, err := svc.GenerateAccessToken(&models.User{ID: "u1"})
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.ValidateAccessToken(access)
	assert.Error(t, err)

	other := NewJWTService("other-secret", time.Minute, time.Hour)
	token, _, err := other.GenerateAccessToken(&models.User{ID: "u1"})
	require.NoError(t, err)
	_, err = NewJWTService("secret", 0, 0).ValidateAccessToken(token)
	assert.Error(t, err)
}
