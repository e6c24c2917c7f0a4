package auth

import (
	"testing"
	"time"

	"gestion-stock/internal/api"
	"gestion-stock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-0123456789"

func TestTokenRoundTrip(t *testing.T) {
	u := &models.User{ID: 4, Username: "bob", Email: "bob@pharma.test", Role: api.RolePharmacist}

	tok, err := GenerateToken(testSecret, time.Hour, u)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(4), claims.UserID)
	assert.Equal(t, "bob", claims.Username)
	assert.Equal(t, api.RolePharmacist, claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	u := &models.User{ID: 1, Role: api.RoleAdmin}

	tok, err := GenerateToken(testSecret, time.Hour, u)
	require.NoError(t, err)
	_, err = ParseToken("another-secret-that-is-long-enough-xxxx", tok)
	assert.Error(t, err)

	expired, err := GenerateToken(testSecret, -time.Minute, u)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)

	_, err = ParseToken(testSecret, "not-a-token")
	assert.Error(t, err)
}
