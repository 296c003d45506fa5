package security

import (
	"testing"

	"challengearena/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.Load()
	InitJWT()
	m.Run()
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22!")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22!", hash)

	assert.True(t, CheckPasswordHash("hunter22!", hash))
	assert.False(t, CheckPasswordHash("hunter23!", hash))
	assert.False(t, CheckPasswordHash("hunter22!", "not-a-hash"))
}

func TestGenerateToken(t *testing.T) {
	tokenString, err := GenerateToken("user-123", "participant")
	require.NoError(t, err)

	token, err := TokenAuth.Decode(tokenString)
	require.NoError(t, err)

	id, ok := token.Get("user_id")
	require.True(t, ok)
	assert.Equal(t, "user-123", id)

	role, ok := token.Get("role")
	require.True(t, ok)
	assert.Equal(t, "participant", role)
}

func TestClaimsHelpers(t *testing.T) {
	claims := map[string]interface{}{"user_id": "u1", "role": ""}

	id, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	role, err := GetUserRoleFromClaims(claims)
	require.NoError(t, err)
	assert.Empty(t, role)

	_, err = GetUserIDFromClaims(map[string]interface{}{})
	assert.Error(t, err)
	_, err = GetUserRoleFromClaims(map[string]interface{}{"role": 42})
	assert.Error(t, err)
}
