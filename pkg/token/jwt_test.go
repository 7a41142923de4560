package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)

	tokenString, err := m.GenerateToken(42, "alice", "USER")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := m.VerifyToken(tokenString)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "USER", claims.Role)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", 1, 7)
	tokenString, err := m.GenerateToken(1, "bob", "USER")
	require.NoError(t, err)

	other := NewJWTManager("secret-b", 1, 7)
	_, err = other.VerifyToken(tokenString)
	require.Error(t, err)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)
	_, err := m.VerifyToken("not.a.token")
	require.Error(t, err)
}

func TestRefreshTokenIsVerifiable(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)
	tokenString, err := m.GenerateRefreshToken(7, "carol", "ADMIN")
	require.NoError(t, err)

	claims, err := m.VerifyToken(tokenString)
	require.NoError(t, err)
	require.Equal(t, "ADMIN", claims.Role)
}

func TestGenerateRandomStringLength(t *testing.T) {
	// 十六进制编码，每个随机字节对应两个字符
	s := GenerateRandomString(16)
	require.Len(t, s, 32)
	require.NotEqual(t, s, GenerateRandomString(16))
}
