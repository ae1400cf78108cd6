package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	require.True(t, CheckPassword("s3cret-pass", hash))
	require.False(t, CheckPassword("wrong-pass", hash))
	require.False(t, CheckPassword("s3cret-pass", "not-a-bcrypt-hash"))
}

func TestHashPIN(t *testing.T) {
	hash, err := HashPIN("1234")
	require.NoError(t, err)

	require.True(t, CheckPIN("1234", hash))
	require.False(t, CheckPIN("4321", hash))

	// Two hashes of the same PIN differ because of the salt
	other, err := HashPIN("1234")
	require.NoError(t, err)
	require.NotEqual(t, hash, other)
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(32)
	require.NoError(t, err)
	require.Len(t, a, 64)
	require.Equal(t, strings.ToLower(a), a)

	b, err := GenerateRandomToken(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHashAPIKey_Deterministic(t *testing.T) {
	key := "pk_live_abc123"
	require.Equal(t, HashAPIKey(key), HashAPIKey(key))
	require.Len(t, HashAPIKey(key), 64)
	require.NotEqual(t, HashAPIKey(key), HashAPIKey("pk_live_abc124"))
}

func TestHMACSHA512(t *testing.T) {
	secret := []byte("whsec_test")
	body := []byte(`{"event":"card.transaction"}`)

	sig := HMACSHA512(secret, body)
	require.Len(t, sig, 128)

	require.True(t, VerifyHMACSHA512(secret, body, sig))
	require.False(t, VerifyHMACSHA512(secret, body, "deadbeef"))
	require.False(t, VerifyHMACSHA512([]byte("other"), body, sig))
	require.False(t, VerifyHMACSHA512(secret, []byte("tampered"), sig))
}
