package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", testSecret)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	assert.True(t, VerifyPassword(hash, "correct horse battery staple", testSecret))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", testSecret)
	require.NoError(t, err)

	assert.False(t, VerifyPassword(hash, "wrong horse battery staple", testSecret))
}

func TestVerifyPassword_WrongSecret(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", testSecret)
	require.NoError(t, err)

	assert.False(t, VerifyPassword(hash, "correct horse battery staple", "another-secret"))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=1,p=4$notbase64!!$digest",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$ZGlnZXN0",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA",
		"$argon2id$v=19$m=65536,t=0,p=4$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=65536,t=1,p=0$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=4294967295,t=1,p=4$c2FsdA$ZGlnZXN0",
	}

	for _, encoded := range cases {
		assert.False(t, VerifyPassword(encoded, "password", testSecret), "hash %q", encoded)
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("same password", testSecret)
	require.NoError(t, err)
	second, err := HashPassword("same password", testSecret)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword(first, "same password", testSecret))
	assert.True(t, VerifyPassword(second, "same password", testSecret))
}
