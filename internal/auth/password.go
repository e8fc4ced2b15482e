package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing these only affects newly created hashes;
// Verify reads the parameters back from the encoded string.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16

	// maxVerifyMemory bounds the m parameter read back from a stored hash so
	// a corrupt row cannot demand an arbitrarily large allocation.
	maxVerifyMemory = 1 << 20
)

// HashPassword derives a salted, keyed hash of the password. The password is
// first keyed with the service secret (HMAC-SHA-256) so stolen hashes cannot
// be attacked without it, then stretched with Argon2id under a random salt.
// The parameters, salt, and digest are embedded in one encoded string.
func HashPassword(password, secret string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := argon2.IDKey(keyedPassword(password, secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)
	return encoded, nil
}

// VerifyPassword recomputes the hash and compares in constant time. A
// malformed stored hash yields false, never an error.
func VerifyPassword(encoded, password, secret string) bool {
	memory, timeCost, threads, salt, digest, ok := decodeHash(encoded)
	if !ok {
		return false
	}

	computed := argon2.IDKey(keyedPassword(password, secret), salt, timeCost, memory, threads, uint32(len(digest)))
	return subtle.ConstantTimeCompare(computed, digest) == 1
}

// keyedPassword folds the service secret into the password before stretching.
func keyedPassword(password, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

// decodeHash parses "$argon2id$v=19$m=...,t=...,p=...$salt$digest".
func decodeHash(encoded string) (memory uint32, timeCost uint32, threads uint8, salt, digest []byte, ok bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, false
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return 0, 0, 0, nil, nil, false
	}
	// argon2.IDKey panics on t=0 or p=0; reject them here so a corrupt or
	// hostile stored hash fails verification instead of crashing the request.
	if timeCost < 1 || threads < 1 || memory < 8*uint32(threads) || memory > maxVerifyMemory {
		return 0, 0, 0, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, false
	}

	digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(digest) == 0 {
		return 0, 0, 0, nil, nil, false
	}

	return memory, timeCost, threads, salt, digest, true
}
