// Package crypto hashes account passwords server-side with Argon2id.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Memory-hard enough to slow offline guessing
// without starving the request path.
const (
	hashIterations uint32 = 3
	hashMemoryKiB  uint32 = 64 * 1024
	hashThreads    uint8  = 1
	hashLen        uint32 = 32
)

// RandBytes returns n bytes from the CSPRNG. Used for per-account salts.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// HashPassword derives the stored Argon2id hash for password under salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, hashIterations, hashMemoryKiB, hashThreads, hashLen)
}

// VerifyPassword recomputes the hash and compares in constant time.
func VerifyPassword(password, salt, expected []byte) bool {
	return subtle.ConstantTimeCompare(HashPassword(password, salt), expected) == 1
}
