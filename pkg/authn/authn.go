// Package authn implements the minimal API-key authentication spec.md
// leaves as an external collaborator ("Create user"): a signup mints a
// random key, every other request authenticates by presenting it in the
// X-API-Key header. Modeled on the teacher's header-extraction idiom
// (pkg/api/auth.go's extractAuthor), but looks up a real caller identity
// instead of trusting a reverse-proxy header.
package authn

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
)

// keyBytes is the amount of randomness in a minted API key (32 bytes ==
// 256 bits, hex-encoded to 64 characters).
const keyBytes = 32

// GenerateAPIKey mints a new random API key. The caller must persist only
// its hash (HashAPIKey); the plaintext is returned once and never stored.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "generating api key")
	}
	return hex.EncodeToString(buf), nil
}

// HashAPIKey returns the hex-encoded SHA-256 digest of key, the form stored
// in users.api_key_hash. A standard-library hash suffices here: the secret
// is high-entropy random bytes generated by this package, not a
// user-chosen password, so there is nothing for a slow KDF like bcrypt to
// defend against that a fast digest doesn't already cover.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// EqualHash compares two hex-encoded digests in constant time.
func EqualHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
