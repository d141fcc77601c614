package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// FingerprintSize is the number of hash bytes kept in a key fingerprint
const FingerprintSize = 16

// Hash generates a BLAKE2b-256 hash
func Hash(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// HashString generates a BLAKE2b hash and returns hex string
func HashString(data []byte) string {
	return hex.EncodeToString(Hash(data))
}

// Fingerprint returns a short hex identifier for a public key, safe to
// log and to index by
func Fingerprint(pub PublicKey) string {
	return hex.EncodeToString(Hash(pub.Bytes())[:FingerprintSize])
}
