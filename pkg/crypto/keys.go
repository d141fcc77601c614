package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

var (
	ErrInvalidKey = errors.New("invalid key")
)

// Key sizes
const (
	SigningKeySize     = ed25519.PublicKeySize  // 32
	SigningPrivateSize = ed25519.PrivateKeySize // 64
	ExchangeKeySize    = curve25519.PointSize   // 32
	PublicKeySize      = SigningKeySize + ExchangeKeySize
)

// PublicKey is the public half of a node identity.
// Signing verifies signatures, Exchange is the key-agreement point.
type PublicKey struct {
	Signing  [SigningKeySize]byte  // Ed25519 public key
	Exchange [ExchangeKeySize]byte // X25519 public key
}

// PrivateKey is the private half of a node identity. It never goes on the wire.
type PrivateKey struct {
	Signing  [SigningPrivateSize]byte // Ed25519 private key
	Exchange [ExchangeKeySize]byte    // X25519 scalar
}

// KeyPair is a node identity used both to sign and to agree on secrets
type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

// GenerateKeyPair generates a fresh identity key pair
func GenerateKeyPair() (*KeyPair, error) {
	// Ed25519 key pair for signatures
	edPublic, edPrivate, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(edPrivate)

	// X25519 key pair for key agreement
	var dhPrivate [ExchangeKeySize]byte
	if _, err := rand.Read(dhPrivate[:]); err != nil {
		return nil, err
	}

	dhPublic, err := curve25519.X25519(dhPrivate[:], curve25519.Basepoint)
	if err != nil {
		ZeroBytes(dhPrivate[:])
		return nil, err
	}

	kp := &KeyPair{}
	copy(kp.Public.Signing[:], edPublic)
	copy(kp.Public.Exchange[:], dhPublic)
	copy(kp.Private.Signing[:], edPrivate)
	kp.Private.Exchange = dhPrivate
	ZeroBytes(dhPrivate[:])

	return kp, nil
}

// Wipe zeroes the private half. Call it (usually deferred) once the key
// pair is no longer needed.
func (kp *KeyPair) Wipe() {
	if kp == nil {
		return
	}
	kp.Private.Wipe()
}

// Wipe zeroes the private key material
func (k *PrivateKey) Wipe() {
	ZeroBytes(k.Signing[:])
	ZeroBytes(k.Exchange[:])
}

// Bytes returns the 64-byte encoding: signing key then exchange key
func (p PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeySize)
	copy(out, p.Signing[:])
	copy(out[SigningKeySize:], p.Exchange[:])
	return out
}

// ParsePublicKey decodes a public key produced by Bytes
func ParsePublicKey(b []byte) (PublicKey, error) {
	var p PublicKey
	if len(b) != PublicKeySize {
		return p, fmt.Errorf("%w: public key is %d bytes, want %d", ErrInvalidKey, len(b), PublicKeySize)
	}
	copy(p.Signing[:], b[:SigningKeySize])
	copy(p.Exchange[:], b[SigningKeySize:])
	return p, nil
}

// Equal compares two public keys
func (p PublicKey) Equal(other PublicKey) bool {
	return p == other
}

// IsZero checks if the public key is unset
func (p PublicKey) IsZero() bool {
	return p == PublicKey{}
}
