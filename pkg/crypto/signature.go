package crypto

import (
	"crypto/ed25519"
)

// SignatureSize is the size of an Ed25519 signature in bytes
const SignatureSize = ed25519.SignatureSize

// Signature is a fixed-size Ed25519 signature
type Signature [SignatureSize]byte

// Sign signs data with the signing half of priv
func Sign(data []byte, priv *PrivateKey) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(ed25519.PrivateKey(priv.Signing[:]), data))
	return sig
}

// Verify checks sig over data against the signing half of pub
func Verify(data []byte, sig Signature, pub PublicKey) bool {
	return ed25519.Verify(ed25519.PublicKey(pub.Signing[:]), data, sig[:])
}
