package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

// NonceSize is the size of the random nonce prefixed to every ciphertext
const NonceSize = chacha20.NonceSizeX

// Framing inside the keystream
const (
	lengthHeaderSize = 4
	cipherBlockSize  = 16
)

// cipherInfo binds derived keys to this use of the shared secret
const cipherInfo = "ZenTalk mesh envelope v1"

// deriveCipherKey expands a shared secret into a stream cipher key
func deriveCipherKey(secret []byte) []byte {
	key := make([]byte, chacha20.KeySize)
	kdf := hkdf.New(sha256.New, secret, nil, []byte(cipherInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		// HKDF-SHA256 can produce far more than 32 bytes
		panic("crypto: hkdf expansion failed: " + err.Error())
	}
	return key
}

// xorKeyStream applies the XChaCha20 keystream for (secret, nonce) to src
func xorKeyStream(dst, src, secret, nonce []byte) {
	key := deriveCipherKey(secret)
	defer ZeroBytes(key)

	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		// Key and nonce sizes are fixed above
		panic("crypto: chacha20 setup failed: " + err.Error())
	}
	stream.XORKeyStream(dst, src)
}

// CiphertextSize returns the length of Encrypt's output for a plaintext of n bytes
func CiphertextSize(n int) int {
	framed := lengthHeaderSize + n
	return NonceSize + framed + (cipherBlockSize - framed%cipherBlockSize)
}

// Encrypt encrypts plaintext under a shared secret with XChaCha20.
// Output format: [nonce (24 bytes)] + XChaCha20([length (4 bytes)] + [plaintext] + [zero padding]).
//
// The body is padded to a whole number of 16-byte blocks with at least one
// padding byte, so even an empty plaintext produces key-dependent bytes.
// A fresh random nonce is drawn for every call. Encrypt cannot fail: the
// nonce size is fixed and crypto/rand does not return errors.
func Encrypt(plaintext []byte, secret []byte) []byte {
	out := make([]byte, CiphertextSize(len(plaintext)))
	nonce := out[:NonceSize]
	if _, err := rand.Read(nonce); err != nil {
		panic("crypto: nonce generation failed: " + err.Error())
	}

	body := out[NonceSize:]
	binary.BigEndian.PutUint32(body, uint32(len(plaintext)))
	copy(body[lengthHeaderSize:], plaintext)

	xorKeyStream(body, body, secret, nonce)
	return out
}

// Decrypt reverses Encrypt. It always returns bytes: decrypting with the
// wrong secret yields garbage rather than an error, so callers must
// authenticate the result (see Verify). Input shorter than a nonce
// decrypts to an empty plaintext.
func Decrypt(ciphertext []byte, secret []byte) []byte {
	plaintext, _ := Open(ciphertext, secret)
	return plaintext
}

// Open is Decrypt that also reports whether the decrypted framing (length
// header and zero padding) was intact. When ok is false the returned bytes
// are the whole decrypted body, or empty if there was no body.
func Open(ciphertext []byte, secret []byte) (plaintext []byte, ok bool) {
	if len(ciphertext) < NonceSize {
		return []byte{}, false
	}

	nonce, sealed := ciphertext[:NonceSize], ciphertext[NonceSize:]
	body := make([]byte, len(sealed))
	xorKeyStream(body, sealed, secret, nonce)

	n, ok := unframe(body)
	if !ok {
		return body, false
	}
	return body[lengthHeaderSize : lengthHeaderSize+n], true
}

// unframe checks the length header and padding of a decrypted body
func unframe(body []byte) (int, bool) {
	if len(body) < cipherBlockSize || len(body)%cipherBlockSize != 0 {
		return 0, false
	}

	n := uint64(binary.BigEndian.Uint32(body))
	if lengthHeaderSize+n >= uint64(len(body)) {
		return 0, false
	}
	if CiphertextSize(int(n)) != NonceSize+len(body) {
		return 0, false
	}

	var pad byte
	for _, b := range body[lengthHeaderSize+int(n):] {
		pad |= b
	}
	return int(n), pad == 0
}
