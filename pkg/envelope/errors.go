package envelope

// DeserializationError reports why a buffer could not be decoded into a
// Message. It is never retryable: the buffer should be dropped.
type DeserializationError string

func (e DeserializationError) Error() string { return string(e) }

const (
	// ErrInvalidIdentifier: the buffer does not start with the datagram identifier
	ErrInvalidIdentifier DeserializationError = "envelope: invalid datagram identifier"

	// ErrInvalidBuffer: the buffer failed structural verification
	ErrInvalidBuffer DeserializationError = "envelope: invalid buffer"

	// ErrSignatureSizeMismatch: the signature field is not SignatureSize bytes
	ErrSignatureSizeMismatch DeserializationError = "envelope: signature size mismatch"
)

// MessageDecryptionError reports why a payload could not be recovered.
type MessageDecryptionError string

func (e MessageDecryptionError) Error() string { return string(e) }

// ErrInvalidSignature covers a wrong sender key, a wrong recipient key,
// corrupted ciphertext and tampering alike. They cannot be told apart.
const ErrInvalidSignature MessageDecryptionError = "envelope: invalid signature"
