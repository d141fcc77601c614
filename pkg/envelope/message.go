package envelope

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ZentaChain/zentalk-mesh/pkg/crypto"
	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
)

var log = logrus.WithField("component", "envelope")

// Message is an end-to-end encrypted envelope travelling along a route.
//
// The route is plaintext routing metadata. The payload is always
// ciphertext; plaintext only exists inside Build and DecryptPayload. The
// signature covers the plaintext, not the ciphertext.
//
// A Message is immutable. Accessors return copies.
type Message struct {
	route     protocol.Route
	payload   []byte
	signature crypto.Signature
}

// Build signs payload with signer, encrypts it for destination and returns
// the envelope. The only error is crypto.ErrInvalidKey for a destination
// key that cannot be used for key agreement.
func Build(payload []byte, route protocol.Route, destination crypto.PublicKey, signer *crypto.KeyPair) (*Message, error) {
	// Sign the plaintext
	signature := crypto.Sign(payload, &signer.Private)

	// Generate the shared secret and encrypt the payload
	secret, err := crypto.SharedSecret(destination, &signer.Private)
	if err != nil {
		return nil, fmt.Errorf("failed to derive shared secret: %w", err)
	}
	defer crypto.ZeroBytes(secret)

	return &Message{
		route:     route.Clone(),
		payload:   crypto.Encrypt(payload, secret),
		signature: signature,
	}, nil
}

// Serialize encodes the message as a datagram. Encoding is deterministic.
func (m *Message) Serialize() []byte {
	d := &protocol.Datagram{
		Route:     m.route,
		Payload:   m.payload,
		Signature: m.signature[:],
	}
	return d.Encode()
}

// FromBuffer decodes an untrusted buffer. Checks run in a fixed order and
// the first violation decides the error: identifier, structure, signature
// size. Every field is copied; buf is not retained.
func FromBuffer(buf []byte) (*Message, error) {
	// Verify the buffer type
	if !protocol.HasDatagramIdentifier(buf) {
		log.WithField("size", len(buf)).Debug("Rejected datagram: identifier")
		return nil, ErrInvalidIdentifier
	}

	// Verify buffer integrity before touching any field
	if err := protocol.VerifyDatagram(buf); err != nil {
		log.WithFields(logrus.Fields{
			"size":  len(buf),
			"error": err.Error(),
		}).Debug("Rejected datagram: structure")
		return nil, fmt.Errorf("%w: %v", ErrInvalidBuffer, err)
	}

	view := protocol.GetDatagram(buf)

	// Deserialize route
	route := make(protocol.Route, view.HopCount())
	for i := range route {
		route[i] = view.Hop(i)
	}

	// Deserialize payload
	payload := make([]byte, len(view.Payload()))
	copy(payload, view.Payload())

	// Deserialize signature
	if len(view.Signature()) != crypto.SignatureSize {
		log.WithField("signature_size", len(view.Signature())).Debug("Rejected datagram: signature size")
		return nil, ErrSignatureSizeMismatch
	}
	var signature crypto.Signature
	copy(signature[:], view.Signature())

	return &Message{
		route:     route,
		payload:   payload,
		signature: signature,
	}, nil
}

// DecryptPayload recovers the plaintext sent by sender to recipient.
//
// The shared secret only matches the one used by Build when sender is the
// key that actually signed. Any mismatch, corruption or tampering decrypts
// to bytes whose signature does not verify, reported as
// ErrInvalidSignature. The envelope carries no freshness data, so a
// replayed message decrypts again.
func (m *Message) DecryptPayload(sender crypto.PublicKey, recipient *crypto.KeyPair) ([]byte, error) {
	// Calculate the shared secret
	secret, err := crypto.SharedSecret(sender, &recipient.Private)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	defer crypto.ZeroBytes(secret)

	// Decrypt the value. Broken framing means the wrong secret or a
	// damaged payload; it must not fall through to verifying whatever
	// short body is left.
	plaintext, framed := crypto.Open(m.payload, secret)

	// Validate the signature
	if !framed || !crypto.Verify(plaintext, m.signature, sender) {
		crypto.ZeroBytes(plaintext)
		return nil, ErrInvalidSignature
	}

	return plaintext, nil
}

// DecryptFromAny tries each candidate sender key in order and returns the
// plaintext together with the index of the key that verified.
func (m *Message) DecryptFromAny(candidates []crypto.PublicKey, recipient *crypto.KeyPair) ([]byte, int, error) {
	for i, sender := range candidates {
		plaintext, err := m.DecryptPayload(sender, recipient)
		if err == nil {
			return plaintext, i, nil
		}
	}
	return nil, -1, ErrInvalidSignature
}

// Route returns a copy of the route
func (m *Message) Route() protocol.Route {
	return m.route.Clone()
}

// Payload returns a copy of the ciphertext
func (m *Message) Payload() []byte {
	out := make([]byte, len(m.payload))
	copy(out, m.payload)
	return out
}

// Signature returns the signature over the plaintext
func (m *Message) Signature() crypto.Signature {
	return m.signature
}

// Equal compares route, ciphertext and signature
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.route.Equal(other.route) &&
		string(m.payload) == string(other.payload) &&
		m.signature == other.signature
}
