// Package envelope builds, encodes, decodes and opens the secure message
// envelope exchanged between mesh peers.
//
// Sender side:
//
//	msg, err := envelope.Build(plaintext, route, destination.Public, self)
//	buf := msg.Serialize()
//
// Receiver side:
//
//	msg, err := envelope.FromBuffer(buf)   // DeserializationError
//	plaintext, err := msg.DecryptPayload(sender.Public, self) // MessageDecryptionError
//
// The plaintext is signed before it is encrypted and verified after it is
// decrypted. Encryption is end-to-end between signer and destination;
// relays only read the route.
package envelope
