// Package protocol implements the ZenTalk mesh wire format.
//
// The protocol package defines hop identifiers, routes and the binary
// message datagram that carries an end-to-end encrypted envelope across a
// multi-hop route.
//
// # Hop Identifiers
//
// Every node on a route is addressed by a 16-byte HopID. Hop ids use the
// UUID layout so they can be generated randomly and printed in the usual
// canonical text form.
//
// # Routes
//
// A Route is the ordered list of hops from origin to destination. The route
// travels in plaintext next to the ciphertext so relays can forward the
// datagram without decrypting anything. Order is significant and is never
// changed by encoding or decoding.
//
// # Datagram Format
//
// A datagram starts with a 4-byte identifier followed by three
// length-prefixed vectors, big-endian, without padding:
//   - Identifier (4 bytes): 0x5A544D44 ("ZTMD")
//   - Route (4 + 16n bytes): hop count followed by the hop ids
//   - Payload (4 + p bytes): ciphertext
//   - Signature (4 + s bytes): signature over the plaintext
//
// # Decoding Untrusted Input
//
// Datagrams arrive from the network and must be treated as hostile.
// Decoding is split into three explicit steps:
//
//	if !protocol.HasDatagramIdentifier(buf) {
//	    // not a message datagram
//	}
//	if err := protocol.VerifyDatagram(buf); err != nil {
//	    // truncated, oversized or trailing data
//	}
//	view := protocol.GetDatagram(buf)
//
// VerifyDatagram proves every offset and length is inside the buffer before
// any field is read. GetDatagram must only be called on verified buffers;
// its accessors alias the input and callers copy what they keep.
package protocol
