package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrDatagramTruncated    = errors.New("datagram truncated")
	ErrDatagramTrailingData = errors.New("trailing bytes after datagram")
)

// ===== MESSAGE DATAGRAM =====

// Datagram is the wire form of a routed message envelope.
//
// Layout (big-endian):
//
//	identifier  4 bytes ('ZTMD')
//	hop count   4 bytes, followed by 16 bytes per hop
//	payload     4 byte length + bytes
//	signature   4 byte length + bytes
type Datagram struct {
	Route     []HopID // Hops in order, origin first
	Payload   []byte  // Ciphertext
	Signature []byte  // Signature over the plaintext
}

// EncodedSize returns the exact number of bytes Encode produces
func (d *Datagram) EncodedSize() int {
	return MinDatagramSize + len(d.Route)*HopIDSize + len(d.Payload) + len(d.Signature)
}

// Encode encodes the datagram to bytes
func (d *Datagram) Encode() []byte {
	buf := make([]byte, d.EncodedSize())
	putDatagramIdentifier(buf)
	offset := DatagramIdentifierSize

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(d.Route)))
	offset += LengthPrefixSize

	for _, hop := range d.Route {
		copy(buf[offset:], hop[:])
		offset += HopIDSize
	}

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(d.Payload)))
	offset += LengthPrefixSize

	copy(buf[offset:], d.Payload)
	offset += len(d.Payload)

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(d.Signature)))
	offset += LengthPrefixSize

	copy(buf[offset:], d.Signature)

	return buf
}

// ===== VERIFIER =====

// datagramLayout holds the offsets proven in-bounds by the verifier
type datagramLayout struct {
	hopCount   int
	routeStart int
	payloadOff int
	payloadLen int
	sigOff     int
	sigLen     int
}

// VerifyDatagram proves that every length and offset in buf lies inside
// buf and that nothing follows the signature. No field value is read
// beyond the length prefixes.
func VerifyDatagram(buf []byte) error {
	if !HasDatagramIdentifier(buf) {
		return ErrInvalidMagic
	}
	_, err := layoutDatagram(buf)
	return err
}

func layoutDatagram(buf []byte) (datagramLayout, error) {
	var l datagramLayout
	size := uint64(len(buf))
	offset := uint64(DatagramIdentifierSize)

	// readLen consumes one length prefix and the region it announces
	readLen := func(field string, elemSize uint64) (start, n uint64, err error) {
		if offset+LengthPrefixSize > size {
			return 0, 0, fmt.Errorf("%w: %s length at offset %d", ErrDatagramTruncated, field, offset)
		}
		n = uint64(binary.BigEndian.Uint32(buf[offset:]))
		offset += LengthPrefixSize

		// n < 2^32 and elemSize <= 16, so the product cannot overflow
		if n*elemSize > size-offset {
			return 0, 0, fmt.Errorf("%w: %s needs %d bytes, %d left", ErrDatagramTruncated, field, n*elemSize, size-offset)
		}
		start = offset
		offset += n * elemSize
		return start, n, nil
	}

	start, n, err := readLen("route", HopIDSize)
	if err != nil {
		return l, err
	}
	l.routeStart, l.hopCount = int(start), int(n)

	start, n, err = readLen("payload", 1)
	if err != nil {
		return l, err
	}
	l.payloadOff, l.payloadLen = int(start), int(n)

	start, n, err = readLen("signature", 1)
	if err != nil {
		return l, err
	}
	l.sigOff, l.sigLen = int(start), int(n)

	if offset != size {
		return l, fmt.Errorf("%w: %d bytes", ErrDatagramTrailingData, size-offset)
	}

	return l, nil
}

// ===== VIEW =====

// DatagramView gives read access to the fields of a verified buffer
// without copying. Slices returned by the view alias the buffer.
type DatagramView struct {
	buf    []byte
	layout datagramLayout
}

// GetDatagram returns a view over buf. buf must have passed
// VerifyDatagram; on any other input GetDatagram panics.
func GetDatagram(buf []byte) DatagramView {
	layout, err := layoutDatagram(buf)
	if err != nil {
		panic(fmt.Sprintf("protocol: GetDatagram on unverified buffer: %v", err))
	}
	return DatagramView{buf: buf, layout: layout}
}

// HopCount returns the number of hops on the route
func (v DatagramView) HopCount() int {
	return v.layout.hopCount
}

// Hop returns the i-th hop of the route
func (v DatagramView) Hop(i int) HopID {
	var id HopID
	start := v.layout.routeStart + i*HopIDSize
	copy(id[:], v.buf[start:start+HopIDSize])
	return id
}

// Payload returns the payload bytes (aliases the buffer)
func (v DatagramView) Payload() []byte {
	return v.buf[v.layout.payloadOff : v.layout.payloadOff+v.layout.payloadLen]
}

// Signature returns the signature bytes (aliases the buffer)
func (v DatagramView) Signature() []byte {
	return v.buf[v.layout.sigOff : v.layout.sigOff+v.layout.sigLen]
}
