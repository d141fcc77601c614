package protocol

import (
	"encoding/binary"
	"errors"
)

var (
	ErrInvalidMagic = errors.New("invalid datagram identifier")
)

// HasDatagramIdentifier checks the identifier at the start of buf.
// It reads nothing past the first DatagramIdentifierSize bytes.
func HasDatagramIdentifier(buf []byte) bool {
	if len(buf) < DatagramIdentifierSize {
		return false
	}
	return binary.BigEndian.Uint32(buf[0:DatagramIdentifierSize]) == DatagramMagic
}

// putDatagramIdentifier writes the identifier at the start of buf
func putDatagramIdentifier(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:DatagramIdentifierSize], DatagramMagic)
}
