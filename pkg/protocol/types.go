package protocol

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Protocol constants
const (
	// Identifier of the message datagram ('ZTMD')
	DatagramMagic uint32 = 0x5A544D44

	// Size of the identifier at the start of every datagram
	DatagramIdentifierSize = 4

	// Size of a hop identifier on the wire
	HopIDSize = 16

	// Size of every vector length prefix
	LengthPrefixSize = 4

	// Smallest well-formed datagram: identifier + three empty vectors
	MinDatagramSize = DatagramIdentifierSize + 3*LengthPrefixSize
)

var (
	ErrInvalidHopID = errors.New("invalid hop id")
)

// HopID addresses a node on a route (16 bytes, UUID layout)
type HopID [HopIDSize]byte

// NewHopID generates a random (version 4) hop id
func NewHopID() HopID {
	return HopID(uuid.New())
}

// ParseHopID parses the canonical UUID text form of a hop id
func ParseHopID(s string) (HopID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return HopID{}, fmt.Errorf("%w: %v", ErrInvalidHopID, err)
	}
	return HopID(id), nil
}

// HopIDFromBytes copies a 16-byte slice into a hop id
func HopIDFromBytes(b []byte) (HopID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return HopID{}, fmt.Errorf("%w: %v", ErrInvalidHopID, err)
	}
	return HopID(id), nil
}

// String returns the canonical UUID text form
func (id HopID) String() string {
	return uuid.UUID(id).String()
}

// IsZero checks if the hop id is all zeros
func (id HopID) IsZero() bool {
	return id == HopID{}
}

// NowUnixMilli returns current time in Unix milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
