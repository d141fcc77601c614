package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrRouteTooShort = errors.New("route needs an origin and a destination")
	ErrRouteTooLong  = errors.New("route exceeds hop limit")
	ErrRouteZeroHop  = errors.New("route contains a zero hop id")
	ErrRouteLoop     = errors.New("route visits a hop twice")
)

// Route is the ordered path of a message, origin first and destination last
type Route []HopID

// Origin returns the first hop
func (r Route) Origin() (HopID, bool) {
	if len(r) == 0 {
		return HopID{}, false
	}
	return r[0], true
}

// Destination returns the last hop
func (r Route) Destination() (HopID, bool) {
	if len(r) == 0 {
		return HopID{}, false
	}
	return r[len(r)-1], true
}

// IndexOf returns the position of id on the route, or -1
func (r Route) IndexOf(id HopID) int {
	for i, hop := range r {
		if hop == id {
			return i
		}
	}
	return -1
}

// NextHop returns the hop after current. ok is false when current is the
// destination or not on the route.
func (r Route) NextHop(current HopID) (HopID, bool) {
	i := r.IndexOf(current)
	if i < 0 || i == len(r)-1 {
		return HopID{}, false
	}
	return r[i+1], true
}

// IsDestination checks if id is the last hop
func (r Route) IsDestination(id HopID) bool {
	dest, ok := r.Destination()
	return ok && dest == id
}

// Clone returns an independent copy of the route
func (r Route) Clone() Route {
	if r == nil {
		return nil
	}
	out := make(Route, len(r))
	copy(out, r)
	return out
}

// Equal compares two routes hop by hop
func (r Route) Equal(other Route) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// Validate checks a route before it is used to send.
// maxHops <= 0 disables the length limit.
func (r Route) Validate(maxHops int) error {
	if len(r) < 2 {
		return ErrRouteTooShort
	}
	if maxHops > 0 && len(r) > maxHops {
		return fmt.Errorf("%w: %d > %d", ErrRouteTooLong, len(r), maxHops)
	}

	seen := make(map[HopID]struct{}, len(r))
	for i, hop := range r {
		if hop.IsZero() {
			return fmt.Errorf("%w at position %d", ErrRouteZeroHop, i)
		}
		if _, dup := seen[hop]; dup {
			return fmt.Errorf("%w: %s", ErrRouteLoop, hop)
		}
		seen[hop] = struct{}{}
	}

	return nil
}
