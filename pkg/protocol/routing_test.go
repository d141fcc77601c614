package protocol

import (
	"errors"
	"testing"
)

func TestRouteEndpoints(t *testing.T) {
	r := Route(testRoute(4))

	origin, ok := r.Origin()
	if !ok || origin != r[0] {
		t.Errorf("Origin() = %s, %v, want %s, true", origin, ok, r[0])
	}

	dest, ok := r.Destination()
	if !ok || dest != r[3] {
		t.Errorf("Destination() = %s, %v, want %s, true", dest, ok, r[3])
	}

	if !r.IsDestination(r[3]) {
		t.Error("IsDestination(last) = false")
	}
	if r.IsDestination(r[0]) {
		t.Error("IsDestination(first) = true")
	}

	var empty Route
	if _, ok := empty.Origin(); ok {
		t.Error("Origin() ok for empty route")
	}
	if _, ok := empty.Destination(); ok {
		t.Error("Destination() ok for empty route")
	}
	if empty.IsDestination(HopID{}) {
		t.Error("IsDestination() true for empty route")
	}
}

func TestRouteNextHop(t *testing.T) {
	r := Route(testRoute(4))

	tests := []struct {
		name    string
		current HopID
		want    HopID
		wantOK  bool
	}{
		{"origin", r[0], r[1], true},
		{"middle", r[1], r[2], true},
		{"last relay", r[2], r[3], true},
		{"destination", r[3], HopID{}, false},
		{"stranger", NewHopID(), HopID{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.NextHop(tt.current)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("NextHop() = %s, %v, want %s, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRouteCloneAndEqual(t *testing.T) {
	r := Route(testRoute(3))
	c := r.Clone()

	if !r.Equal(c) {
		t.Fatal("Clone() not equal to original")
	}

	c[1] = NewHopID()
	if r.Equal(c) {
		t.Error("Clone() shares storage with original")
	}

	if Route(nil).Clone() != nil {
		t.Error("Clone() of nil route is not nil")
	}
	if r.Equal(r[:2]) {
		t.Error("Equal() true for routes of different length")
	}
}

func TestRouteValidate(t *testing.T) {
	a, b, c := NewHopID(), NewHopID(), NewHopID()

	tests := []struct {
		name    string
		route   Route
		maxHops int
		wantErr error
	}{
		{"direct", Route{a, b}, 0, nil},
		{"relayed", Route{a, b, c}, 3, nil},
		{"empty", Route{}, 0, ErrRouteTooShort},
		{"single hop", Route{a}, 0, ErrRouteTooShort},
		{"too long", Route{a, b, c}, 2, ErrRouteTooLong},
		{"zero hop", Route{a, HopID{}, c}, 0, ErrRouteZeroHop},
		{"loop", Route{a, b, a}, 0, ErrRouteLoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.route.Validate(tt.maxHops)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
