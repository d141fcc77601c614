package network

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ZentaChain/zentalk-mesh/pkg/crypto"
	"github.com/ZentaChain/zentalk-mesh/pkg/envelope"
	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
	"github.com/ZentaChain/zentalk-mesh/pkg/storage"
)

// Action tells the caller what to do with a handled datagram
type Action int

const (
	// ActionDeliver: this node is the destination, Plaintext is set
	ActionDeliver Action = iota
	// ActionForward: pass Datagram on to NextHop unchanged
	ActionForward
)

func (a Action) String() string {
	switch a {
	case ActionDeliver:
		return "deliver"
	case ActionForward:
		return "forward"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Delivery is the result of handling one inbound datagram
type Delivery struct {
	Action Action
	Origin protocol.HopID // First hop of the route

	// Forward only
	NextHop  protocol.HopID
	Datagram []byte

	// Deliver only
	Sender    protocol.HopID // Peer whose key verified the signature
	Plaintext []byte
}

// HandleDatagram decodes an inbound datagram. Relays get a forwarding
// decision; the destination gets the verified plaintext.
//
// Errors:
//   - envelope.DeserializationError when the buffer does not decode
//   - protocol route errors (ErrRouteLoop, ErrRouteZeroHop, ...) when the
//     route could not have come from Compose
//   - ErrNotOnRoute when this node is not a hop
//   - ErrUnknownPeer when TryKnownPeers is off and the origin is not in
//     the directory
//   - envelope.MessageDecryptionError when no candidate key verifies
//   - directory lookup errors, wrapped
func (n *Node) HandleDatagram(buf []byte) (*Delivery, error) {
	msg, err := envelope.FromBuffer(buf)
	if err != nil {
		n.log.WithFields(logrus.Fields{
			"size":  len(buf),
			"error": err.Error(),
		}).Warn("Dropped malformed datagram")
		return nil, err
	}

	route := msg.Route()
	origin, _ := route.Origin()

	// A repeated hop would bounce the datagram between relays forever
	if err := route.Validate(n.config.MaxRouteHops); err != nil {
		n.log.WithFields(logrus.Fields{
			"origin": origin.String(),
			"hops":   len(route),
			"error":  err.Error(),
		}).Warn("Dropped datagram with invalid route")
		return nil, err
	}

	if route.IndexOf(n.config.NodeID) < 0 {
		return nil, fmt.Errorf("%w: origin %s", ErrNotOnRoute, origin)
	}

	// Relay: the route is plaintext, nothing to decrypt
	if next, ok := route.NextHop(n.config.NodeID); ok {
		datagram := make([]byte, len(buf))
		copy(datagram, buf)

		n.log.WithFields(logrus.Fields{
			"origin":   origin.String(),
			"next_hop": next.String(),
		}).Debug("Forwarding datagram")

		return &Delivery{
			Action:   ActionForward,
			Origin:   origin,
			NextHop:  next,
			Datagram: datagram,
		}, nil
	}

	sender, plaintext, err := n.open(msg, origin)
	if err != nil {
		n.log.WithFields(logrus.Fields{
			"origin": origin.String(),
			"error":  err.Error(),
		}).Warn("Failed to open datagram")
		return nil, err
	}

	if err := n.peers.TouchPeer(sender, protocol.NowUnixMilli()); err != nil {
		n.log.WithField("sender", sender.String()).Debugf("Failed to update last seen: %v", err)
	}

	return &Delivery{
		Action:    ActionDeliver,
		Origin:    origin,
		Sender:    sender,
		Plaintext: plaintext,
	}, nil
}

// open decrypts with the origin's key first, then (if enabled) with every
// other known peer key
func (n *Node) open(msg *envelope.Message, origin protocol.HopID) (protocol.HopID, []byte, error) {
	originKnown := false

	peer, err := n.peers.GetPeer(origin)
	switch {
	case err == nil:
		originKnown = true
		plaintext, err := msg.DecryptPayload(peer.PublicKey, n.keys)
		if err == nil {
			return origin, plaintext, nil
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return protocol.HopID{}, nil, fmt.Errorf("failed to look up origin %s: %w", origin, err)
	}

	if !n.config.TryKnownPeers {
		if !originKnown {
			return protocol.HopID{}, nil, fmt.Errorf("%w: origin %s", ErrUnknownPeer, origin)
		}
		return protocol.HopID{}, nil, envelope.ErrInvalidSignature
	}

	peers, err := n.peers.ListPeers()
	if err != nil {
		return protocol.HopID{}, nil, fmt.Errorf("failed to list peers: %w", err)
	}

	ids := make([]protocol.HopID, 0, len(peers))
	candidates := make([]crypto.PublicKey, 0, len(peers))
	for _, p := range peers {
		if p.ID == origin {
			continue
		}
		ids = append(ids, p.ID)
		candidates = append(candidates, p.PublicKey)
	}

	plaintext, idx, err := msg.DecryptFromAny(candidates, n.keys)
	if err != nil {
		return protocol.HopID{}, nil, err
	}

	n.log.WithFields(logrus.Fields{
		"origin":      origin.String(),
		"sender":      ids[idx].String(),
		"fingerprint": crypto.Fingerprint(candidates[idx]),
	}).Info("Message verified under a key other than the origin's")

	return ids[idx], plaintext, nil
}
