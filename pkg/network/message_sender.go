package network

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ZentaChain/zentalk-mesh/pkg/envelope"
	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
	"github.com/ZentaChain/zentalk-mesh/pkg/storage"
)

// Outbound is a datagram ready for the transport
type Outbound struct {
	NextHop  protocol.HopID // First relay (or the destination on a direct route)
	Datagram []byte
}

// Compose encrypts plaintext for the destination of route and signs it
// with this node's key. The route must start at this node.
func (n *Node) Compose(plaintext []byte, route protocol.Route) (*Outbound, error) {
	if err := route.Validate(n.config.MaxRouteHops); err != nil {
		return nil, err
	}

	if origin, _ := route.Origin(); origin != n.config.NodeID {
		return nil, fmt.Errorf("%w: origin %s", ErrNotOrigin, origin)
	}

	// Look up the destination key
	dest, _ := route.Destination()
	peer, err := n.peers.GetPeer(dest)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: destination %s", ErrUnknownPeer, dest)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up destination %s: %w", dest, err)
	}

	msg, err := envelope.Build(plaintext, route, peer.PublicKey, n.keys)
	if err != nil {
		return nil, fmt.Errorf("failed to build message for %s: %w", dest, err)
	}

	next, _ := route.NextHop(n.config.NodeID)
	out := &Outbound{
		NextHop:  next,
		Datagram: msg.Serialize(),
	}

	n.log.WithFields(logrus.Fields{
		"destination": dest.String(),
		"next_hop":    next.String(),
		"hops":        len(route),
		"size":        len(out.Datagram),
	}).Debug("Composed datagram")

	return out, nil
}
