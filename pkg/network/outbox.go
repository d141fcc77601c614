package network

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
	"github.com/ZentaChain/zentalk-mesh/pkg/storage"
)

var ErrNoOutbox = errors.New("node has no outbox")

// Outbox parks datagrams for next hops that are offline.
// *storage.DatagramQueue implements it.
type Outbox interface {
	Enqueue(nextHop protocol.HopID, datagram []byte) (string, error)
	Pending(nextHop protocol.HopID) ([]*storage.QueuedDatagram, error)
	Remove(id string) error
	MarkAttempt(id string) error
}

// SetOutbox attaches store-and-forward storage. Call before the node is shared.
func (n *Node) SetOutbox(outbox Outbox) {
	n.outbox = outbox
}

// Defer parks a datagram the transport could not hand to nextHop.
// Only structurally valid datagrams are stored.
func (n *Node) Defer(nextHop protocol.HopID, datagram []byte) error {
	if n.outbox == nil {
		return ErrNoOutbox
	}
	if err := protocol.VerifyDatagram(datagram); err != nil {
		return fmt.Errorf("refusing to queue datagram: %w", err)
	}

	id, err := n.outbox.Enqueue(nextHop, datagram)
	if err != nil {
		return err
	}

	n.log.WithFields(logrus.Fields{
		"next_hop": nextHop.String(),
		"id":       id,
	}).Debug("Deferred datagram")
	return nil
}

// Flush hands every parked datagram for nextHop to send, oldest first.
// It stops at the first send error, leaving that datagram and the rest queued,
// and returns how many were sent.
func (n *Node) Flush(nextHop protocol.HopID, send func(datagram []byte) error) (int, error) {
	if n.outbox == nil {
		return 0, ErrNoOutbox
	}

	pending, err := n.outbox.Pending(nextHop)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, qd := range pending {
		// Storage is outside the trust boundary too
		if err := protocol.VerifyDatagram(qd.Datagram); err != nil {
			n.log.WithField("id", qd.ID).Warn("Dropping corrupt queued datagram")
			if err := n.outbox.Remove(qd.ID); err != nil {
				return sent, err
			}
			continue
		}

		if err := send(qd.Datagram); err != nil {
			if markErr := n.outbox.MarkAttempt(qd.ID); markErr != nil {
				n.log.WithError(markErr).Debug("Failed to record delivery attempt")
			}
			return sent, fmt.Errorf("failed to send queued datagram to %s: %w", nextHop, err)
		}

		if err := n.outbox.Remove(qd.ID); err != nil {
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		n.log.WithFields(logrus.Fields{
			"next_hop": nextHop.String(),
			"count":    sent,
		}).Info("Flushed queued datagrams")
	}

	return sent, nil
}
