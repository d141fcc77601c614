package network

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ZentaChain/zentalk-mesh/pkg/crypto"
	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
	"github.com/ZentaChain/zentalk-mesh/pkg/storage"
)

var (
	ErrNotOnRoute  = errors.New("node is not on the message route")
	ErrNotOrigin   = errors.New("route does not start at this node")
	ErrUnknownPeer = errors.New("unknown peer")
)

// PeerDirectory resolves hop ids to peers. *storage.PeerDB implements it.
type PeerDirectory interface {
	GetPeer(id protocol.HopID) (*storage.Peer, error)
	ListPeers() ([]*storage.Peer, error)
	TouchPeer(id protocol.HopID, ts int64) error
}

// Node turns plaintext into datagrams and datagrams into deliveries or
// forwarding decisions. It does no I/O; the transport moves the bytes.
type Node struct {
	config *Config
	keys   *crypto.KeyPair
	peers  PeerDirectory
	outbox Outbox
	log    *logrus.Entry
}

// NewNode creates a node. A nil config is rejected because the node id
// has no sensible default.
func NewNode(config *Config, keys *crypto.KeyPair, peers PeerDirectory) (*Node, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if keys == nil {
		return nil, fmt.Errorf("%w: key pair is required", ErrInvalidConfig)
	}
	if peers == nil {
		return nil, fmt.Errorf("%w: peer directory is required", ErrInvalidConfig)
	}

	level, _ := logrus.ParseLevel(config.LogLevel)
	logger := logrus.New()
	logger.SetLevel(level)

	return &Node{
		config: config,
		keys:   keys,
		peers:  peers,
		log: logger.WithFields(logrus.Fields{
			"component": "network",
			"node":      config.NodeID.String(),
		}),
	}, nil
}

// ID returns this node's hop id
func (n *Node) ID() protocol.HopID {
	return n.config.NodeID
}

// PublicKey returns this node's public key
func (n *Node) PublicKey() crypto.PublicKey {
	return n.keys.Public
}
