package network

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
)

var (
	ErrInvalidConfig = errors.New("invalid network config")
)

// Default configuration values
const (
	DefaultMaxRouteHops = 16
	DefaultLogLevel     = "info"
)

// Config holds node message handling configuration
type Config struct {
	NodeID        protocol.HopID // This node's position on routes
	MaxRouteHops  int            // Longest route Compose accepts
	TryKnownPeers bool           // Retry every known peer key when the origin's key fails
	LogLevel      string         // logrus level name
}

// DefaultConfig returns default configuration for the given node
func DefaultConfig(nodeID protocol.HopID) *Config {
	return &Config{
		NodeID:        nodeID,
		MaxRouteHops:  DefaultMaxRouteHops,
		TryKnownPeers: true,
		LogLevel:      DefaultLogLevel,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.NodeID.IsZero() {
		return fmt.Errorf("%w: node id is required", ErrInvalidConfig)
	}

	if c.MaxRouteHops < 2 {
		return fmt.Errorf("%w: max route hops must be at least 2, got %d", ErrInvalidConfig, c.MaxRouteHops)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}
