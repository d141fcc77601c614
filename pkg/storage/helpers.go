package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/multiformats/go-multiaddr"
)

// ===== HELPER FUNCTIONS =====

// encodeAddrs stores multiaddrs as a JSON array of their text form
func encodeAddrs(addrs []multiaddr.Multiaddr) (string, error) {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr == nil {
			return "", fmt.Errorf("%w: nil address", ErrInvalidPeer)
		}
		strs = append(strs, addr.String())
	}

	data, err := json.Marshal(strs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeAddrs(data string) ([]multiaddr.Multiaddr, error) {
	var strs []string
	if err := json.Unmarshal([]byte(data), &strs); err != nil {
		return nil, fmt.Errorf("failed to decode addresses: %w", err)
	}

	addrs := make([]multiaddr.Multiaddr, 0, len(strs))
	for _, s := range strs {
		addr, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid stored address %q: %w", s, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// ParseAddrs parses multiaddr strings, e.g. "/ip4/10.0.0.1/udp/1338"
func ParseAddrs(strs ...string) ([]multiaddr.Multiaddr, error) {
	addrs := make([]multiaddr.Multiaddr, 0, len(strs))
	for _, s := range strs {
		addr, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("%w: address %q: %v", ErrInvalidPeer, s, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
