package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ZentaChain/zentalk-mesh/pkg/crypto"
	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
)

// ===== PEER OPERATIONS =====

const peerColumns = `id, alias, public_key, addrs, added_at, last_seen`

// SavePeer adds or updates a peer
func (db *PeerDB) SavePeer(peer *Peer) error {
	if peer.ID.IsZero() {
		return fmt.Errorf("%w: zero hop id", ErrInvalidPeer)
	}
	if peer.PublicKey.IsZero() {
		return fmt.Errorf("%w: missing public key", ErrInvalidPeer)
	}

	addrs, err := encodeAddrs(peer.Addrs)
	if err != nil {
		return err
	}

	if peer.AddedAt == 0 {
		peer.AddedAt = protocol.NowUnixMilli()
	}

	query := `
		INSERT INTO peers (
			id, alias, public_key, fingerprint, addrs, added_at, last_seen
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			alias = excluded.alias,
			public_key = excluded.public_key,
			fingerprint = excluded.fingerprint,
			addrs = excluded.addrs,
			last_seen = MAX(peers.last_seen, excluded.last_seen)
	`

	_, err = db.db.Exec(
		query,
		peer.ID.String(),
		peer.Alias,
		peer.PublicKey.Bytes(),
		peer.Fingerprint(),
		addrs,
		peer.AddedAt,
		peer.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("failed to save peer %s: %w", peer.ID, err)
	}

	return nil
}

// GetPeer retrieves a peer by hop id
func (db *PeerDB) GetPeer(id protocol.HopID) (*Peer, error) {
	row := db.db.QueryRow(`SELECT `+peerColumns+` FROM peers WHERE id = ?`, id.String())
	return scanPeer(row)
}

// GetPeerByFingerprint retrieves a peer by public key fingerprint
func (db *PeerDB) GetPeerByFingerprint(fingerprint string) (*Peer, error) {
	row := db.db.QueryRow(`SELECT `+peerColumns+` FROM peers WHERE fingerprint = ? LIMIT 1`, fingerprint)
	return scanPeer(row)
}

// ListPeers returns all peers, most recently seen first
func (db *PeerDB) ListPeers() ([]*Peer, error) {
	rows, err := db.db.Query(`SELECT ` + peerColumns + ` FROM peers ORDER BY last_seen DESC, added_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var peers []*Peer
	for rows.Next() {
		peer, err := scanPeer(rows)
		if err != nil {
			return nil, err
		}
		peers = append(peers, peer)
	}

	return peers, rows.Err()
}

// TouchPeer records that a peer was seen at ts (Unix ms). Older
// timestamps never overwrite newer ones.
func (db *PeerDB) TouchPeer(id protocol.HopID, ts int64) error {
	result, err := db.db.Exec(
		`UPDATE peers SET last_seen = MAX(last_seen, ?) WHERE id = ?`,
		ts, id.String(),
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// DeletePeer removes a peer
func (db *PeerDB) DeletePeer(id protocol.HopID) error {
	result, err := db.db.Exec(`DELETE FROM peers WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanPeer(row scanner) (*Peer, error) {
	var (
		peer      Peer
		id        string
		publicKey []byte
		addrs     string
	)

	err := row.Scan(&id, &peer.Alias, &publicKey, &addrs, &peer.AddedAt, &peer.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if peer.ID, err = protocol.ParseHopID(id); err != nil {
		return nil, err
	}
	if peer.PublicKey, err = crypto.ParsePublicKey(publicKey); err != nil {
		return nil, err
	}
	if peer.Addrs, err = decodeAddrs(addrs); err != nil {
		return nil, err
	}

	return &peer, nil
}
