package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/multiformats/go-multiaddr"

	"github.com/ZentaChain/zentalk-mesh/pkg/crypto"
	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPeer = errors.New("invalid peer")
)

// PeerDB is the local directory of known mesh peers
type PeerDB struct {
	db *sql.DB
}

// Peer is a directory entry: who a hop id is and how to reach it
type Peer struct {
	ID        protocol.HopID
	Alias     string
	PublicKey crypto.PublicKey
	Addrs     []multiaddr.Multiaddr // Transport addresses, may be empty
	AddedAt   int64                 // Unix timestamp (ms)
	LastSeen  int64                 // Unix timestamp (ms), 0 if never seen
}

// Fingerprint returns the fingerprint of the peer's public key
func (p *Peer) Fingerprint() string {
	return crypto.Fingerprint(p.PublicKey)
}

// NewPeerDB opens (or creates) the peer directory at dbPath.
// Use ":memory:" for a throwaway directory.
func NewPeerDB(dbPath string) (*PeerDB, error) {
	// Open SQLite database
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases consistent
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	pdb := &PeerDB{db: db}

	// Initialize schema
	if err := pdb.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return pdb, nil
}

// initSchema creates database tables
func (db *PeerDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS peers (
		id TEXT PRIMARY KEY,
		alias TEXT NOT NULL DEFAULT '',
		public_key BLOB NOT NULL,
		fingerprint TEXT NOT NULL,
		addrs TEXT NOT NULL DEFAULT '[]',
		added_at INTEGER NOT NULL,
		last_seen INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_peers_fingerprint ON peers(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_peers_last_seen ON peers(last_seen DESC);
	`

	if _, err := db.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *PeerDB) Close() error {
	return db.db.Close()
}
