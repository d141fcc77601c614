package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/ZentaChain/zentalk-mesh/pkg/crypto"
	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
)

// DefaultQueueTTL is how long a parked datagram waits for its next hop
const DefaultQueueTTL = 7 * 24 * time.Hour

var queueLog = logrus.WithField("component", "datagram-queue")

// QueuedDatagram is a serialized datagram waiting for its next hop to come back
type QueuedDatagram struct {
	ID        string // BLAKE2b of next hop and datagram, dedups retransmissions
	NextHop   protocol.HopID
	Datagram  []byte
	QueuedAt  int64 // Unix seconds
	ExpiresAt int64
	Attempts  int
}

// DatagramQueue parks datagrams for unreachable next hops
type DatagramQueue struct {
	db  *sql.DB
	ttl time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewDatagramQueue opens (or creates) the queue database at path.
// A zero ttl means DefaultQueueTTL. Expired rows are purged hourly until Close.
func NewDatagramQueue(path string, ttl time.Duration) (*DatagramQueue, error) {
	if ttl == 0 {
		ttl = DefaultQueueTTL
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	q := &DatagramQueue{
		db:   db,
		ttl:  ttl,
		stop: make(chan struct{}),
	}

	if err := q.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	go q.cleanupLoop(time.Hour)

	return q, nil
}

func (q *DatagramQueue) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS queued_datagrams (
		id TEXT PRIMARY KEY,
		next_hop TEXT NOT NULL,
		datagram BLOB NOT NULL,
		queued_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_queued_next_hop ON queued_datagrams(next_hop);
	CREATE INDEX IF NOT EXISTS idx_queued_expires ON queued_datagrams(expires_at);
	`

	if _, err := q.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create queue schema: %w", err)
	}
	return nil
}

// QueueID is the row id Enqueue uses for datagram parked for nextHop
func QueueID(nextHop protocol.HopID, datagram []byte) string {
	key := make([]byte, 0, protocol.HopIDSize+len(datagram))
	key = append(key, nextHop[:]...)
	key = append(key, datagram...)
	return crypto.HashString(key)
}

// Enqueue parks datagram for nextHop. Queuing the same bytes for the same
// hop again keeps one row, returns the same id and restarts its TTL, so a
// row that expired but was not yet purged comes back.
func (q *DatagramQueue) Enqueue(nextHop protocol.HopID, datagram []byte) (string, error) {
	id := QueueID(nextHop, datagram)
	now := time.Now().Unix()
	expiresAt := now + int64(q.ttl.Seconds())

	_, err := q.db.Exec(`
		INSERT INTO queued_datagrams (id, next_hop, datagram, queued_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET expires_at = excluded.expires_at`,
		id, nextHop.String(), datagram, now, expiresAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to queue datagram: %w", err)
	}

	queueLog.WithFields(logrus.Fields{
		"id":       id,
		"next_hop": nextHop.String(),
		"ttl":      q.ttl.String(),
	}).Debug("Queued datagram")

	return id, nil
}

// Pending returns the unexpired datagrams for nextHop, oldest first
func (q *DatagramQueue) Pending(nextHop protocol.HopID) ([]*QueuedDatagram, error) {
	rows, err := q.db.Query(`
		SELECT id, next_hop, datagram, queued_at, expires_at, attempts
		FROM queued_datagrams
		WHERE next_hop = ? AND expires_at > ?
		ORDER BY queued_at ASC, rowid ASC`,
		nextHop.String(), time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get queued datagrams: %w", err)
	}
	defer rows.Close()

	var out []*QueuedDatagram
	for rows.Next() {
		var hop string
		qd := &QueuedDatagram{}
		if err := rows.Scan(&qd.ID, &hop, &qd.Datagram, &qd.QueuedAt, &qd.ExpiresAt, &qd.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan queued datagram: %w", err)
		}
		if qd.NextHop, err = protocol.ParseHopID(hop); err != nil {
			return nil, fmt.Errorf("corrupt next hop %q: %w", hop, err)
		}
		out = append(out, qd)
	}
	return out, rows.Err()
}

// Count returns the number of unexpired datagrams for nextHop
func (q *DatagramQueue) Count(nextHop protocol.HopID) (int, error) {
	var count int
	err := q.db.QueryRow(
		`SELECT COUNT(*) FROM queued_datagrams WHERE next_hop = ? AND expires_at > ?`,
		nextHop.String(), time.Now().Unix(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count queued datagrams: %w", err)
	}
	return count, nil
}

// Remove deletes a datagram after delivery
func (q *DatagramQueue) Remove(id string) error {
	if _, err := q.db.Exec(`DELETE FROM queued_datagrams WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove queued datagram: %w", err)
	}
	return nil
}

// MarkAttempt bumps the delivery attempt counter
func (q *DatagramQueue) MarkAttempt(id string) error {
	_, err := q.db.Exec(`UPDATE queued_datagrams SET attempts = attempts + 1 WHERE id = ?`, id)
	return err
}

// Purge deletes expired datagrams and returns how many went
func (q *DatagramQueue) Purge() (int64, error) {
	result, err := q.db.Exec(`DELETE FROM queued_datagrams WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge queue: %w", err)
	}
	return result.RowsAffected()
}

func (q *DatagramQueue) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			count, err := q.Purge()
			if err != nil {
				queueLog.WithError(err).Warn("Failed to purge expired datagrams")
				continue
			}
			if count > 0 {
				queueLog.WithField("count", count).Info("Purged expired datagrams")
			}
		}
	}
}

// Close stops the cleanup loop and closes the database
func (q *DatagramQueue) Close() error {
	q.stopOnce.Do(func() { close(q.stop) })
	return q.db.Close()
}
