package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
)

func openTestQueue(t *testing.T, ttl time.Duration) *DatagramQueue {
	t.Helper()

	q, err := NewDatagramQueue(filepath.Join(t.TempDir(), "queue.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })

	return q
}

func TestDatagramQueueEnqueuePending(t *testing.T) {
	q := openTestQueue(t, 0)
	hop := protocol.NewHopID()
	other := protocol.NewHopID()

	first := []byte("first datagram")
	second := []byte("second datagram")

	id1, err := q.Enqueue(hop, first)
	require.NoError(t, err)
	assert.Equal(t, QueueID(hop, first), id1)

	_, err = q.Enqueue(hop, second)
	require.NoError(t, err)
	_, err = q.Enqueue(other, []byte("elsewhere"))
	require.NoError(t, err)

	pending, err := q.Pending(hop)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first, pending[0].Datagram)
	assert.Equal(t, second, pending[1].Datagram)
	assert.Equal(t, hop, pending[0].NextHop)
	assert.Zero(t, pending[0].Attempts)
	assert.Greater(t, pending[0].ExpiresAt, pending[0].QueuedAt)

	count, err := q.Count(other)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDatagramQueueDedup(t *testing.T) {
	q := openTestQueue(t, 0)
	hop := protocol.NewHopID()

	id1, err := q.Enqueue(hop, []byte("same"))
	require.NoError(t, err)
	id2, err := q.Enqueue(hop, []byte("same"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	count, err := q.Count(hop)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDatagramQueueSameBytesDifferentHops(t *testing.T) {
	q := openTestQueue(t, 0)
	hop1 := protocol.NewHopID()
	hop2 := protocol.NewHopID()
	datagram := []byte("one datagram, two hops")

	id1, err := q.Enqueue(hop1, datagram)
	require.NoError(t, err)
	id2, err := q.Enqueue(hop2, datagram)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	for _, hop := range []protocol.HopID{hop1, hop2} {
		pending, err := q.Pending(hop)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, datagram, pending[0].Datagram)
	}
}

func TestDatagramQueueRequeueRefreshesExpiry(t *testing.T) {
	q := openTestQueue(t, -time.Second)
	hop := protocol.NewHopID()
	datagram := []byte("came back online too late")

	id, err := q.Enqueue(hop, datagram)
	require.NoError(t, err)

	pending, err := q.Pending(hop)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Expired but not purged; queue it again with a live TTL
	q.ttl = time.Hour
	again, err := q.Enqueue(hop, datagram)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	pending, err = q.Pending(hop)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, datagram, pending[0].Datagram)
}

func TestDatagramQueueRemoveAndAttempts(t *testing.T) {
	q := openTestQueue(t, 0)
	hop := protocol.NewHopID()

	id, err := q.Enqueue(hop, []byte("retry me"))
	require.NoError(t, err)

	require.NoError(t, q.MarkAttempt(id))
	require.NoError(t, q.MarkAttempt(id))

	pending, err := q.Pending(hop)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Attempts)

	require.NoError(t, q.Remove(id))
	pending, err = q.Pending(hop)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDatagramQueueExpiry(t *testing.T) {
	q := openTestQueue(t, -time.Second)
	hop := protocol.NewHopID()

	_, err := q.Enqueue(hop, []byte("stale"))
	require.NoError(t, err)

	pending, err := q.Pending(hop)
	require.NoError(t, err)
	assert.Empty(t, pending, "expired datagrams are not returned")

	purged, err := q.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestDatagramQueueCloseTwice(t *testing.T) {
	q, err := NewDatagramQueue(filepath.Join(t.TempDir(), "queue.db"), 0)
	require.NoError(t, err)

	require.NoError(t, q.Close())
	assert.NotPanics(t, func() { q.Close() })
}
