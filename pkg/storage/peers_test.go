package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-mesh/pkg/crypto"
	"github.com/ZentaChain/zentalk-mesh/pkg/protocol"
)

func openTestDB(t *testing.T) *PeerDB {
	t.Helper()

	db, err := NewPeerDB(filepath.Join(t.TempDir(), "peers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func newTestPeer(t *testing.T, alias string) *Peer {
	t.Helper()

	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	return &Peer{
		ID:        protocol.NewHopID(),
		Alias:     alias,
		PublicKey: kp.Public,
	}
}

func TestSaveAndGetPeer(t *testing.T) {
	db := openTestDB(t)

	peer := newTestPeer(t, "relay-1")
	addrs, err := ParseAddrs("/ip4/235.17.10.20/udp/1338", "/ip6/::1/tcp/1337")
	require.NoError(t, err)
	peer.Addrs = addrs

	require.NoError(t, db.SavePeer(peer))
	assert.NotZero(t, peer.AddedAt, "SavePeer() should stamp AddedAt")

	got, err := db.GetPeer(peer.ID)
	require.NoError(t, err)

	assert.Equal(t, peer.ID, got.ID)
	assert.Equal(t, "relay-1", got.Alias)
	assert.True(t, peer.PublicKey.Equal(got.PublicKey))
	assert.Equal(t, peer.AddedAt, got.AddedAt)
	require.Len(t, got.Addrs, 2)
	assert.Equal(t, "/ip4/235.17.10.20/udp/1338", got.Addrs[0].String())
	assert.Equal(t, "/ip6/::1/tcp/1337", got.Addrs[1].String())
}

func TestGetPeerNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetPeer(protocol.NewHopID())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetPeerByFingerprint("deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPeerByFingerprint(t *testing.T) {
	db := openTestDB(t)

	peer := newTestPeer(t, "alice")
	require.NoError(t, db.SavePeer(peer))
	require.NoError(t, db.SavePeer(newTestPeer(t, "bob")))

	got, err := db.GetPeerByFingerprint(peer.Fingerprint())
	require.NoError(t, err)
	assert.Equal(t, peer.ID, got.ID)
}

func TestSavePeerUpsert(t *testing.T) {
	db := openTestDB(t)

	peer := newTestPeer(t, "old alias")
	peer.LastSeen = 500
	require.NoError(t, db.SavePeer(peer))

	rotated, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	updated := &Peer{
		ID:        peer.ID,
		Alias:     "new alias",
		PublicKey: rotated.Public,
		LastSeen:  100,
	}
	require.NoError(t, db.SavePeer(updated))

	got, err := db.GetPeer(peer.ID)
	require.NoError(t, err)

	assert.Equal(t, "new alias", got.Alias)
	assert.True(t, rotated.Public.Equal(got.PublicKey), "public key not replaced")
	assert.Equal(t, peer.AddedAt, got.AddedAt, "AddedAt must survive updates")
	assert.Equal(t, int64(500), got.LastSeen, "LastSeen must not go backwards")

	// The old fingerprint no longer resolves
	_, err = db.GetPeerByFingerprint(peer.Fingerprint())
	assert.ErrorIs(t, err, ErrNotFound)

	peers, err := db.ListPeers()
	require.NoError(t, err)
	assert.Len(t, peers, 1)
}

func TestSavePeerRejectsInvalid(t *testing.T) {
	db := openTestDB(t)

	noID := newTestPeer(t, "no id")
	noID.ID = protocol.HopID{}

	noKey := newTestPeer(t, "no key")
	noKey.PublicKey = crypto.PublicKey{}

	for _, peer := range []*Peer{noID, noKey} {
		err := db.SavePeer(peer)
		if !errors.Is(err, ErrInvalidPeer) {
			t.Errorf("SavePeer(%s) error = %v, want ErrInvalidPeer", peer.Alias, err)
		}
	}
}

func TestParseAddrsRejectsGarbage(t *testing.T) {
	_, err := ParseAddrs("/ip4/10.0.0.1/udp/1338", "not a multiaddr")
	assert.ErrorIs(t, err, ErrInvalidPeer)
}

func TestListPeersOrder(t *testing.T) {
	db := openTestDB(t)

	stale := newTestPeer(t, "stale")
	stale.LastSeen = 1000
	fresh := newTestPeer(t, "fresh")
	fresh.LastSeen = 3000
	never := newTestPeer(t, "never")

	for _, p := range []*Peer{stale, never, fresh} {
		require.NoError(t, db.SavePeer(p))
	}

	peers, err := db.ListPeers()
	require.NoError(t, err)
	require.Len(t, peers, 3)

	assert.Equal(t, "fresh", peers[0].Alias)
	assert.Equal(t, "stale", peers[1].Alias)
	assert.Equal(t, "never", peers[2].Alias)
}

func TestTouchPeer(t *testing.T) {
	db := openTestDB(t)

	peer := newTestPeer(t, "relay")
	require.NoError(t, db.SavePeer(peer))

	require.NoError(t, db.TouchPeer(peer.ID, 2000))
	require.NoError(t, db.TouchPeer(peer.ID, 1000))

	got, err := db.GetPeer(peer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.LastSeen)

	assert.ErrorIs(t, db.TouchPeer(protocol.NewHopID(), 1), ErrNotFound)
}

func TestDeletePeer(t *testing.T) {
	db := openTestDB(t)

	peer := newTestPeer(t, "gone")
	require.NoError(t, db.SavePeer(peer))

	require.NoError(t, db.DeletePeer(peer.ID))

	_, err := db.GetPeer(peer.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.DeletePeer(peer.ID), ErrNotFound)
}

func TestPeerDBPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.db")

	db, err := NewPeerDB(path)
	require.NoError(t, err)

	peer := newTestPeer(t, "durable")
	require.NoError(t, db.SavePeer(peer))
	require.NoError(t, db.Close())

	reopened, err := NewPeerDB(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetPeer(peer.ID)
	require.NoError(t, err)
	assert.Equal(t, "durable", got.Alias)
	assert.Empty(t, got.Addrs)
}
