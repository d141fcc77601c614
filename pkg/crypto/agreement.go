package crypto

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/curve25519"
)

// SharedSecretSize is the size of an X25519 shared secret
const SharedSecretSize = 32

// SharedSecret derives the secret shared between the owner of peer and the
// owner of priv. It is commutative:
//
//	SharedSecret(a.Public, &b.Private) == SharedSecret(b.Public, &a.Private)
//
// Peer keys that land on a low-order point are rejected with ErrInvalidKey.
func SharedSecret(peer PublicKey, priv *PrivateKey) ([]byte, error) {
	secret, err := curve25519.X25519(priv.Exchange[:], peer.Exchange[:])
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "SharedSecret",
			"fingerprint": Fingerprint(peer),
		}).Debug("X25519 rejected peer key")
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return secret, nil
}
