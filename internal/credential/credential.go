package credential

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"math/big"
)

// SecretSize is the exact length of a ticket secret in bytes.
const SecretSize = 32

var ErrInvalidSecret = errors.New("secret is not a valid private scalar")

// Credential is the keypair deterministically derived from a ticket
// secret. The public point is the ticket's on-the-wire identity; the
// secret itself never leaves the holder. Derivation and signing are
// pure and safe for concurrent use.
type Credential struct {
	scheme Scheme
	key    *ecdsa.PrivateKey
}

// Derive interprets secret as a private scalar on the scheme's curve.
// The secret must be exactly SecretSize bytes and the scalar must lie
// in [1, n-1].
func Derive(scheme Scheme, secret []byte) (*Credential, error) {
	if len(secret) != SecretSize {
		return nil, ErrInvalidSecret
	}

	d := new(big.Int).SetBytes(secret)
	n := scheme.curve.Params().N
	if d.Sign() == 0 || d.Cmp(n) >= 0 {
		return nil, ErrInvalidSecret
	}

	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: scheme.curve},
		D:         d,
	}
	key.X, key.Y = scheme.curve.ScalarBaseMult(secret)

	return &Credential{scheme: scheme, key: key}, nil
}

func (c *Credential) Scheme() Scheme {
	return c.scheme
}

// Sign produces an ECDSA signature over digest with mandatory low-S
// normalization: an s above n/2 is replaced by n-s. Verifiers that
// reject high-S signatures as malleable would otherwise refuse a valid
// proof, so the normalization runs on every call.
func (c *Credential) Sign(digest []byte) (r, s *big.Int, err error) {
	r, s, err = ecdsa.Sign(rand.Reader, c.key, digest)
	if err != nil {
		return nil, nil, err
	}

	n := c.scheme.curve.Params().N
	halfN := new(big.Int).Rsh(n, 1)
	if s.Cmp(halfN) > 0 {
		s = new(big.Int).Sub(n, s)
	}

	return r, s, nil
}

// PublicKeyBytes returns the fixed-width X||Y encoding of the public
// point.
func (c *Credential) PublicKeyBytes() []byte {
	return EncodePublicKey(c.scheme, c.key.X, c.key.Y)
}
