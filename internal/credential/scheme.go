package credential

import (
	"crypto/elliptic"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Scheme identifies the curve a ticket generation signs with. Two
// generations of tickets exist in the wild; the payload's tag picks
// the scheme so a verifier can dispatch without guessing.
type Scheme struct {
	name  string
	curve elliptic.Curve
}

var (
	// SchemeK1 is the canonical scheme for current tickets.
	SchemeK1 = Scheme{name: "k1", curve: secp256k1.S256()}

	// SchemeP256 covers the earlier ticket generation.
	SchemeP256 = Scheme{name: "p256", curve: elliptic.P256()}
)

func (s Scheme) Name() string {
	return s.name
}

func (s Scheme) Curve() elliptic.Curve {
	return s.curve
}

// coordLen is the fixed width of one encoded coordinate or signature
// component. 32 bytes for both supported curves.
func (s Scheme) coordLen() int {
	return (s.curve.Params().BitSize + 7) / 8
}
