package credential

import (
	"encoding/hex"
	"errors"
	"math/big"

	"golang.org/x/crypto/sha3"
)

var ErrInvalidEncoding = errors.New("invalid credential encoding")

// EncodeSignature renders r||s as hex, each component zero-padded to
// the scheme's coordinate width. Dropping leading zeros would corrupt
// the encoded value, so the width is fixed.
func EncodeSignature(scheme Scheme, r, s *big.Int) string {
	size := scheme.coordLen()
	buf := make([]byte, 2*size)
	r.FillBytes(buf[:size])
	s.FillBytes(buf[size:])
	return hex.EncodeToString(buf)
}

func DecodeSignature(scheme Scheme, sigHex string) (r, s *big.Int, err error) {
	raw, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, nil, ErrInvalidEncoding
	}

	size := scheme.coordLen()
	if len(raw) != 2*size {
		return nil, nil, ErrInvalidEncoding
	}

	r = new(big.Int).SetBytes(raw[:size])
	s = new(big.Int).SetBytes(raw[size:])
	return r, s, nil
}

// EncodePublicKey renders the point as zero-padded X||Y.
func EncodePublicKey(scheme Scheme, x, y *big.Int) []byte {
	size := scheme.coordLen()
	buf := make([]byte, 2*size)
	x.FillBytes(buf[:size])
	y.FillBytes(buf[size:])
	return buf
}

func DecodePublicKey(scheme Scheme, raw []byte) (x, y *big.Int, err error) {
	size := scheme.coordLen()
	if len(raw) != 2*size {
		return nil, nil, ErrInvalidEncoding
	}

	x = new(big.Int).SetBytes(raw[:size])
	y = new(big.Int).SetBytes(raw[size:])
	if !scheme.curve.IsOnCurve(x, y) {
		return nil, nil, ErrInvalidEncoding
	}

	return x, y, nil
}

// Challenge is the digest a credential signs at the door: a Keccak-256
// hash of the verifying party's own address. Binding the proof to the
// verifier rather than to event data keeps replayable state out of the
// signature.
func Challenge(verifierIdentity []byte) [32]byte {
	var digest [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(verifierIdentity)
	copy(digest[:], h.Sum(nil))
	return digest
}
