package credential

import (
	"bytes"
	"crypto/ecdsa"
	"math/big"
	"testing"
)

func testSecret(t *testing.T) []byte {
	t.Helper()
	secret := make([]byte, SecretSize)
	for i := range secret {
		secret[i] = byte(i + 1)
	}
	return secret
}

func TestDeriveRejectsBadSecrets(t *testing.T) {
	tests := []struct {
		name   string
		secret func(Scheme) []byte
	}{
		{"nil", func(Scheme) []byte { return nil }},
		{"short", func(Scheme) []byte { return make([]byte, 31) }},
		{"long", func(Scheme) []byte { return make([]byte, 33) }},
		{"zero scalar", func(Scheme) []byte { return make([]byte, SecretSize) }},
		{"scalar equals order", func(s Scheme) []byte {
			buf := make([]byte, SecretSize)
			s.Curve().Params().N.FillBytes(buf)
			return buf
		}},
		{"scalar above order", func(Scheme) []byte {
			return bytes.Repeat([]byte{0xff}, SecretSize)
		}},
	}

	for _, scheme := range []Scheme{SchemeK1, SchemeP256} {
		for _, tt := range tests {
			t.Run(scheme.Name()+"/"+tt.name, func(t *testing.T) {
				if _, err := Derive(scheme, tt.secret(scheme)); err != ErrInvalidSecret {
					t.Fatalf("Derive() error = %v, want ErrInvalidSecret", err)
				}
			})
		}
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	secret := testSecret(t)

	for _, scheme := range []Scheme{SchemeK1, SchemeP256} {
		a, err := Derive(scheme, secret)
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}
		b, err := Derive(scheme, secret)
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}

		if !bytes.Equal(a.PublicKeyBytes(), b.PublicKeyBytes()) {
			t.Errorf("%s: same secret derived different public identities", scheme.Name())
		}
	}
}

func TestSignAlwaysLowS(t *testing.T) {
	secret := testSecret(t)
	digest := Challenge([]byte("verifier-address"))

	for _, scheme := range []Scheme{SchemeK1, SchemeP256} {
		cred, err := Derive(scheme, secret)
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}

		halfN := new(big.Int).Rsh(scheme.Curve().Params().N, 1)

		// The scheme is randomized, so exercise it repeatedly: the
		// low-S property must hold on every single call.
		for i := 0; i < 64; i++ {
			r, s, err := cred.Sign(digest[:])
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}
			if s.Cmp(halfN) > 0 {
				t.Fatalf("%s: Sign() returned high-S value on attempt %d", scheme.Name(), i)
			}
			if r.Sign() == 0 || s.Sign() == 0 {
				t.Fatalf("%s: Sign() returned zero component", scheme.Name())
			}
		}
	}
}

func TestSignaturesVerify(t *testing.T) {
	secret := testSecret(t)
	digest := Challenge([]byte("door-42"))

	for _, scheme := range []Scheme{SchemeK1, SchemeP256} {
		cred, err := Derive(scheme, secret)
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}

		r, s, err := cred.Sign(digest[:])
		if err != nil {
			t.Fatalf("Sign() error = %v", err)
		}

		x, y, err := DecodePublicKey(scheme, cred.PublicKeyBytes())
		if err != nil {
			t.Fatalf("DecodePublicKey() error = %v", err)
		}

		pub := &ecdsa.PublicKey{Curve: scheme.Curve(), X: x, Y: y}
		if !ecdsa.Verify(pub, digest[:], r, s) {
			t.Errorf("%s: normalized signature failed to verify", scheme.Name())
		}
	}
}

func TestSignatureEncodingRoundTrip(t *testing.T) {
	// Small components force leading zero bytes; the fixed-width
	// encoding must preserve them exactly.
	r := big.NewInt(0xBEEF)
	s := big.NewInt(7)

	for _, scheme := range []Scheme{SchemeK1, SchemeP256} {
		encoded := EncodeSignature(scheme, r, s)
		if len(encoded) != 4*scheme.coordLen() {
			t.Fatalf("%s: encoded length = %d, want %d", scheme.Name(), len(encoded), 4*scheme.coordLen())
		}

		r2, s2, err := DecodeSignature(scheme, encoded)
		if err != nil {
			t.Fatalf("DecodeSignature() error = %v", err)
		}
		if r.Cmp(r2) != 0 || s.Cmp(s2) != 0 {
			t.Errorf("%s: round trip changed signature: (%v,%v) != (%v,%v)", scheme.Name(), r, s, r2, s2)
		}
	}
}

func TestPublicKeyEncodingRoundTrip(t *testing.T) {
	secret := testSecret(t)

	for _, scheme := range []Scheme{SchemeK1, SchemeP256} {
		cred, err := Derive(scheme, secret)
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}

		raw := cred.PublicKeyBytes()
		if len(raw) != 2*scheme.coordLen() {
			t.Fatalf("%s: public key length = %d, want %d", scheme.Name(), len(raw), 2*scheme.coordLen())
		}

		x, y, err := DecodePublicKey(scheme, raw)
		if err != nil {
			t.Fatalf("DecodePublicKey() error = %v", err)
		}

		again := EncodePublicKey(scheme, x, y)
		if !bytes.Equal(raw, again) {
			t.Errorf("%s: round trip changed public key bytes", scheme.Name())
		}
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	if _, _, err := DecodeSignature(SchemeK1, "zz"); err != ErrInvalidEncoding {
		t.Errorf("DecodeSignature(non-hex) error = %v, want ErrInvalidEncoding", err)
	}
	if _, _, err := DecodeSignature(SchemeK1, "beef"); err != ErrInvalidEncoding {
		t.Errorf("DecodeSignature(short) error = %v, want ErrInvalidEncoding", err)
	}
	if _, _, err := DecodePublicKey(SchemeK1, make([]byte, 63)); err != ErrInvalidEncoding {
		t.Errorf("DecodePublicKey(short) error = %v, want ErrInvalidEncoding", err)
	}
	if _, _, err := DecodePublicKey(SchemeK1, make([]byte, 64)); err != ErrInvalidEncoding {
		t.Errorf("DecodePublicKey(off-curve) error = %v, want ErrInvalidEncoding", err)
	}
}

func TestChallenge(t *testing.T) {
	a := Challenge([]byte("verifier-a"))
	b := Challenge([]byte("verifier-a"))
	c := Challenge([]byte("verifier-b"))

	if a != b {
		t.Error("Challenge is not deterministic for the same verifier")
	}
	if a == c {
		t.Error("Challenge collided for different verifiers")
	}
}
