package ticket

import (
	"bytes"
	"strings"
	"testing"

	"github.com/openmeet/ticketgate/internal/credential"
)

func TestDecodeRoundTrip(t *testing.T) {
	// 0xfb 0xef ... produces '-' and '_' characters in the URL-safe
	// alphabet, exercising the substitution path.
	secret := bytes.Repeat([]byte{0xfb, 0xef}, 16)

	for _, scheme := range []credential.Scheme{credential.SchemeK1, credential.SchemeP256} {
		payload, err := Encode(scheme, secret)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if strings.ContainsAny(payload, "+/=") {
			t.Errorf("payload %q contains non-URL-safe characters", payload)
		}

		gotScheme, gotSecret, err := Decode(payload)
		if err != nil {
			t.Fatalf("Decode(%q) error = %v", payload, err)
		}
		if gotScheme.Name() != scheme.Name() {
			t.Errorf("Decode() scheme = %s, want %s", gotScheme.Name(), scheme.Name())
		}
		if !bytes.Equal(gotSecret, secret) {
			t.Errorf("Decode() secret does not round trip")
		}
	}
}

func TestDecodeUntaggedIsCanonical(t *testing.T) {
	secret := bytes.Repeat([]byte{0x11}, credential.SecretSize)
	payload, err := Encode(credential.SchemeK1, secret)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if strings.Contains(payload, ".") {
		t.Fatalf("canonical payload %q should be untagged", payload)
	}

	scheme, _, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if scheme.Name() != credential.SchemeK1.Name() {
		t.Errorf("untagged payload decoded as %s, want k1", scheme.Name())
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not base64 at all!!!"},
		{"too short", "AAAA"},
		{"too long", strings.Repeat("A", 60)},
		{"tagged garbage", "p256.%%%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(tt.raw); err != ErrMalformedTicket {
				t.Errorf("Decode(%q) error = %v, want ErrMalformedTicket", tt.raw, err)
			}
		})
	}
}

func TestEncodeRejectsBadLength(t *testing.T) {
	if _, err := Encode(credential.SchemeK1, make([]byte, 16)); err != ErrMalformedTicket {
		t.Errorf("Encode(short secret) error = %v, want ErrMalformedTicket", err)
	}
}
