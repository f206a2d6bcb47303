// Package ticket codecs the payload embedded in a ticket QR code: an
// optional scheme tag followed by the 32-byte secret in URL-safe
// base64 with padding stripped.
package ticket

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/openmeet/ticketgate/internal/credential"
)

var ErrMalformedTicket = errors.New("malformed ticket payload")

const (
	tagK1   = "k1."
	tagP256 = "p256."
)

// Decode parses a scanned payload into its scheme and secret. Untagged
// payloads belong to the canonical k1 generation. The decoded secret
// must be exactly 32 bytes; anything else is a malformed ticket.
func Decode(raw string) (credential.Scheme, []byte, error) {
	payload := strings.TrimSpace(raw)

	scheme := credential.SchemeK1
	switch {
	case strings.HasPrefix(payload, tagP256):
		scheme = credential.SchemeP256
		payload = payload[len(tagP256):]
	case strings.HasPrefix(payload, tagK1):
		payload = payload[len(tagK1):]
	}

	secret, err := decodeURLSafeBase64(payload)
	if err != nil || len(secret) != credential.SecretSize {
		return credential.Scheme{}, nil, ErrMalformedTicket
	}

	return scheme, secret, nil
}

// Encode is the issuance-side inverse of Decode. The canonical scheme
// is emitted untagged.
func Encode(scheme credential.Scheme, secret []byte) (string, error) {
	if len(secret) != credential.SecretSize {
		return "", ErrMalformedTicket
	}

	encoded := strings.TrimRight(base64.StdEncoding.EncodeToString(secret), "=")
	encoded = strings.NewReplacer("+", "-", "/", "_").Replace(encoded)

	if scheme.Name() == credential.SchemeP256.Name() {
		return tagP256 + encoded, nil
	}
	return encoded, nil
}

// decodeURLSafeBase64 reverses the URL-safe alphabet substitution,
// restores padding and decodes as standard base64.
func decodeURLSafeBase64(s string) ([]byte, error) {
	std := strings.NewReplacer("-", "+", "_", "/").Replace(s)
	if rem := len(std) % 4; rem != 0 {
		std += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(std)
}
