package models

import "time"

type ScanOutcome string

const (
	ScanSuccess ScanOutcome = "success"
	ScanFailed  ScanOutcome = "failed"
	// ScanDropped is returned for scans that arrive while another
	// verification is in flight for the same session. Dropped scans are
	// never queued; the operator rescans.
	ScanDropped ScanOutcome = "dropped"
)

// ScanEntry is one line of a session's append-only scan history. The
// history is informational only; the authority holds check-in truth.
type ScanEntry struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	SignatureHex string    `json:"signature_hex"`
	PublicKeyHex string    `json:"public_key_hex"`
	ScannedAt    time.Time `json:"scanned_at"`
}

// GateSession retains the password a guarded event accepted for the
// rest of the session. It is the implicit capability forwarded to
// registration and checkout; there is no separate authenticated
// session concept for guarded events.
type GateSession struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	AcceptedPassword string    `json:"accepted_password"`
	GrantedAt        time.Time `json:"granted_at"`
}
