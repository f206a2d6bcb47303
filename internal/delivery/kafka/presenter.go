package kafka

import "time"

// Events published by the ticketing service. The ticket secret never
// appears here; the public identity is the only credential material on
// the wire.

type CheckinCompletedEvent struct {
	EventID        string    `json:"event_id"`
	PublicKeyHex   string    `json:"public_key_hex"`
	SignatureHex   string    `json:"signature_hex"`
	CheckedInCount int64     `json:"checked_in_count"`
	ScannedAt      time.Time `json:"scanned_at"`
	Timestamp      time.Time `json:"timestamp"`
}

type ParticipationRegisteredEvent struct {
	EventID      string    `json:"event_id"`
	BuyerID      string    `json:"buyer_id,omitempty"`
	BuyerEmail   string    `json:"buyer_email,omitempty"`
	GuestCount   int       `json:"guest_count"`
	RegisteredAt time.Time `json:"registered_at"`
	Timestamp    time.Time `json:"timestamp"`
}
