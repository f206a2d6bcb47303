package service

import (
	"github.com/openmeet/ticketgate/internal/models"
)

type ScanInput struct {
	SessionID        string
	EventID          string
	RawPayload       string
	VerifierIdentity []byte
}

// ScanResult is the definite outcome of one scan. Reason carries the
// authority's wording verbatim when the rejection came from it.
type ScanResult struct {
	Outcome        models.ScanOutcome `json:"outcome"`
	Reason         string             `json:"reason,omitempty"`
	ReasonCode     string             `json:"reason_code,omitempty"`
	SignatureHex   string             `json:"signature_hex,omitempty"`
	PublicKeyHex   string             `json:"public_key_hex,omitempty"`
	CheckedInCount int64              `json:"checked_in_count,omitempty"`
	History        []models.ScanEntry `json:"history,omitempty"`
}

type AccessState struct {
	Granted          bool `json:"granted"`
	RequiresPassword bool `json:"requires_password"`
}

type SubmitAccessInput struct {
	SessionID         string `json:"session_id"`
	EventID           string `json:"event_id"`
	CandidatePassword string `json:"candidate_password"`
}

type SubmitAccessOutput struct {
	Valid     bool   `json:"valid"`
	SessionID string `json:"session_id"`
}

// Eligibility is recomputed from a fresh event snapshot on every call;
// nothing here is cached.
type Eligibility struct {
	IsParticipant bool `json:"is_participant"`
	IsStarted     bool `json:"is_started"`
	IsSoldOut     bool `json:"is_sold_out"`
	MaxGuests     int  `json:"max_guests"`
	SpotsLeft     int  `json:"spots_left"`
}

type RegisterInput struct {
	SessionID   string
	EventID     string
	BuyerID     string
	BuyerEmail  string
	GuestEmails []string
	Roles       []models.Role
}

type CheckoutInput struct {
	SessionID   string
	EventID     string
	BuyerEmail  string
	GuestEmails []string
	Roles       []models.Role
	SuccessPath string
	CancelPath  string
}

type CheckoutOutput struct {
	RedirectURL string            `json:"redirect_url"`
	TotalMinor  int64             `json:"total_minor"`
	Currency    string            `json:"currency"`
	LineItems   []models.LineItem `json:"line_items"`
}
