// Package authority defines the boundary to the external event/ticket
// authority and the payment collaborator. The authority is the single
// source of truth for events, participation and check-in state; this
// service only ever reads fresh snapshots and submits requests.
package authority

import (
	"context"
	"errors"
	"fmt"

	"github.com/openmeet/ticketgate/internal/models"
)

// Rejection codes the authority is known to return. Anything else is
// surfaced with its message as a generic rejection.
const (
	CodeAlreadyCheckedIn   = "already_checked_in"
	CodeUnknownTicket      = "unknown_ticket"
	CodeEventNotFound      = "event_not_found"
	CodeAlreadyParticipant = "already_participant"
	CodeEventStarted       = "event_started"
	CodeSoldOut            = "sold_out"
)

// Error is an explicit rejection from the authority, carrying its
// reason verbatim.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("authority rejected: %s - %s", e.Code, e.Message)
}

// TransportError wraps network-level failures: the authority being
// down and a timeout are indistinguishable and handled identically.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("authority unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRejection reports whether err is an authority rejection with the
// given code.
func IsRejection(err error, code string) bool {
	var aErr *Error
	return errors.As(err, &aErr) && aErr.Code == code
}

type CheckinReceipt struct {
	EventID      string `json:"event_id"`
	SignatureHex string `json:"signature_hex"`
	PublicKey    []byte `json:"public_key"`
}

type RegisterRequest struct {
	EventID          string   `json:"event_id"`
	BuyerID          string   `json:"buyer_id,omitempty"`
	BuyerEmail       string   `json:"buyer_email,omitempty"`
	GuestEmails      []string `json:"guest_emails,omitempty"`
	AcceptedPassword string   `json:"accepted_password,omitempty"`
}

type CheckoutRequest struct {
	EventID          string            `json:"event_id"`
	LineItems        []models.LineItem `json:"line_items"`
	SuccessPath      string            `json:"success_path"`
	CancelPath       string            `json:"cancel_path"`
	AcceptedPassword string            `json:"accepted_password,omitempty"`
}

type Client interface {
	GetEvent(ctx context.Context, eventID string) (*models.EventRecord, error)
	ValidatePassword(ctx context.Context, eventID, candidate string) (bool, error)
	RegisterParticipants(ctx context.Context, req RegisterRequest) error
	// SubmitCheckin submits a receipt exactly once per scan and returns
	// the refreshed checked-in count. Replay rejection is the
	// authority's job; nothing is deduplicated locally.
	SubmitCheckin(ctx context.Context, receipt CheckinReceipt) (int64, error)
	CheckedInCount(ctx context.Context, eventID string) (int64, error)
	UpdateGatekeepers(ctx context.Context, eventID string, emails []string) error
}

// PaymentGateway builds a hosted checkout session and hands back the
// redirect URL. This service never talks to the payment provider
// beyond that.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
}
