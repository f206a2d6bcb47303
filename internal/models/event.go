package models

import "time"

type PrivacyMode string

const (
	PrivacyPublic  PrivacyMode = "public"
	PrivacyGuarded PrivacyMode = "guarded"
)

type Role string

const (
	RoleOrganizer   Role = "organizer"
	RoleParticipant Role = "participant"
	RoleGatekeeper  Role = "gatekeeper"
)

// Price amounts are in minor units (cents). Amount 0 means free; a
// single event may mix free and paid prices across its groups.
type Price struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

type PriceGroup struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Prices []Price `json:"prices"`
}

// EventRecord is owned by the external event authority. It is fetched
// fresh before each decision and never cached here.
type EventRecord struct {
	ID               string       `json:"id"`
	Capacity         int          `json:"capacity"`
	ParticipantCount int          `json:"participant_count"`
	StartAt          time.Time    `json:"start_at"`
	EndAt            time.Time    `json:"end_at"`
	Privacy          PrivacyMode  `json:"privacy"`
	PriceGroups      []PriceGroup `json:"price_groups,omitempty"`
	Gatekeepers      []string     `json:"gatekeepers,omitempty"`
}

// SpotsLeft may be negative when the authority has oversold; callers
// treat anything <= 0 as sold out. Capacity 0 means no places at all.
func (e *EventRecord) SpotsLeft() int {
	return e.Capacity - e.ParticipantCount
}

func (e *EventRecord) IsGuarded() bool {
	return e.Privacy == PrivacyGuarded
}

type LineItem struct {
	ID            string `json:"id"`
	PriceID       string `json:"price_id"`
	AttendeeEmail string `json:"attendee_email"`
}
