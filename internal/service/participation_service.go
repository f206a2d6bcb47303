package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/openmeet/ticketgate/internal/authority"
	kafka "github.com/openmeet/ticketgate/internal/delivery/kafka"
	"github.com/openmeet/ticketgate/internal/delivery/kafka/producer"
	"github.com/openmeet/ticketgate/internal/models"
	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
	"github.com/openmeet/ticketgate/pkg/report"
)

type ParticipationService interface {
	Eligibility(ev *models.EventRecord, roles []models.Role, now time.Time) Eligibility
	// RegisterAuthenticated and RegisterGuest funnel into one authority
	// submission; the only difference is which buyer identity is
	// required up front.
	RegisterAuthenticated(ctx context.Context, in RegisterInput) error
	RegisterGuest(ctx context.Context, in RegisterInput) error
	AddGatekeeper(ctx context.Context, eventID, email string) ([]string, error)
	RemoveGatekeeper(ctx context.Context, eventID, email string) ([]string, error)
}

// EligibilityFor derives the booleans the registration rules run on.
// The -1 in MaxGuests reserves a place for the buyer.
func EligibilityFor(ev *models.EventRecord, roles []models.Role, now time.Time) Eligibility {
	spotsLeft := ev.SpotsLeft()

	maxGuests := spotsLeft - 1
	if maxGuests < 0 {
		maxGuests = 0
	}

	return Eligibility{
		IsParticipant: slices.Contains(roles, models.RoleParticipant),
		IsStarted:     !now.Before(ev.StartAt),
		IsSoldOut:     spotsLeft <= 0,
		MaxGuests:     maxGuests,
		SpotsLeft:     spotsLeft,
	}
}

type implParticipation struct {
	auth     authority.Client
	access   AccessService
	prod     producer.Producer
	rep      report.Reporter
	l        pkgLog.Logger
	debounce time.Duration

	mu      sync.Mutex
	editors map[string]*RosterEditor
}

func NewParticipationService(
	auth authority.Client,
	access AccessService,
	prod producer.Producer,
	rep report.Reporter,
	l pkgLog.Logger,
	rosterDebounce time.Duration,
) ParticipationService {
	return &implParticipation{
		auth:     auth,
		access:   access,
		prod:     prod,
		rep:      rep,
		l:        l,
		debounce: rosterDebounce,
		editors:  make(map[string]*RosterEditor),
	}
}

func (s *implParticipation) Eligibility(ev *models.EventRecord, roles []models.Role, now time.Time) Eligibility {
	return EligibilityFor(ev, roles, now)
}

func (s *implParticipation) RegisterAuthenticated(ctx context.Context, in RegisterInput) error {
	return s.register(ctx, in, true)
}

func (s *implParticipation) RegisterGuest(ctx context.Context, in RegisterInput) error {
	return s.register(ctx, in, false)
}

func (s *implParticipation) register(ctx context.Context, in RegisterInput, authenticated bool) error {
	ev, err := s.auth.GetEvent(ctx, in.EventID)
	if err != nil {
		s.rep.Report(ctx, "service.implParticipation.register", err)
		return err
	}

	// First failing rule wins; nothing reaches the authority until the
	// local pre-checks pass.
	elig := EligibilityFor(ev, in.Roles, time.Now())
	switch {
	case elig.IsStarted:
		return ErrEventStarted
	case elig.IsSoldOut:
		return ErrSoldOut
	case len(in.GuestEmails) > elig.MaxGuests:
		return ErrCapacityExceeded
	case !authenticated && in.BuyerEmail == "":
		return ErrMissingEmail
	}

	req := authority.RegisterRequest{
		EventID:     in.EventID,
		BuyerID:     in.BuyerID,
		BuyerEmail:  in.BuyerEmail,
		GuestEmails: in.GuestEmails,
	}
	if pwd, ok := s.access.AcceptedPassword(ctx, in.SessionID, in.EventID); ok {
		req.AcceptedPassword = pwd
	}

	if err := s.auth.RegisterParticipants(ctx, req); err != nil {
		if authority.IsRejection(err, authority.CodeAlreadyParticipant) {
			// Benign race (double submit); idempotent success for the
			// caller and deliberately kept off the operator channel.
			s.l.Info(ctx, "Registration already recorded",
				"event_id", in.EventID,
				"buyer_id", in.BuyerID,
			)
			return nil
		}

		s.rep.Report(ctx, "service.implParticipation.register", err)
		return err
	}

	if err := s.prod.PublishParticipationRegistered(ctx, kafka.ParticipationRegisteredEvent{
		EventID:      in.EventID,
		BuyerID:      in.BuyerID,
		BuyerEmail:   in.BuyerEmail,
		GuestCount:   len(in.GuestEmails),
		RegisteredAt: time.Now(),
	}); err != nil {
		s.l.Errorf(ctx, "service.implParticipation.register: %v", err)
	}

	s.l.Info(ctx, "Participation registered",
		"event_id", in.EventID,
		"guest_count", len(in.GuestEmails),
	)

	return nil
}

func (s *implParticipation) AddGatekeeper(ctx context.Context, eventID, email string) ([]string, error) {
	ed, err := s.editor(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ed.Add(ctx, email)
	return ed.Pending(), nil
}

func (s *implParticipation) RemoveGatekeeper(ctx context.Context, eventID, email string) ([]string, error) {
	ed, err := s.editor(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ed.Remove(ctx, email)
	return ed.Pending(), nil
}

// editor lazily seeds one RosterEditor per event from a fresh snapshot.
func (s *implParticipation) editor(ctx context.Context, eventID string) (*RosterEditor, error) {
	s.mu.Lock()
	if ed, ok := s.editors[eventID]; ok {
		s.mu.Unlock()
		return ed, nil
	}
	s.mu.Unlock()

	ev, err := s.auth.GetEvent(ctx, eventID)
	if err != nil {
		s.rep.Report(ctx, "service.implParticipation.editor", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ed, ok := s.editors[eventID]; ok {
		return ed, nil
	}

	apply := func(ctx context.Context, target []string) error {
		return s.auth.UpdateGatekeepers(ctx, eventID, target)
	}
	ed := NewRosterEditor(ev.Gatekeepers, s.debounce, apply, s.rep, s.l)
	s.editors[eventID] = ed

	return ed, nil
}
