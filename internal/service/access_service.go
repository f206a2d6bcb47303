package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/openmeet/ticketgate/internal/authority"
	"github.com/openmeet/ticketgate/internal/models"
	repo "github.com/openmeet/ticketgate/internal/repository/redis"
	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
	"github.com/openmeet/ticketgate/pkg/report"
)

type AccessService interface {
	// Evaluate decides whether the gate applies at all: public events
	// bypass it, and a caller already holding a role on a guarded event
	// is let through without a password.
	Evaluate(ev *models.EventRecord, roles []models.Role) AccessState
	// Submit checks a candidate password against the authority — never
	// locally — and on success retains it for the session.
	Submit(ctx context.Context, in SubmitAccessInput) (*SubmitAccessOutput, error)
	// AcceptedPassword returns the capability retained by a prior
	// successful Submit, if any.
	AcceptedPassword(ctx context.Context, sessionID, eventID string) (string, bool)
}

type implAccess struct {
	auth    authority.Client
	gates   repo.GateSessionRepository
	gateTTL time.Duration
	rep     report.Reporter
	l       pkgLog.Logger
}

func NewAccessService(
	auth authority.Client,
	gates repo.GateSessionRepository,
	gateTTL time.Duration,
	rep report.Reporter,
	l pkgLog.Logger,
) AccessService {
	return &implAccess{
		auth:    auth,
		gates:   gates,
		gateTTL: gateTTL,
		rep:     rep,
		l:       l,
	}
}

func (s *implAccess) Evaluate(ev *models.EventRecord, roles []models.Role) AccessState {
	if !ev.IsGuarded() {
		return AccessState{Granted: true}
	}

	if len(roles) > 0 {
		return AccessState{Granted: true}
	}

	return AccessState{RequiresPassword: true}
}

func (s *implAccess) Submit(ctx context.Context, in SubmitAccessInput) (*SubmitAccessOutput, error) {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	valid, err := s.auth.ValidatePassword(ctx, in.EventID, in.CandidatePassword)
	if err != nil {
		// Transport and authority failures are operator problems; only
		// a clean {valid:false} is the user-correctable wrong password.
		s.rep.Report(ctx, "service.implAccess.Submit", err)
		return nil, err
	}

	if !valid {
		return &SubmitAccessOutput{Valid: false, SessionID: sessionID}, nil
	}

	ss := &models.GateSession{
		ID:               sessionID,
		EventID:          in.EventID,
		AcceptedPassword: in.CandidatePassword,
		GrantedAt:        time.Now(),
	}
	if err := s.gates.Save(ctx, ss, s.gateTTL); err != nil {
		s.rep.Report(ctx, "service.implAccess.Submit", err)
		return nil, err
	}

	s.l.Info(ctx, "Gate access granted",
		"session_id", sessionID,
		"event_id", in.EventID,
	)

	return &SubmitAccessOutput{Valid: true, SessionID: sessionID}, nil
}

func (s *implAccess) AcceptedPassword(ctx context.Context, sessionID, eventID string) (string, bool) {
	if sessionID == "" {
		return "", false
	}

	ss, err := s.gates.Get(ctx, sessionID, eventID)
	if err != nil {
		if !errors.Is(err, repo.ErrGateSessionNotFound) {
			s.l.Errorf(ctx, "service.implAccess.AcceptedPassword: %v", err)
		}
		return "", false
	}

	return ss.AcceptedPassword, true
}
