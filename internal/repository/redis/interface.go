package repository

import (
	"context"
	"errors"
	"time"

	"github.com/openmeet/ticketgate/internal/models"
)

var ErrGateSessionNotFound = errors.New("gate session not found")

// GateSessionRepository retains the password a guarded event accepted,
// keyed by (session, event), for as long as the session lives.
type GateSessionRepository interface {
	Save(ctx context.Context, ss *models.GateSession, ttl time.Duration) error
	Get(ctx context.Context, sessionID, eventID string) (*models.GateSession, error)
	Delete(ctx context.Context, sessionID, eventID string) error
}

// ScanLogRepository is the append-only, most-recent-first scan history
// of a verifier session. Informational only; never consulted for
// check-in decisions.
type ScanLogRepository interface {
	Append(ctx context.Context, sessionID string, entry models.ScanEntry, ttl time.Duration) error
	List(ctx context.Context, sessionID string) ([]models.ScanEntry, error)
}
