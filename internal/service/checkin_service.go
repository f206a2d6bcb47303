package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openmeet/ticketgate/internal/authority"
	"github.com/openmeet/ticketgate/internal/credential"
	kafka "github.com/openmeet/ticketgate/internal/delivery/kafka"
	"github.com/openmeet/ticketgate/internal/delivery/kafka/producer"
	"github.com/openmeet/ticketgate/internal/models"
	repo "github.com/openmeet/ticketgate/internal/repository/redis"
	"github.com/openmeet/ticketgate/internal/ticket"
	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
	"github.com/openmeet/ticketgate/pkg/report"
)

type CheckinService interface {
	// Scan runs one verification: decode the payload, derive the
	// credential, sign the verifier's challenge and submit the receipt.
	// The result is always definite; a scan that arrives while another
	// one is verifying for the same session is dropped, not queued.
	Scan(ctx context.Context, in ScanInput) *ScanResult
	History(ctx context.Context, sessionID string) ([]models.ScanEntry, error)
	CheckedInCount(ctx context.Context, eventID string) (int64, error)
}

type implCheckin struct {
	auth    authority.Client
	scans   repo.ScanLogRepository
	prod    producer.Producer
	rep     report.Reporter
	l       pkgLog.Logger
	scanTTL time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewCheckinService(
	auth authority.Client,
	scans repo.ScanLogRepository,
	prod producer.Producer,
	rep report.Reporter,
	l pkgLog.Logger,
	scanTTL time.Duration,
) CheckinService {
	return &implCheckin{
		auth:     auth,
		scans:    scans,
		prod:     prod,
		rep:      rep,
		l:        l,
		scanTTL:  scanTTL,
		inFlight: make(map[string]struct{}),
	}
}

func (s *implCheckin) Scan(ctx context.Context, in ScanInput) (res *ScanResult) {
	if !s.begin(in.SessionID) {
		return &ScanResult{
			Outcome:    models.ScanDropped,
			Reason:     ErrScanInFlight.Error(),
			ReasonCode: "scan_in_flight",
		}
	}
	defer s.release(in.SessionID)

	// The scanner must always get a definite outcome; a defect in
	// decode or signing becomes a failed result, never a crash.
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during scan verification: %v", r)
			s.rep.Report(ctx, "service.implCheckin.Scan", err)
			res = failedScan("scan could not be verified", "internal_error")
		}
	}()

	return s.verify(ctx, in)
}

func (s *implCheckin) verify(ctx context.Context, in ScanInput) *ScanResult {
	if len(in.VerifierIdentity) == 0 {
		return failedScan(ErrMissingVerifier.Error(), "missing_verifier")
	}

	scheme, secret, err := ticket.Decode(in.RawPayload)
	if err != nil {
		return failedScan(err.Error(), "malformed_ticket")
	}

	cred, err := credential.Derive(scheme, secret)
	if err != nil {
		// An out-of-range scalar is effectively a malformed ticket.
		return failedScan(err.Error(), "invalid_secret")
	}

	digest := credential.Challenge(in.VerifierIdentity)
	r, sv, err := cred.Sign(digest[:])
	if err != nil {
		s.rep.Report(ctx, "service.implCheckin.verify", err)
		return failedScan("scan could not be verified", "internal_error")
	}

	sigHex := credential.EncodeSignature(scheme, r, sv)
	pubKey := cred.PublicKeyBytes()

	count, err := s.auth.SubmitCheckin(ctx, authority.CheckinReceipt{
		EventID:      in.EventID,
		SignatureHex: sigHex,
		PublicKey:    pubKey,
	})
	if err != nil {
		var aErr *authority.Error
		if errors.As(err, &aErr) {
			// Authority rejections carry their reason verbatim and are
			// not retried; the operator rescans.
			s.l.Warnf(ctx, "service.implCheckin.verify: check-in rejected: %v", aErr)
			return failedScan(aErr.Message, aErr.Code)
		}

		s.rep.Report(ctx, "service.implCheckin.verify", err)
		return failedScan("check-in service unavailable", "transport_failure")
	}

	entry := models.ScanEntry{
		ID:           uuid.NewString(),
		EventID:      in.EventID,
		SignatureHex: sigHex,
		PublicKeyHex: hex.EncodeToString(pubKey),
		ScannedAt:    time.Now(),
	}

	// History is informational; losing an entry does not fail the scan.
	if err := s.scans.Append(ctx, in.SessionID, entry, s.scanTTL); err != nil {
		s.l.Errorf(ctx, "service.implCheckin.verify: failed to append scan history: %v", err)
	}

	if err := s.prod.PublishCheckinCompleted(ctx, kafka.CheckinCompletedEvent{
		EventID:        in.EventID,
		PublicKeyHex:   entry.PublicKeyHex,
		SignatureHex:   sigHex,
		CheckedInCount: count,
		ScannedAt:      entry.ScannedAt,
	}); err != nil {
		s.l.Errorf(ctx, "service.implCheckin.verify: %v", err)
	}

	history, err := s.scans.List(ctx, in.SessionID)
	if err != nil {
		s.l.Errorf(ctx, "service.implCheckin.verify: failed to list scan history: %v", err)
		history = []models.ScanEntry{entry}
	}

	s.l.Info(ctx, "Ticket checked in",
		"event_id", in.EventID,
		"public_key", entry.PublicKeyHex,
		"checked_in_count", count,
	)

	return &ScanResult{
		Outcome:        models.ScanSuccess,
		SignatureHex:   sigHex,
		PublicKeyHex:   entry.PublicKeyHex,
		CheckedInCount: count,
		History:        history,
	}
}

func (s *implCheckin) History(ctx context.Context, sessionID string) ([]models.ScanEntry, error) {
	return s.scans.List(ctx, sessionID)
}

func (s *implCheckin) CheckedInCount(ctx context.Context, eventID string) (int64, error) {
	return s.auth.CheckedInCount(ctx, eventID)
}

func (s *implCheckin) begin(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *implCheckin) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}

func failedScan(reason, code string) *ScanResult {
	return &ScanResult{
		Outcome:    models.ScanFailed,
		Reason:     reason,
		ReasonCode: code,
	}
}
