package service

import (
	"context"
	"sync"
	"time"

	"github.com/openmeet/ticketgate/internal/authority"
	kafka "github.com/openmeet/ticketgate/internal/delivery/kafka"
	"github.com/openmeet/ticketgate/internal/models"
	repo "github.com/openmeet/ticketgate/internal/repository/redis"
	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
)

var testLogger pkgLog.Logger = pkgLog.InitializeTestZapLogger()

// fakeAuthority scripts the external authority. Zero-value methods
// succeed; tests override the func fields they care about.
type fakeAuthority struct {
	mu sync.Mutex

	event *models.EventRecord

	getEventCalls    int
	registerCalls    int
	checkinCalls     int
	validateCalls    int
	gatekeeperCalls  int
	gatekeeperTarget [][]string
	lastRegister     authority.RegisterRequest

	validateFn func(eventID, candidate string) (bool, error)
	registerFn func(req authority.RegisterRequest) error
	checkinFn  func(receipt authority.CheckinReceipt) (int64, error)
	updateFn   func(eventID string, emails []string) error
}

func (f *fakeAuthority) GetEvent(_ context.Context, eventID string) (*models.EventRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getEventCalls++
	if f.event != nil {
		ev := *f.event
		return &ev, nil
	}
	return &models.EventRecord{ID: eventID, Capacity: 100, StartAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuthority) ValidatePassword(_ context.Context, eventID, candidate string) (bool, error) {
	f.mu.Lock()
	fn := f.validateFn
	f.validateCalls++
	f.mu.Unlock()
	if fn != nil {
		return fn(eventID, candidate)
	}
	return true, nil
}

func (f *fakeAuthority) RegisterParticipants(_ context.Context, req authority.RegisterRequest) error {
	f.mu.Lock()
	f.registerCalls++
	f.lastRegister = req
	fn := f.registerFn
	f.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return nil
}

func (f *fakeAuthority) SubmitCheckin(_ context.Context, receipt authority.CheckinReceipt) (int64, error) {
	f.mu.Lock()
	f.checkinCalls++
	fn := f.checkinFn
	f.mu.Unlock()
	if fn != nil {
		return fn(receipt)
	}
	return 1, nil
}

func (f *fakeAuthority) CheckedInCount(context.Context, string) (int64, error) {
	return 0, nil
}

func (f *fakeAuthority) UpdateGatekeepers(_ context.Context, eventID string, emails []string) error {
	f.mu.Lock()
	f.gatekeeperCalls++
	f.gatekeeperTarget = append(f.gatekeeperTarget, append([]string(nil), emails...))
	fn := f.updateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(eventID, emails)
	}
	return nil
}

type fakePayments struct {
	mu       sync.Mutex
	calls    int
	last     authority.CheckoutRequest
	redirect string
	err      error
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, req authority.CheckoutRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return "", f.err
	}
	if f.redirect == "" {
		return "https://pay.example.com/session/abc", nil
	}
	return f.redirect, nil
}

type memGateRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.GateSession
}

func newMemGateRepo() *memGateRepo {
	return &memGateRepo{sessions: make(map[string]*models.GateSession)}
}

func (m *memGateRepo) Save(_ context.Context, ss *models.GateSession, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ss
	m.sessions[ss.ID+"/"+ss.EventID] = &cp
	return nil
}

func (m *memGateRepo) Get(_ context.Context, sessionID, eventID string) (*models.GateSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ss, ok := m.sessions[sessionID+"/"+eventID]
	if !ok {
		return nil, repo.ErrGateSessionNotFound
	}
	cp := *ss
	return &cp, nil
}

func (m *memGateRepo) Delete(_ context.Context, sessionID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID+"/"+eventID)
	return nil
}

type memScanRepo struct {
	mu   sync.Mutex
	logs map[string][]models.ScanEntry
}

func newMemScanRepo() *memScanRepo {
	return &memScanRepo{logs: make(map[string][]models.ScanEntry)}
}

func (m *memScanRepo) Append(_ context.Context, sessionID string, entry models.ScanEntry, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Most-recent-first, like the redis LPUSH implementation.
	m.logs[sessionID] = append([]models.ScanEntry{entry}, m.logs[sessionID]...)
	return nil
}

func (m *memScanRepo) List(_ context.Context, sessionID string) ([]models.ScanEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ScanEntry(nil), m.logs[sessionID]...), nil
}

type capturingProducer struct {
	mu            sync.Mutex
	checkins      []kafka.CheckinCompletedEvent
	registrations []kafka.ParticipationRegisteredEvent
}

func (p *capturingProducer) PublishCheckinCompleted(_ context.Context, event kafka.CheckinCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkins = append(p.checkins, event)
	return nil
}

func (p *capturingProducer) PublishParticipationRegistered(_ context.Context, event kafka.ParticipationRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registrations = append(p.registrations, event)
	return nil
}

func (p *capturingProducer) Close() error { return nil }
