package service

import (
	"context"
	"slices"
	"sync"
	"time"

	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
	"github.com/openmeet/ticketgate/pkg/report"
)

// RosterEditor applies optimistic edits to a small managed list such
// as an event's gatekeepers. It is a reducer over (committed, pending,
// inFlight): committed is the last authority-confirmed roster, pending
// is what the user sees. Adds submit immediately; removals are
// debounced so a rapid burst commits its net result in one call,
// computed against the roster as it stood before the burst began. On
// failure pending rolls back to committed.
type RosterEditor struct {
	mu        sync.Mutex
	committed []string
	pending   []string
	inFlight  bool

	// Burst state for debounced removals.
	burstBase []string
	removed   map[string]struct{}
	timer     *time.Timer

	debounce time.Duration
	apply    func(ctx context.Context, target []string) error
	rep      report.Reporter
	l        pkgLog.Logger
}

func NewRosterEditor(
	initial []string,
	debounce time.Duration,
	apply func(ctx context.Context, target []string) error,
	rep report.Reporter,
	l pkgLog.Logger,
) *RosterEditor {
	return &RosterEditor{
		committed: slices.Clone(initial),
		pending:   slices.Clone(initial),
		debounce:  debounce,
		apply:     apply,
		rep:       rep,
		l:         l,
	}
}

func (e *RosterEditor) Committed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.committed)
}

func (e *RosterEditor) Pending() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.pending)
}

func (e *RosterEditor) InFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// Add submits straight away; adds must feel instant.
func (e *RosterEditor) Add(ctx context.Context, item string) {
	e.mu.Lock()
	target := slices.Clone(e.committed)
	if !slices.Contains(target, item) {
		target = append(target, item)
	}
	e.pending = slices.Clone(target)
	e.mu.Unlock()

	e.submit(ctx, target)
}

// Remove coalesces: the submitted target is the pre-burst roster minus
// everything removed during the burst, not the latest pending value.
func (e *RosterEditor) Remove(ctx context.Context, item string) {
	e.mu.Lock()

	if e.removed == nil {
		e.burstBase = slices.Clone(e.committed)
		e.removed = make(map[string]struct{})
	}
	e.removed[item] = struct{}{}

	target := make([]string, 0, len(e.burstBase))
	for _, member := range e.burstBase {
		if _, gone := e.removed[member]; !gone {
			target = append(target, member)
		}
	}
	e.pending = slices.Clone(target)

	if e.timer != nil {
		e.timer.Stop()
	}

	submitCtx := context.WithoutCancel(ctx)
	e.timer = time.AfterFunc(e.debounce, func() {
		e.mu.Lock()
		e.timer = nil
		e.removed = nil
		e.burstBase = nil
		e.mu.Unlock()

		e.submit(submitCtx, target)
	})

	e.mu.Unlock()
}

func (e *RosterEditor) submit(ctx context.Context, target []string) {
	e.mu.Lock()
	e.inFlight = true
	e.mu.Unlock()

	err := e.apply(ctx, target)

	e.mu.Lock()
	e.inFlight = false
	if err != nil {
		// Full rollback: the optimistic value disappears from view.
		e.pending = slices.Clone(e.committed)
		e.mu.Unlock()

		e.rep.Report(ctx, "service.RosterEditor.submit", err)
		return
	}

	// The request's target value, not the latest pending: edits that
	// raced with this submission stay pending until their own call.
	e.committed = slices.Clone(target)
	e.mu.Unlock()

	e.l.Debug(ctx, "Roster committed", "size", len(target))
}
