package report

import (
	"context"
	"sync"

	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
)

// Reporter is the operator-facing error channel. Failures that an
// operator should investigate go here; expected user-correctable
// outcomes (wrong password, sold out) and the benign
// already-participant race do not.
type Reporter interface {
	Report(ctx context.Context, scope string, err error)
}

type logReporter struct {
	l pkgLog.Logger
}

func NewLogReporter(l pkgLog.Logger) Reporter {
	return &logReporter{l: l}
}

func (r *logReporter) Report(ctx context.Context, scope string, err error) {
	r.l.Errorf(ctx, "%s: %v", scope, err)
}

// Capture collects reports in memory. Test helper; reports may arrive
// from background goroutines, so reads go through the accessors.
type Capture struct {
	mu     sync.Mutex
	scopes []string
	errs   []error
}

func (c *Capture) Report(_ context.Context, scope string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes = append(c.scopes, scope)
	c.errs = append(c.errs, err)
}

func (c *Capture) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

func (c *Capture) Errs() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}

func (c *Capture) Scopes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.scopes...)
}
