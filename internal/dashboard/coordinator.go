package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/project-tktt/job-dashboard/internal/domain"
	"github.com/project-tktt/job-dashboard/internal/telemetry"
)

// Computer produces a dashboard for a query
type Computer interface {
	Compute(ctx context.Context, query string) (*domain.Dashboard, error)
}

// Coordinator allows one in-flight dashboard per session. Starting a run
// cancels the session's previous run, whose caller gets domain.ErrSuperseded.
// Sessions never affect each other.
type Coordinator struct {
	computer Computer
	metrics  *telemetry.Metrics

	mu       sync.Mutex
	inflight map[string]*run
}

type run struct {
	cancel context.CancelCauseFunc
}

// NewCoordinator creates a coordinator. metrics may be nil.
func NewCoordinator(computer Computer, metrics *telemetry.Metrics) *Coordinator {
	return &Coordinator{
		computer: computer,
		metrics:  metrics,
		inflight: make(map[string]*run),
	}
}

// Run computes query for session, superseding any run still in flight for it
func (c *Coordinator) Run(ctx context.Context, session, query string) (*domain.Dashboard, error) {
	runCtx, cancel := context.WithCancelCause(ctx)
	r := &run{cancel: cancel}

	c.mu.Lock()
	if prev, ok := c.inflight[session]; ok {
		prev.cancel(domain.ErrSuperseded)
		if c.metrics != nil {
			c.metrics.SupersededCancels.Inc()
		}
	}
	c.inflight[session] = r
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.inflight[session] == r {
			delete(c.inflight, session)
		}
		c.mu.Unlock()
		cancel(nil)
	}()

	d, err := c.computer.Compute(runCtx, query)
	if errors.Is(context.Cause(runCtx), domain.ErrSuperseded) {
		return nil, domain.ErrSuperseded
	}
	return d, err
}

// InFlight reports how many sessions have a run in progress
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
