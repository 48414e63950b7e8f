package worker

import (
	"context"
	"time"

	"github.com/project-tktt/job-dashboard/internal/dashboard"
	"github.com/project-tktt/job-dashboard/internal/domain"
	"github.com/project-tktt/job-dashboard/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Worker computes dashboards for a batch of job titles
type Worker struct {
	computer    dashboard.Computer
	concurrency int
	log         logger.Logger
}

// Config holds worker configuration
type Config struct {
	// Number of dashboards computed at once
	Concurrency int
}

// Result is the outcome for one query. Exactly one of Dashboard and Err is set.
type Result struct {
	Query     string
	Dashboard *domain.Dashboard
	Err       error
	Duration  time.Duration
}

// NewWorker creates a new worker
func NewWorker(computer dashboard.Computer, cfg Config, log logger.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{
		computer:    computer,
		concurrency: cfg.Concurrency,
		log:         log,
	}
}

// Run computes every query with bounded concurrency. Results keep input order;
// a failed query is recorded in its Result and does not stop the others.
func (w *Worker) Run(ctx context.Context, queries []string) []Result {
	w.log.Info("starting batch",
		logger.Int("queries", len(queries)),
		logger.Int("concurrency", w.concurrency),
	)

	results := make([]Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for i, q := range queries {
		g.Go(func() error {
			start := time.Now()
			d, err := w.computer.Compute(gctx, q)
			results[i] = Result{Query: q, Dashboard: d, Err: err, Duration: time.Since(start)}
			if err != nil {
				w.log.Warn("batch query failed", logger.String("query", q), logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed counts results with an error
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
