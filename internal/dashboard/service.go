// Package dashboard runs the listing pipeline for one job title query:
// fetch, normalize, aggregate, then rank the popular jobs.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/project-tktt/job-dashboard/internal/analysis"
	"github.com/project-tktt/job-dashboard/internal/common/normalizer"
	"github.com/project-tktt/job-dashboard/internal/domain"
	"github.com/project-tktt/job-dashboard/internal/logger"
	"github.com/project-tktt/job-dashboard/internal/source"
	"github.com/project-tktt/job-dashboard/internal/telemetry"
)

// Source call kinds, used as a metrics label
const (
	kindPrimary = "primary"
	kindPopular = "popular"
)

// Config holds service settings
type Config struct {
	// TopSkills is how many skills the chart keeps
	TopSkills int
}

// Service computes dashboards. It keeps no per-request state, so one
// instance serves concurrent requests.
type Service struct {
	source     source.Source
	normalizer *normalizer.Normalizer
	skills     *analysis.SkillAnalyzer
	ranker     *analysis.Ranker
	topSkills  int
	metrics    *telemetry.Metrics
	log        logger.Logger
	now        func() time.Time
}

// NewService creates a dashboard service. metrics may be nil.
func NewService(
	src source.Source,
	norm *normalizer.Normalizer,
	skills *analysis.SkillAnalyzer,
	ranker *analysis.Ranker,
	cfg Config,
	metrics *telemetry.Metrics,
	log logger.Logger,
) *Service {
	if cfg.TopSkills <= 0 {
		cfg.TopSkills = analysis.DefaultTopSkills
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Service{
		source:     src,
		normalizer: norm,
		skills:     skills,
		ranker:     ranker,
		topSkills:  cfg.TopSkills,
		metrics:    metrics,
		log:        log.With(logger.String("source", src.Name())),
		now:        time.Now,
	}
}

// Compute builds every dataset for query. Any failure aborts this request only.
func (s *Service) Compute(ctx context.Context, query string) (*domain.Dashboard, error) {
	start := time.Now()
	d, err := s.compute(ctx, strings.TrimSpace(query))
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordRun(err, elapsed)
	}
	if err != nil {
		s.log.Warn("dashboard failed",
			logger.String("query", query),
			logger.Duration("duration", elapsed),
			logger.Error(err),
		)
		return nil, err
	}

	s.log.Info("dashboard computed",
		logger.String("query", d.Query),
		logger.Int("listings", d.Listings),
		logger.Int("popular_jobs", len(d.PopularJobs)),
		logger.Duration("duration", elapsed),
	)
	return d, nil
}

func (s *Service) compute(ctx context.Context, query string) (*domain.Dashboard, error) {
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	raws, err := s.search(ctx, kindPrimary, func(ctx context.Context) ([]domain.RawListing, error) {
		return s.source.Search(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}

	rows, err := s.normalizer.Normalize(raws)
	if err != nil {
		return nil, fmt.Errorf("normalize listings: %w", err)
	}

	d := &domain.Dashboard{
		Query:       query,
		Listings:    len(rows),
		Skills:      analysis.TopSkills(s.skills.Analyze(rows), s.topSkills),
		PopularJobs: []domain.PopularJob{},
		GeneratedAt: s.now().UTC(),
	}

	if d.Categories, err = analysis.GroupCount(rows, analysis.FieldCategory, analysis.OrderFirstSeen); err != nil {
		return nil, err
	}
	if d.Companies, err = analysis.GroupCount(rows, analysis.FieldCompany, analysis.OrderCountDesc); err != nil {
		return nil, err
	}
	if d.Locations, err = analysis.GroupCount(rows, analysis.FieldLocation, analysis.OrderCountDesc); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		d.Skills = []domain.SkillCount{}
		return d, nil
	}

	pq := source.PopularQuery{Title: rows[0].Title, Location: rows[0].Location}
	broad, err := s.search(ctx, kindPopular, func(ctx context.Context) ([]domain.RawListing, error) {
		return s.source.SearchPopular(ctx, pq)
	})
	if err != nil {
		return nil, fmt.Errorf("search popular jobs: %w", err)
	}

	if d.PopularJobs, err = s.ranker.Rank(broad); err != nil {
		return nil, fmt.Errorf("rank popular jobs: %w", err)
	}
	return d, nil
}

func (s *Service) search(ctx context.Context, kind string, call func(context.Context) ([]domain.RawListing, error)) ([]domain.RawListing, error) {
	start := time.Now()
	listings, err := call(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordSourceCall(s.source.Name(), kind, len(listings), err, elapsed)
	}
	s.log.Debug("source call",
		logger.String("kind", kind),
		logger.Int("listings", len(listings)),
		logger.Duration("duration", elapsed),
	)
	return listings, err
}
