package main

import (
	"context"
	"fmt"
	"time"

	"github.com/project-tktt/job-dashboard/internal/analysis"
	"github.com/project-tktt/job-dashboard/internal/common/cleaner"
	"github.com/project-tktt/job-dashboard/internal/common/normalizer"
	"github.com/project-tktt/job-dashboard/internal/common/quota"
	"github.com/project-tktt/job-dashboard/internal/config"
	"github.com/project-tktt/job-dashboard/internal/dashboard"
	"github.com/project-tktt/job-dashboard/internal/logger"
	"github.com/project-tktt/job-dashboard/internal/source"
	"github.com/project-tktt/job-dashboard/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

// app holds the wired pipeline shared by the serve, query and batch commands
type app struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *telemetry.Metrics
	source  source.Source
	service *dashboard.Service
	quota   *quota.Limiter

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: telemetry.NewDefaultMetrics()}

	vocab, err := loadVocabulary(cfg.Dashboard.SkillsFile)
	if err != nil {
		return nil, err
	}

	var q source.Quota
	if cfg.QuotaEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.quota = quota.NewLimiter(rdb, "jobdash:quota", cfg.Quota.Limit, cfg.Quota.Window)
		q = a.quota
		log.Info("shared quota enabled",
			logger.String("redis", cfg.Redis.Addr),
			logger.Int("limit", cfg.Quota.Limit),
			logger.Duration("window", cfg.Quota.Window),
		)
	}

	src, err := newSource(cfg, q, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.source = src

	htmlCleaner := cleaner.NewCleaner()
	a.service = dashboard.NewService(
		src,
		normalizer.NewNormalizer(htmlCleaner),
		analysis.NewSkillAnalyzer(vocab),
		analysis.NewRanker(analysis.RankOptions{
			TopK:            cfg.Dashboard.PopularTopK,
			IncludeMetadata: cfg.Dashboard.IncludeMetadata,
		}, htmlCleaner),
		dashboard.Config{TopSkills: cfg.Dashboard.TopSkills},
		a.metrics,
		log,
	)

	log.Info("pipeline ready",
		logger.String("source", src.Name()),
		logger.Int("skills", len(vocab)),
	)
	return a, nil
}

func newSource(cfg *config.Config, q source.Quota, log logger.Logger) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceAdzuna:
		return source.NewAdzuna(cfg.Adzuna, q, log), nil
	case config.SourceElasticsearch:
		es, err := source.NewElasticsearch(cfg.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch connection failed: %w", err)
		}
		return es, nil
	case config.SourcePostgres:
		pg, err := source.NewPostgres(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

func loadVocabulary(path string) (analysis.Vocabulary, error) {
	if path == "" {
		return analysis.DefaultVocabulary(), nil
	}
	return analysis.LoadVocabulary(path)
}

// Close releases connections in reverse order of creation
func (a *app) Close() {
	if c, ok := a.source.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("close source", logger.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close", logger.Error(err))
		}
	}
}
