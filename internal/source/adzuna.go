package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/project-tktt/job-dashboard/internal/common/quota"
	"github.com/project-tktt/job-dashboard/internal/config"
	"github.com/project-tktt/job-dashboard/internal/domain"
	"github.com/project-tktt/job-dashboard/internal/logger"
	"golang.org/x/time/rate"
)

// Quota is a shared budget consulted before each outbound call
type Quota interface {
	Allow(ctx context.Context, key string) error
}

// Adzuna searches the Adzuna jobs API
type Adzuna struct {
	client  *http.Client
	config  config.AdzunaConfig
	limiter *rate.Limiter
	quota   Quota
	log     logger.Logger
}

// NewAdzuna creates an Adzuna client. quota may be nil.
func NewAdzuna(cfg config.AdzunaConfig, q Quota, log logger.Logger) *Adzuna {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Adzuna{
		client:  &http.Client{Timeout: timeout, Transport: http.DefaultTransport.(*http.Transport).Clone()},
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		quota:   q,
		log:     log.With(logger.String("source", string(domain.SourceAdzuna))),
	}
}

func (a *Adzuna) Name() string {
	return string(domain.SourceAdzuna)
}

// Search queries page 1 with what=<query>
func (a *Adzuna) Search(ctx context.Context, query string) ([]domain.RawListing, error) {
	params := a.baseParams(a.config.ResultsPerPage)
	params.Set("what", query)
	return a.fetch(ctx, params)
}

// SearchPopular queries with what_and=<title>, newest first, limited to the configured
// region. Without a region the first listing's location is used instead.
func (a *Adzuna) SearchPopular(ctx context.Context, q PopularQuery) ([]domain.RawListing, error) {
	params := a.baseParams(a.config.PopularResultsPerPage)
	params.Set("what_and", q.Title)
	if a.config.PopularSortBy != "" {
		params.Set("sort_by", a.config.PopularSortBy)
	}
	if len(a.config.PopularRegion) > 0 {
		for i, loc := range a.config.PopularRegion {
			params.Set("location"+strconv.Itoa(i), loc)
		}
	} else if q.Location != "" {
		params.Set("where", q.Location)
	}
	return a.fetch(ctx, params)
}

func (a *Adzuna) baseParams(perPage int) url.Values {
	if perPage <= 0 {
		perPage = DefaultResults
	}
	params := url.Values{}
	params.Set("app_id", a.config.AppID)
	params.Set("app_key", a.config.APIKey)
	params.Set("results_per_page", strconv.Itoa(perPage))
	params.Set("content-type", "application/json")
	return params
}

func (a *Adzuna) searchURL(params url.Values) string {
	base := strings.TrimRight(a.config.BaseURL, "/")
	return fmt.Sprintf("%s/%s/search/1?%s", base, url.PathEscape(a.config.Country), params.Encode())
}

type searchResponse struct {
	Results *[]domain.RawListing `json:"results"`
}

func (a *Adzuna) fetch(ctx context.Context, params url.Values) ([]domain.RawListing, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if a.quota != nil {
		if err := a.quota.Allow(ctx, a.Name()); err != nil {
			if errors.Is(err, quota.ErrQuotaExceeded) {
				return nil, err
			}
			a.log.Warn("quota check failed, continuing", logger.Error(err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.searchURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("do request: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: do request: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status: %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: parse json: %v", domain.ErrSourceUnavailable, err)
	}

	if payload.Results == nil {
		a.log.Debug("response has no results key")
		return []domain.RawListing{}, nil
	}
	return *payload.Results, nil
}

func (a *Adzuna) setHeaders(req *http.Request) {
	if a.config.UserAgent != "" {
		req.Header.Set("User-Agent", a.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")
}
