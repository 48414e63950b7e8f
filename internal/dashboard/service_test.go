package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/project-tktt/job-dashboard/internal/analysis"
	"github.com/project-tktt/job-dashboard/internal/common/cleaner"
	"github.com/project-tktt/job-dashboard/internal/common/normalizer"
	"github.com/project-tktt/job-dashboard/internal/domain"
	"github.com/project-tktt/job-dashboard/internal/logger"
	"github.com/project-tktt/job-dashboard/internal/source"
	"github.com/project-tktt/job-dashboard/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu           sync.Mutex
	primary      []domain.RawListing
	popular      []domain.RawListing
	primaryErr   error
	popularErr   error
	queries      []string
	popularCalls []source.PopularQuery
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Search(_ context.Context, query string) ([]domain.RawListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.primary, f.primaryErr
}

func (f *fakeSource) SearchPopular(_ context.Context, q source.PopularQuery) ([]domain.RawListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popularCalls = append(f.popularCalls, q)
	return f.popular, f.popularErr
}

func raw(id, title, desc, category, company, location string) domain.RawListing {
	l := domain.RawListing{
		ID:          domain.Present(id),
		Title:       domain.Present(title),
		Description: domain.Present(desc),
		Category:    &domain.Label{Label: domain.Present(category)},
		Location:    &domain.Place{DisplayName: domain.Present(location)},
	}
	if company != "" {
		l.Company = &domain.Place{DisplayName: domain.Present(company)}
	}
	return l
}

func newTestService(src source.Source, metrics *telemetry.Metrics) *Service {
	clean := cleaner.NewCleaner()
	svc := NewService(
		src,
		normalizer.NewNormalizer(clean),
		analysis.NewSkillAnalyzer(analysis.DefaultVocabulary()),
		analysis.NewRanker(analysis.RankOptions{TopK: analysis.DefaultPopularTopK, IncludeMetadata: true}, clean),
		Config{TopSkills: 3},
		metrics,
		logger.NewNop(),
	)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_Compute(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		primary: []domain.RawListing{
			raw("1", "<strong>Data</strong> Scientist", "Python, SQL and AWS", "IT Jobs", "Acme", "Vancouver"),
			raw("2", "Data Analyst", "SQL &amp; Excel", "Accounting Jobs", "Globex", "Burnaby"),
			raw("3", "ML Engineer", "python, spark", "IT Jobs", "Globex", "Burnaby"),
		},
		popular: []domain.RawListing{
			raw("10", "Data Scientist", "", "IT Jobs", "Acme", "Vancouver"),
			raw("11", "Analyst", "", "IT Jobs", "", "Surrey"),
			raw("12", "Data Scientist", "", "IT Jobs", "Other", "Richmond"),
		},
	}

	d, err := newTestService(src, nil).Compute(context.Background(), "  data scientist ")
	require.NoError(t, err)

	assert.Equal(t, []string{"data scientist"}, src.queries, "query is trimmed")
	require.Len(t, src.popularCalls, 1)
	assert.Equal(t, source.PopularQuery{Title: "Data Scientist", Location: "Vancouver"}, src.popularCalls[0])

	assert.Equal(t, "data scientist", d.Query)
	assert.Equal(t, 3, d.Listings)
	assert.Equal(t, []domain.ValueCount{{Value: "IT Jobs", Count: 2}, {Value: "Accounting Jobs", Count: 1}}, d.Categories)
	assert.Equal(t, []domain.ValueCount{{Value: "Globex", Count: 2}, {Value: "Acme", Count: 1}}, d.Companies)
	assert.Equal(t, []domain.ValueCount{{Value: "Burnaby", Count: 2}, {Value: "Vancouver", Count: 1}}, d.Locations)
	assert.Equal(t, []domain.SkillCount{
		{Skill: "python", Count: 2},
		{Skill: "sql", Count: 2},
		{Skill: "spark", Count: 1},
	}, d.Skills)
	assert.Equal(t, []domain.PopularJob{
		{Title: "Data Scientist", Count: 2, Company: "Acme", Location: "Vancouver"},
		{Title: "Analyst", Count: 1, Company: domain.UnknownCompany, Location: "Surrey"},
	}, d.PopularJobs)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), d.GeneratedAt)
}

func TestService_EmptyQuery(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	_, err := newTestService(src, nil).Compute(context.Background(), "   ")
	assert.True(t, errors.Is(err, domain.ErrEmptyQuery))
	assert.Empty(t, src.queries)
}

func TestService_NoResults(t *testing.T) {
	t.Parallel()

	src := &fakeSource{primary: []domain.RawListing{}}
	d, err := newTestService(src, nil).Compute(context.Background(), "underwater welder")
	require.NoError(t, err)

	assert.Empty(t, src.popularCalls, "popular search is skipped without a first listing")
	assert.Equal(t, 0, d.Listings)
	assert.NotNil(t, d.Categories)
	assert.Empty(t, d.Categories)
	assert.NotNil(t, d.Companies)
	assert.NotNil(t, d.Locations)
	assert.NotNil(t, d.PopularJobs)
	assert.Empty(t, d.PopularJobs)
	assert.NotNil(t, d.Skills)
	assert.Empty(t, d.Skills)
}

func TestService_Errors(t *testing.T) {
	t.Parallel()

	good := []domain.RawListing{raw("1", "Data Scientist", "python", "IT Jobs", "Acme", "Vancouver")}
	missingLocation := raw("2", "Analyst", "excel", "IT Jobs", "Acme", "")
	missingLocation.Location = nil

	tests := []struct {
		name string
		src  *fakeSource
		want error
	}{
		{
			name: "primary source down",
			src:  &fakeSource{primaryErr: domain.ErrSourceUnavailable},
			want: domain.ErrSourceUnavailable,
		},
		{
			name: "popular source down",
			src:  &fakeSource{primary: good, popularErr: domain.ErrSourceUnavailable},
			want: domain.ErrSourceUnavailable,
		},
		{
			name: "malformed primary record",
			src:  &fakeSource{primary: []domain.RawListing{good[0], missingLocation}},
			want: domain.ErrMalformedRecord,
		},
		{
			name: "malformed popular record",
			src:  &fakeSource{primary: good, popular: []domain.RawListing{missingLocation}},
			want: domain.ErrMalformedRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := newTestService(tt.src, nil).Compute(context.Background(), "data")
			require.Error(t, err)
			assert.Nil(t, d)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestService_RecordsMetrics(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics(prometheus.NewRegistry())
	src := &fakeSource{
		primary: []domain.RawListing{raw("1", "Data Scientist", "python", "IT Jobs", "Acme", "Vancouver")},
		popular: []domain.RawListing{raw("2", "Data Scientist", "", "IT Jobs", "Acme", "Vancouver")},
	}
	svc := newTestService(src, m)

	_, err := svc.Compute(context.Background(), "data")
	require.NoError(t, err)
	_, err = svc.Compute(context.Background(), "")
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.DashboardRuns.WithLabelValues(telemetry.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DashboardRuns.WithLabelValues(telemetry.OutcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceRequests.WithLabelValues("fake", kindPrimary, telemetry.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceRequests.WithLabelValues("fake", kindPopular, telemetry.OutcomeSuccess)), 0)
}

func TestService_ConcurrentCompute(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		primary: []domain.RawListing{raw("1", "Data Scientist", "python sql", "IT Jobs", "Acme", "Vancouver")},
		popular: []domain.RawListing{raw("2", "Data Scientist", "", "IT Jobs", "Acme", "Vancouver")},
	}
	svc := newTestService(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := svc.Compute(context.Background(), "data")
			assert.NoError(t, err)
			if assert.NotNil(t, d) {
				assert.Equal(t, 1, d.Listings)
			}
		}()
	}
	wg.Wait()
}
