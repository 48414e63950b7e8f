package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SOURCE_KIND", "ADZUNA_APP_ID", "ADZUNA_API_KEY", "ADZUNA_POPULAR_REGION",
		"REDIS_ADDR", "DASHBOARD_TOP_SKILLS", "SERVER_ADDR", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, SourceAdzuna, cfg.Source.Kind)
	assert.Equal(t, "https://api.adzuna.com/v1/api/jobs", cfg.Adzuna.BaseURL)
	assert.Equal(t, "ca", cfg.Adzuna.Country)
	assert.Equal(t, 20, cfg.Adzuna.ResultsPerPage)
	assert.Equal(t, 50, cfg.Adzuna.PopularResultsPerPage)
	assert.Equal(t, []string{"Canada", "British Columbia", "Greater Vancouver"}, cfg.Adzuna.PopularRegion)
	assert.Equal(t, 30*time.Second, cfg.Adzuna.Timeout)
	assert.Equal(t, 20, cfg.Dashboard.TopSkills)
	assert.Equal(t, 5, cfg.Dashboard.PopularTopK)
	assert.True(t, cfg.Dashboard.IncludeMetadata)
	assert.Equal(t, "data scientist", cfg.Dashboard.DefaultQuery)
	assert.Equal(t, ":8050", cfg.Server.Addr)
	assert.Equal(t, time.Minute, cfg.Quota.Window)
	assert.False(t, cfg.QuotaEnabled())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SOURCE_KIND", "Postgres")
	t.Setenv("POSTGRES_TABLE", "adzuna_listings")
	t.Setenv("ADZUNA_POPULAR_REGION", "UK, London ,")
	t.Setenv("DASHBOARD_INCLUDE_METADATA", "false")
	t.Setenv("SERVER_WRITE_TIMEOUT", "90")
	t.Setenv("SERVER_READ_TIMEOUT", "1500ms")
	t.Setenv("ADZUNA_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("QUOTA_LIMIT", "not-a-number")

	cfg := Load()

	assert.Equal(t, SourcePostgres, cfg.Source.Kind)
	assert.Equal(t, "adzuna_listings", cfg.Postgres.TableName)
	assert.Equal(t, []string{"UK", "London"}, cfg.Adzuna.PopularRegion)
	assert.False(t, cfg.Dashboard.IncludeMetadata)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Server.ReadTimeout)
	assert.InDelta(t, 0.5, cfg.Adzuna.RequestsPerSecond, 1e-9)
	assert.True(t, cfg.QuotaEnabled())
	assert.Equal(t, 25, cfg.Quota.Limit, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	t.Setenv("SOURCE_KIND", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOG_LEVEL", "")

	valid := func() *Config {
		cfg := Load()
		cfg.Adzuna.AppID = "id"
		cfg.Adzuna.APIKey = "key"
		return cfg
	}

	t.Run("defaults with credentials", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := valid()
		cfg.Adzuna.APIKey = ""
		assert.True(t, errors.Is(cfg.Validate(), ErrMissingCredentials))
	})

	t.Run("credentials not needed for other sources", func(t *testing.T) {
		cfg := valid()
		cfg.Adzuna.AppID = ""
		cfg.Source.Kind = SourceElasticsearch
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown source", func(t *testing.T) {
		cfg := valid()
		cfg.Source.Kind = "mongodb"
		require.Error(t, cfg.Validate())
	})

	t.Run("bad page size", func(t *testing.T) {
		cfg := valid()
		cfg.Adzuna.PopularResultsPerPage = 500
		require.Error(t, cfg.Validate())
	})

	t.Run("quota checked only when redis is set", func(t *testing.T) {
		cfg := valid()
		cfg.Quota.Limit = 0
		require.NoError(t, cfg.Validate())

		cfg.Redis.Addr = "localhost:6379"
		require.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.Log.Level = "verbose"
		require.Error(t, cfg.Validate())
	})
}

func TestLoad_RegionNone(t *testing.T) {
	t.Setenv("ADZUNA_POPULAR_REGION", " None ")

	cfg := Load()
	assert.NotNil(t, cfg.Adzuna.PopularRegion)
	assert.Empty(t, cfg.Adzuna.PopularRegion, "popular search falls back to where=")

	t.Setenv("ADZUNA_POPULAR_REGION", ",")
	assert.Equal(t, []string{"Canada", "British Columbia", "Greater Vancouver"}, Load().Adzuna.PopularRegion)
}
