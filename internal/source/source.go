// Package source fetches raw job listings from a search backend: the Adzuna
// REST API, or an Elasticsearch index or Postgres table filled by a crawler.
package source

import (
	"context"
	"strings"

	"github.com/project-tktt/job-dashboard/internal/domain"
)

// Result sizes used by the index-backed sources, matching the Adzuna defaults
const (
	DefaultResults        = 20
	DefaultPopularResults = 50
)

// Source is where the dashboard gets its listings from
type Source interface {
	Name() string
	// Search runs the primary query for the charts
	Search(ctx context.Context, query string) ([]domain.RawListing, error)
	// SearchPopular runs the broad query behind the popular jobs table
	SearchPopular(ctx context.Context, q PopularQuery) ([]domain.RawListing, error)
}

// PopularQuery is built from the first listing of the primary result set
type PopularQuery struct {
	Title    string
	Location string
}

// flatRecord is a listing stored as flat columns, as the crawler indexes them
type flatRecord struct {
	ID          domain.Text `json:"id"`
	Title       domain.Text `json:"title"`
	Description domain.Text `json:"description"`
	Category    domain.Text `json:"category"`
	Company     domain.Text `json:"company"`
	Location    domain.Text `json:"location"`
}

// toRaw maps a flat record onto the nested listing shape. Blank values count as absent.
func (r flatRecord) toRaw() domain.RawListing {
	raw := domain.RawListing{
		ID:          blankAbsent(r.ID),
		Title:       blankAbsent(r.Title),
		Description: blankAbsent(r.Description),
		Category:    &domain.Label{Label: blankAbsent(r.Category)},
		Location:    &domain.Place{DisplayName: blankAbsent(r.Location)},
	}
	if company := blankAbsent(r.Company); company.Present {
		raw.Company = &domain.Place{DisplayName: company}
	}
	return raw
}

func blankAbsent(t domain.Text) domain.Text {
	if !t.Present || strings.TrimSpace(t.Value) == "" {
		return domain.Absent
	}
	return t
}
