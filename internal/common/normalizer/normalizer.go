package normalizer

import (
	"errors"
	"html"
	"strings"

	"github.com/project-tktt/job-dashboard/internal/domain"
)

// TextCleaner strips markup from free text fields
type TextCleaner interface {
	CleanToText(s string) string
}

// Normalizer converts RawListing records to flat Listing rows
type Normalizer struct {
	cleaner TextCleaner
}

// NewNormalizer creates a new normalizer. cleaner may be nil.
func NewNormalizer(cleaner TextCleaner) *Normalizer {
	return &Normalizer{cleaner: cleaner}
}

// Normalize converts every raw listing, preserving input order.
// The first malformed record aborts the whole batch.
func (n *Normalizer) Normalize(raws []domain.RawListing) ([]domain.Listing, error) {
	rows := make([]domain.Listing, 0, len(raws))
	for i, raw := range raws {
		row, err := n.NormalizeOne(raw)
		if err != nil {
			var mre *domain.MalformedRecordError
			if errors.As(err, &mre) {
				mre.Index = i
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// NormalizeOne converts a single raw listing.
// Company falls back to "Unknown"; every other field is required.
func (n *Normalizer) NormalizeOne(raw domain.RawListing) (domain.Listing, error) {
	id := raw.ID.Value

	required := []struct {
		field string
		val   domain.Text
	}{
		{"id", raw.ID},
		{"title", raw.Title},
		{"description", raw.Description},
		{"category.label", raw.CategoryLabel()},
		{"location.display_name", raw.LocationName()},
	}
	for _, r := range required {
		if !r.val.Present {
			return domain.Listing{}, &domain.MalformedRecordError{ID: id, Field: r.field}
		}
	}

	return domain.Listing{
		ID:          id,
		Title:       n.cleanText(raw.Title.Value),
		Category:    unescape(raw.CategoryLabel().Value),
		Company:     unescape(raw.CompanyName()),
		Location:    unescape(raw.LocationName().Value),
		Description: n.cleanText(raw.Description.Value),
	}, nil
}

// cleanText strips markup when a cleaner is configured, otherwise only decodes entities
func (n *Normalizer) cleanText(s string) string {
	if n.cleaner != nil {
		return n.cleaner.CleanToText(s)
	}
	return unescape(s)
}

// unescape decodes entities and collapses whitespace runs to one space
func unescape(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
