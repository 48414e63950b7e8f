package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// UnknownCompany is used when a listing carries no employer display name
const UnknownCompany = "Unknown"

// Text is a source field that may be absent from a raw listing.
// A missing JSON key and an explicit null both decode to an absent value.
type Text struct {
	Value   string
	Present bool
}

// Present wraps a value that exists in the source record
func Present(s string) Text {
	return Text{Value: s, Present: true}
}

// Absent is the zero Text
var Absent = Text{}

// Or returns the value when present, otherwise fallback
func (t Text) Or(fallback string) string {
	if t.Present {
		return t.Value
	}
	return fallback
}

// UnmarshalJSON accepts strings and numbers (Adzuna ids are sometimes numeric)
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Absent
		return nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode text: %w", err)
	}

	switch val := v.(type) {
	case string:
		*t = Present(val)
	case json.Number:
		*t = Present(val.String())
	case bool:
		*t = Present(strconv.FormatBool(val))
	default:
		return fmt.Errorf("decode text: unsupported json value %s", string(data))
	}
	return nil
}

// MarshalJSON writes absent values as null
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Present {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// Label is a nested classification object, e.g. Adzuna's category
type Label struct {
	Label Text `json:"label"`
}

// Place is a nested named object, used for both company and location
type Place struct {
	DisplayName Text `json:"display_name"`
}

// RawListing is a job listing as returned by a listing source, before normalization.
// Nested objects are nil when the source omitted them.
type RawListing struct {
	ID          Text   `json:"id"`
	Title       Text   `json:"title"`
	Description Text   `json:"description"`
	Category    *Label `json:"category,omitempty"`
	Company     *Place `json:"company,omitempty"`
	Location    *Place `json:"location,omitempty"`
}

// CategoryLabel returns category.label
func (r RawListing) CategoryLabel() Text {
	if r.Category == nil {
		return Absent
	}
	return r.Category.Label
}

// CompanyName returns company.display_name, falling back to UnknownCompany
func (r RawListing) CompanyName() string {
	if r.Company == nil {
		return UnknownCompany
	}
	return r.Company.DisplayName.Or(UnknownCompany)
}

// LocationName returns location.display_name
func (r RawListing) LocationName() Text {
	if r.Location == nil {
		return Absent
	}
	return r.Location.DisplayName
}

// Listing is a normalized job listing row
type Listing struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// SkillCount is the number of listings mentioning a vocabulary skill
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// ValueCount is the number of listings sharing one value of a grouped field
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PopularJob is one row of the most in-demand jobs table.
// Company and Location come from the first listing seen with this title.
type PopularJob struct {
	Title    string `json:"title"`
	Count    int    `json:"count"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
}

// Dashboard holds every dataset rendered for a single job title query
type Dashboard struct {
	Query       string       `json:"query"`
	Listings    int          `json:"listings"`
	Categories  []ValueCount `json:"categories"`
	Companies   []ValueCount `json:"companies"`
	Locations   []ValueCount `json:"locations"`
	Skills      []SkillCount `json:"skills"`
	PopularJobs []PopularJob `json:"popular_jobs"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// ListingSource identifies where raw listings came from
type ListingSource string

const (
	SourceAdzuna        ListingSource = "adzuna"
	SourceElasticsearch ListingSource = "elasticsearch"
	SourcePostgres      ListingSource = "postgres"
)
