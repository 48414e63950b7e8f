package analysis

import (
	"sort"

	"github.com/project-tktt/job-dashboard/internal/domain"
)

// DefaultPopularTopK is the size of the popular jobs table
const DefaultPopularTopK = 5

// RankOptions selects between the table variants: how many titles to keep
// and whether company/location are carried along
type RankOptions struct {
	TopK            int
	IncludeMetadata bool
}

// TextCleaner strips markup from titles before grouping
type TextCleaner interface {
	CleanToText(s string) string
}

// Ranker groups broad search results by title to find the most in-demand jobs
type Ranker struct {
	opts    RankOptions
	cleaner TextCleaner
}

// NewRanker creates a ranker. cleaner may be nil.
func NewRanker(opts RankOptions, cleaner TextCleaner) *Ranker {
	return &Ranker{opts: opts, cleaner: cleaner}
}

// Rank counts listings per title in source order. The first listing seen for a title
// supplies its company and location; later duplicates only bump the count.
// Results are sorted by count descending, ties in first-seen order, and cut to TopK.
func (r *Ranker) Rank(listings []domain.RawListing) ([]domain.PopularJob, error) {
	entries := make([]domain.PopularJob, 0)
	index := make(map[string]int)

	for i, l := range listings {
		if !l.Title.Present {
			return nil, &domain.MalformedRecordError{Index: i, ID: l.ID.Value, Field: "title"}
		}
		title := r.clean(l.Title.Value)

		if pos, ok := index[title]; ok {
			entries[pos].Count++
			continue
		}

		entry := domain.PopularJob{Title: title, Count: 1}
		if r.opts.IncludeMetadata {
			loc := l.LocationName()
			if !loc.Present {
				return nil, &domain.MalformedRecordError{Index: i, ID: l.ID.Value, Field: "location.display_name"}
			}
			entry.Company = r.clean(l.CompanyName())
			entry.Location = r.clean(loc.Value)
		}

		index[title] = len(entries)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if r.opts.TopK > 0 && len(entries) > r.opts.TopK {
		entries = entries[:r.opts.TopK]
	}
	return entries, nil
}

func (r *Ranker) clean(s string) string {
	if r.cleaner == nil {
		return s
	}
	return r.cleaner.CleanToText(s)
}
