package analysis

import (
	"fmt"
	"sort"

	"github.com/project-tktt/job-dashboard/internal/domain"
)

// Field selects the listing column to group by
type Field string

const (
	FieldCategory Field = "category"
	FieldCompany  Field = "company"
	FieldLocation Field = "location"
	FieldTitle    Field = "title"
)

// Order controls the order of grouped values
type Order int

const (
	// OrderFirstSeen keeps groups in the order their first member appears (pie charts)
	OrderFirstSeen Order = iota
	// OrderCountDesc sorts by count descending, ties in first-seen order (bar and line charts)
	OrderCountDesc
)

func (f Field) value(row domain.Listing) (string, error) {
	switch f {
	case FieldCategory:
		return row.Category, nil
	case FieldCompany:
		return row.Company, nil
	case FieldLocation:
		return row.Location, nil
	case FieldTitle:
		return row.Title, nil
	default:
		return "", fmt.Errorf("unknown group field %q", string(f))
	}
}

// GroupCount counts rows per distinct value of field.
// The counts always sum to len(rows); empty input yields an empty slice.
func GroupCount(rows []domain.Listing, field Field, order Order) ([]domain.ValueCount, error) {
	if _, err := field.value(domain.Listing{}); err != nil {
		return nil, err
	}

	groups := make([]domain.ValueCount, 0)
	index := make(map[string]int)
	for _, row := range rows {
		v, _ := field.value(row)
		if i, ok := index[v]; ok {
			groups[i].Count++
			continue
		}
		index[v] = len(groups)
		groups = append(groups, domain.ValueCount{Value: v, Count: 1})
	}

	if order == OrderCountDesc {
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Count > groups[j].Count
		})
	}
	return groups, nil
}
