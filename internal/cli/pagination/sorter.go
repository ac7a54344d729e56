package pagination

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/rshade/framebatch/internal/engine/history"
)

// reportCompare orders two reports ascending by one field.
type reportCompare func(a, b *history.RunReport) int

// ReportSorter sorts saved run reports by a named field.
type ReportSorter struct {
	fields map[string]reportCompare
}

// NewReportSorter creates a sorter with the run report sort fields.
func NewReportSorter() *ReportSorter {
	return &ReportSorter{
		fields: map[string]reportCompare{
			"started": func(a, b *history.RunReport) int { return a.StartedAt.Compare(b.StartedAt) },
			"duration": func(a, b *history.RunReport) int {
				return cmp.Compare(a.Duration(), b.Duration())
			},
			"frames":      func(a, b *history.RunReport) int { return cmp.Compare(a.Frames, b.Frames) },
			"budget":      func(a, b *history.RunReport) int { return cmp.Compare(a.BudgetMs, b.BudgetMs) },
			"overruns":    func(a, b *history.RunReport) int { return cmp.Compare(a.OverrunRate(), b.OverrunRate()) },
			"utilization": func(a, b *history.RunReport) int { return cmp.Compare(a.MeanUtilization, b.MeanUtilization) },
			"health":      func(a, b *history.RunReport) int { return cmp.Compare(a.WorstHealth, b.WorstHealth) },
			"worst": func(a, b *history.RunReport) int {
				return cmp.Compare(a.WorstElapsed, b.WorstElapsed)
			},
		},
	}
}

// IsValidField reports whether field can be sorted on.
func (s *ReportSorter) IsValidField(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// ValidFields returns the sortable field names in order.
func (s *ReportSorter) ValidFields() []string {
	return slices.Sorted(maps.Keys(s.fields))
}

// Sort returns a sorted copy of reports. Ties keep their input order.
func (s *ReportSorter) Sort(reports []history.RunReport, field, order string) ([]history.RunReport, error) {
	compare, ok := s.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %v)", ErrInvalidSortField, field, s.ValidFields())
	}

	sorted := slices.Clone(reports)
	slices.SortStableFunc(sorted, func(a, b history.RunReport) int {
		if order == SortOrderDesc {
			return compare(&b, &a)
		}
		return compare(&a, &b)
	})
	return sorted, nil
}
