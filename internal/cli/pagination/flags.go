package pagination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Pagination defaults and sort orders.
const (
	DefaultLimit     = 20
	DefaultSortField = "started"
	DefaultSortOrder = SortOrderDesc
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// Common validation errors.
var (
	ErrNegativeValue        = errors.New("pagination values cannot be negative")
	ErrMixedPaginationModes = errors.New("--page and --offset are mutually exclusive")
	ErrPageSizeWithoutPage  = errors.New("--page-size requires --page")
	ErrPageWithoutPageSize  = errors.New("--page requires --page-size")
	ErrInvalidSortFormat    = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'overruns:desc')")
	ErrEmptySortField       = errors.New("sort field cannot be empty")
	ErrInvalidSortOrder     = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortField     = errors.New("invalid sort field")
)

// Params holds CLI pagination flags. Offset mode uses --limit and --offset;
// page mode uses --page and --page-size. The modes are mutually exclusive.
type Params struct {
	Limit    int
	Offset   int
	Page     int
	PageSize int
	Sort     string
}

// AddFlags registers the pagination flags on cmd.
func (p *Params) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Limit, "limit", DefaultLimit, "maximum number of results (0 = all)")
	cmd.Flags().IntVar(&p.Offset, "offset", 0, "number of results to skip")
	cmd.Flags().IntVar(&p.Page, "page", 0, "1-based page number (requires --page-size)")
	cmd.Flags().IntVar(&p.PageSize, "page-size", 0, "results per page")
	cmd.Flags().StringVar(&p.Sort, "sort", DefaultSortField+":"+DefaultSortOrder, "sort as field or field:order")
}

// Validate checks that the parameters are non-negative and consistent.
func (p Params) Validate() error {
	if p.Limit < 0 || p.Offset < 0 || p.Page < 0 || p.PageSize < 0 {
		return ErrNegativeValue
	}
	if p.Page > 0 && p.Offset > 0 {
		return ErrMixedPaginationModes
	}
	if p.PageSize > 0 && p.Page == 0 {
		return ErrPageSizeWithoutPage
	}
	if p.Page > 0 && p.PageSize == 0 {
		return ErrPageWithoutPageSize
	}
	return nil
}

// IsPageBased reports whether page mode is active.
func (p Params) IsPageBased() bool {
	return p.Page > 0
}

// OffsetLimit returns the effective offset and limit. A limit of zero means
// no limit.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func (p Params) OffsetLimit() (offset, limit int) {
	if p.IsPageBased() {
		return (p.Page - 1) * p.PageSize, p.PageSize
	}
	return p.Offset, p.Limit
}

// Apply returns the window of items selected by p. Offsets past the end give
// an empty slice.
func Apply[T any](p Params, items []T) []T {
	offset, limit := p.OffsetLimit()
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 {
		end = min(offset+limit, len(items))
	}
	return items[offset:end]
}

// ParseSort parses a sort string in the format "field" or "field:order".
// An empty string yields the defaults; a bare field sorts descending.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if strings.TrimSpace(sortStr) == "" {
		return DefaultSortField, DefaultSortOrder, nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}
