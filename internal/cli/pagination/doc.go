// Package pagination provides paging and sorting for CLI list output.
//
// This package contains the shared list logic used by the history commands:
//   - Params: --limit/--offset and --page/--page-size flags with validation
//   - Meta: response metadata for paginated JSON output
//   - ReportSorter: field-based sorting of saved run reports
package pagination
