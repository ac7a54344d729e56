// Package history persists a summary of every scheduler run so budgets and
// workloads can be compared across runs.
//
// Reports are stored one JSON file per run, named by the run's ULID, which keeps
// a directory listing in chronological order:
//
//	~/.framebatch/history/
//	  01J9Z3Q6X0M8R2T4V6W8Y0A2C4.json
//	  01J9Z3RZ5B7D9F1H3K5M7P9R1T.json
//
// Writes go to a temporary file first and are renamed into place, so a reader
// never sees a partial report.
package history
