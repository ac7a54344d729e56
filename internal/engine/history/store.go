package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// reportFileExtension is the file extension used for run reports.
const reportFileExtension = ".json"

// Common history errors.
var (
	ErrReportNotFound  = errors.New("run report not found")
	ErrInvalidReportID = errors.New("run report ID must be a ULID")
	ErrHistoryDisabled = errors.New("run history is disabled")
)

// FileStore keeps run reports as JSON files in one directory.
// Safe for concurrent access.
type FileStore struct {
	directory string
	enabled   bool

	mu sync.RWMutex
}

// NewFileStore creates a store, creating directory when enabled.
// A disabled store returns ErrHistoryDisabled from every operation.
func NewFileStore(directory string, enabled bool) (*FileStore, error) {
	if !enabled {
		return &FileStore{enabled: false}, nil
	}
	if directory == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	if err := os.MkdirAll(directory, 0750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &FileStore{directory: directory, enabled: true}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.directory
}

// Enabled reports whether the store persists reports.
func (s *FileStore) Enabled() bool {
	return s.enabled
}

// Save writes report, replacing any report with the same ID.
func (s *FileStore) Save(report *RunReport) error {
	if !s.enabled {
		return ErrHistoryDisabled
	}
	if report == nil {
		return errors.New("run report cannot be nil")
	}
	if err := validateID(report.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.idToFilePath(report.ID)
	tempPath := filePath + ".tmp"
	if writeErr := os.WriteFile(tempPath, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write run report: %w", writeErr)
	}
	if renameErr := os.Rename(tempPath, filePath); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename run report: %w", renameErr)
	}
	return nil
}

// Get loads the report with the given ID.
func (s *FileStore) Get(id string) (*RunReport, error) {
	if !s.enabled {
		return nil, ErrHistoryDisabled
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return readReport(s.idToFilePath(id))
}

// List returns up to limit reports, newest first. A limit of zero or less
// returns all of them. Unreadable files are skipped.
func (s *FileStore) List(limit int) ([]RunReport, error) {
	if !s.enabled {
		return nil, ErrHistoryDisabled
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	slices.Reverse(ids)

	reports := make([]RunReport, 0, len(ids))
	for _, id := range ids {
		if limit > 0 && len(reports) >= limit {
			break
		}
		r, readErr := readReport(s.idToFilePath(id))
		if readErr != nil {
			continue
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

// Prune deletes reports that finished more than olderThan before now and
// returns how many were removed.
func (s *FileStore) Prune(olderThan time.Duration, now time.Time) (int, error) {
	if !s.enabled {
		return 0, ErrHistoryDisabled
	}
	if olderThan < 0 {
		return 0, fmt.Errorf("prune age cannot be negative: got %s", olderThan)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.ids()
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-olderThan)
	removed := 0
	for _, id := range ids {
		path := s.idToFilePath(id)
		r, readErr := readReport(path)
		if readErr != nil {
			continue
		}
		if !r.FinishedAt.Before(cutoff) {
			continue
		}
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return removed, fmt.Errorf("failed to remove run report %s: %w", id, removeErr)
		}
		removed++
	}
	return removed, nil
}

// ids returns the IDs of stored reports in ascending (chronological) order.
func (s *FileStore) ids() ([]string, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != reportFileExtension {
			continue
		}
		id := strings.TrimSuffix(e.Name(), reportFileExtension)
		if validateID(id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *FileStore) idToFilePath(id string) string {
	return filepath.Join(s.directory, id+reportFileExtension)
}

func readReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to read run report: %w", err)
	}

	var r RunReport
	if unmarshalErr := json.Unmarshal(data, &r); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal run report: %w", unmarshalErr)
	}
	return &r, nil
}

func validateID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: got %q", ErrInvalidReportID, id)
	}
	return nil
}
