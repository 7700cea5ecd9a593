// Package filestore persists the report set as a single JSON array file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/wildflower-map/internal/domain"
)

// Store reads and replaces the persisted report file.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a store for the file at path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted report set. A missing file yields an empty
// snapshot with Exists false. Records with bad dates are logged and dropped.
func (s *Store) Load(_ context.Context) (domain.Snapshot, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("stat reports file: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("reading reports file: %w", err)
	}

	reports, quarantined, err := domain.DecodeReports(data)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("parsing reports file: %w", err)
	}
	for _, q := range quarantined {
		s.logger.Warn("dropping persisted report", "index", q.Index, "reason", q.Reason)
	}

	return domain.Snapshot{
		Reports:   reports,
		UpdatedAt: info.ModTime(),
		Exists:    true,
	}, nil
}

// Replace overwrites the persisted set with reports. The file is written to
// a temporary sibling and renamed so readers never see a partial file.
func (s *Store) Replace(_ context.Context, reports []domain.Report) error {
	if reports == nil {
		reports = []domain.Report{}
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding reports: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating reports directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp reports file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing reports file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing reports file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing reports file: %w", err)
	}
	return nil
}
