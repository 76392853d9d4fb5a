package hazardlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// CSVStore appends hazard rows to a local CSV file. Intended for development.
type CSVStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewCSVStore creates a CSVStore writing to path, creating parent directories.
func NewCSVStore(path string, logger *slog.Logger) (*CSVStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve csv path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create csv directory: %w", err)
	}

	logger.Info("initialized csv hazard log", "path", absPath)

	return &CSVStore{
		path:   absPath,
		logger: logger,
	}, nil
}

// Name implements Store.
func (s *CSVStore) Name() string {
	return "csv"
}

// AppendRows implements Store. A header row is written when the file is new.
func (s *CSVStore) AppendRows(ctx context.Context, rows []Row) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if err := validateRows(rows); err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
		}
	}
	for _, row := range rows {
		if err := w.Write(row.Strings()); err != nil {
			return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
	}

	return len(rows), nil
}
