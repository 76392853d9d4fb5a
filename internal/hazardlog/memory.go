package hazardlog

import (
	"context"
	"sync"
)

// MemoryStore keeps rows in memory. It is used in tests and local development.
type MemoryStore struct {
	mu   sync.Mutex
	rows []Row

	// Err, when set, is returned by AppendRows instead of storing rows.
	Err error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Name implements Store.
func (s *MemoryStore) Name() string {
	return "memory"
}

// AppendRows implements Store.
func (s *MemoryStore) AppendRows(ctx context.Context, rows []Row) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: s.Err}
	}
	if err := validateRows(rows); err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
	}
	for _, row := range rows {
		s.rows = append(s.rows, append(Row(nil), row...))
	}
	return len(rows), nil
}

// Rows returns a copy of every stored row.
func (s *MemoryStore) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}
