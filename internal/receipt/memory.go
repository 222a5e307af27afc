package receipt

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// MemoryDB implements the DB interface with an in-process map. Records are
// lost when the process exits.
type MemoryDB struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryDB creates an empty MemoryDB
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{records: make(map[string]*Record)}
}

// SaveReceipt stores a copy of the record
func (m *MemoryDB) SaveReceipt(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := cloneRecord(record)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = stored
	return nil
}

// GetReceipt returns a copy of the record stored under id
func (m *MemoryDB) GetReceipt(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneRecord(record), nil
}

// ListReceipts returns copies of all records, oldest first
func (m *MemoryDB) ListReceipts(ctx context.Context) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	records := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, cloneRecord(r))
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// cloneRecord copies a record including its slices, so callers never share
// memory with the map
func cloneRecord(r *Record) *Record {
	out := *r
	out.Receipt.Items = slices.Clone(r.Receipt.Items)
	out.Breakdown = slices.Clone(r.Breakdown)
	return &out
}

// Close is a no-op
func (m *MemoryDB) Close() error {
	return nil
}
