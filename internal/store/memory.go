package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
)

// Memory is an in-process Store. Records do not survive a restart.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*domain.ShareRecord
	opts    Options
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(opts Options) *Memory {
	return &Memory{
		records: make(map[string]*domain.ShareRecord),
		opts:    opts.WithDefaults(),
	}
}

func (m *Memory) Create(_ context.Context, id string, payload json.RawMessage) (*domain.ShareRecord, error) {
	now := m.opts.Now()
	rec := &domain.ShareRecord{
		ShareID:   id,
		Payload:   append(json.RawMessage(nil), payload...),
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.TTL),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; ok {
		return nil, ErrDuplicate
	}
	m.records[id] = rec

	out := *rec
	return &out, nil
}

func (m *Memory) Get(_ context.Context, id string) (*domain.ShareRecord, error) {
	now := m.opts.Now()

	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if rec.Live(now) {
		out := *rec
		return &out, nil
	}

	// Expired: purge under the write lock. Only the caller that actually
	// removes the entry reports ErrExpired, the rest see ErrNotFound.
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.records[id]; !ok || cur != rec {
		return nil, ErrNotFound
	}
	delete(m.records, id)
	return nil, ErrExpired
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *Memory) Sweep(_ context.Context) (int, error) {
	now := m.opts.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, rec := range m.records {
		if !now.Before(rec.ExpiresAt.Add(m.opts.Retention)) {
			delete(m.records, id)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of records held, expired ones included.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
