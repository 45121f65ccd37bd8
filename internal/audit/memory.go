package audit

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
)

// DefaultMemoryCapacity bounds the in-memory log.
const DefaultMemoryCapacity = 1000

// Memory keeps the most recent attempts in a ring buffer.
type Memory struct {
	mu    sync.Mutex
	buf   []domain.WebhookAttempt
	next  int
	full  bool
	nowFn func() time.Time
}

var _ Recorder = (*Memory)(nil)

// NewMemory creates a ring buffer recorder holding up to capacity attempts.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{
		buf:   make([]domain.WebhookAttempt, capacity),
		nowFn: time.Now,
	}
}

func (m *Memory) Record(_ context.Context, a *domain.WebhookAttempt) error {
	prepare(a, m.nowFn)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.buf[m.next] = *a
	m.next = (m.next + 1) % len(m.buf)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]domain.WebhookAttempt, error) {
	limit = clampLimit(limit)

	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = len(m.buf)
	}
	if limit > size {
		limit = size
	}

	out := make([]domain.WebhookAttempt, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.buf)) % len(m.buf)
		out = append(out, m.buf[idx])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
