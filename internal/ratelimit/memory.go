package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryConfig tunes the in-process limiter.
type MemoryConfig struct {
	Config
	MaxEntries    int           // sweep early once this many keys are tracked (0 = no bound)
	SweepInterval time.Duration // how often idle windows are dropped
	Now           func() time.Time
}

type window struct {
	mu    sync.Mutex
	count int
	start time.Time
	dead  bool // removed from the map by a sweep
}

// Memory is a per-process fixed window limiter. State is lost on restart.
type Memory struct {
	cfg       MemoryConfig
	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

var _ Limiter = (*Memory)(nil)

// NewMemory creates an in-process limiter.
func NewMemory(cfg MemoryConfig) *Memory {
	cfg.Config = cfg.Config.withDefaults()
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Memory{
		cfg:       cfg,
		windows:   make(map[string]*window, 1024),
		lastSweep: cfg.Now(),
	}
}

func (m *Memory) getWindow(key string, now time.Time) *window {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now.Sub(m.lastSweep) >= m.cfg.SweepInterval ||
		(m.cfg.MaxEntries > 0 && len(m.windows) >= m.cfg.MaxEntries) {
		m.sweepLocked(now)
	}
	w := m.windows[key]
	if w == nil {
		w = &window{start: now}
		m.windows[key] = w
	}
	return w
}

// Admit implements Limiter.
func (m *Memory) Admit(_ context.Context, key string) (Decision, error) {
	now := m.cfg.Now()

	var w *window
	for {
		w = m.getWindow(key, now)
		w.mu.Lock()
		if !w.dead {
			break
		}
		w.mu.Unlock()
	}
	defer w.mu.Unlock()

	if now.Sub(w.start) >= m.cfg.Window {
		w.start = now
		w.count = 0
	}

	if w.count >= m.cfg.Points {
		retry := w.start.Add(m.cfg.Window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, Limit: m.cfg.Points, Remaining: 0, RetryAfter: retry}, nil
	}

	w.count++
	return Decision{Allowed: true, Limit: m.cfg.Points, Remaining: m.cfg.Points - w.count}, nil
}

// sweepLocked drops windows that have fully elapsed. A dropped key simply
// starts a fresh window on its next request, which is what an elapsed
// window would do anyway.
func (m *Memory) sweepLocked(now time.Time) {
	for key, w := range m.windows {
		w.mu.Lock()
		if now.Sub(w.start) >= m.cfg.Window {
			w.dead = true
			delete(m.windows, key)
		}
		w.mu.Unlock()
	}
	m.lastSweep = now
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}
