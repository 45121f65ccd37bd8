package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/logger"
	"github.com/MrSnakeDoc/patientshare/internal/store"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSweeper_Sweep(t *testing.T) {
	clk := &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	st := store.NewMemory(store.Options{TTL: 5 * time.Minute, Retention: time.Hour, Now: clk.Now})
	ctx := context.Background()

	for _, id := range []string{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"} {
		if _, err := st.Create(ctx, id, json.RawMessage(`{}`)); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	sw := NewSweeper(st, logger.NewNop(), time.Minute)

	// Expired but still within retention: kept so reads can answer "expired".
	clk.Advance(10 * time.Minute)
	if n, err := sw.Sweep(ctx); err != nil || n != 0 {
		t.Fatalf("Sweep() within retention = (%d, %v), want (0, nil)", n, err)
	}

	clk.Advance(time.Hour)
	n, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Sweep() removed %d, want 2", n)
	}
	if st.Count() != 0 {
		t.Errorf("store still holds %d records", st.Count())
	}
}

type failingSweepStore struct {
	store.Store
}

func (failingSweepStore) Sweep(context.Context) (int, error) {
	return 0, errors.New("backend down")
}

func TestSweeper_SweepError(t *testing.T) {
	sw := NewSweeper(failingSweepStore{}, logger.NewNop(), time.Minute)
	if _, err := sw.Sweep(context.Background()); err == nil {
		t.Fatal("Sweep() should surface store errors")
	}
}

func TestSweeper_StartStop(t *testing.T) {
	st := store.NewMemory(store.Options{})
	sw := NewSweeper(st, logger.NewNop(), 10*time.Millisecond)
	sw.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	sw.Stop()
	sw.Stop()
}

func TestSweeper_DisabledInterval(t *testing.T) {
	sw := NewSweeper(store.NewMemory(store.Options{}), logger.NewNop(), 0)
	sw.Start(context.Background())
	sw.Stop()
}
