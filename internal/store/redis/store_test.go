package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testID = "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"

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

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis, *clock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(client, store.Options{Now: c.Now}), mr, c
}

func TestStore_CreateGet(t *testing.T) {
	s, mr, c := setupStore(t)
	ctx := context.Background()
	payload := json.RawMessage(`{"personal":{"firstName":"Asha","lastName":"Rao"}}`)

	rec, err := s.Create(ctx, testID, payload)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !rec.CreatedAt.Equal(c.Now()) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, c.Now())
	}

	got, err := s.Get(ctx, testID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Payload) != string(payload) {
		t.Errorf("Payload = %s, want %s", got.Payload, payload)
	}
	if !got.ExpiresAt.Equal(rec.ExpiresAt) || !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("timestamps mismatch: got %v/%v want %v/%v", got.CreatedAt, got.ExpiresAt, rec.CreatedAt, rec.ExpiresAt)
	}

	if ttl := mr.TTL(ShareKey(testID)); ttl != store.DefaultTTL+store.DefaultRetention {
		t.Errorf("key TTL = %v, want %v", ttl, store.DefaultTTL+store.DefaultRetention)
	}
}

func TestStore_Duplicate(t *testing.T) {
	s, _, c := setupStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, testID, json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, testID, json.RawMessage(`{"x":1}`)); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("Create() duplicate error = %v, want ErrDuplicate", err)
	}

	c.Advance(store.DefaultTTL + time.Second)
	if _, err := s.Create(ctx, testID, json.RawMessage(`{"x":1}`)); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("Create() expired duplicate error = %v, want ErrDuplicate", err)
	}
}

func TestStore_ExpiredPurgedOnRead(t *testing.T) {
	s, mr, c := setupStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, testID, json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}
	c.Advance(store.DefaultTTL)

	if _, err := s.Get(ctx, testID); !errors.Is(err, store.ErrExpired) {
		t.Fatalf("Get() error = %v, want ErrExpired", err)
	}
	if mr.Exists(ShareKey(testID)) {
		t.Error("expired key still present after read")
	}
	if _, err := s.Get(ctx, testID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_NotFoundAndDelete(t *testing.T) {
	s, _, _ := setupStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, testID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, testID); err != nil {
		t.Errorf("Delete() absent error = %v", err)
	}

	s.Create(ctx, testID, json.RawMessage(`{}`))
	if err := s.Delete(ctx, testID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, testID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_Sweep(t *testing.T) {
	s, mr, c := setupStore(t)
	ctx := context.Background()

	s.Create(ctx, testID, json.RawMessage(`{}`))
	c.Advance(time.Minute)
	other := "00000000000000000000000000000002"
	s.Create(ctx, other, json.RawMessage(`{}`))

	// unrelated keys are left alone
	mr.Set("pshare:rl:10.0.0.1", "3")

	c.Advance(store.DefaultTTL + store.DefaultRetention - 30*time.Second)
	n, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if mr.Exists(ShareKey(testID)) {
		t.Error("swept key still present")
	}
	if !mr.Exists(ShareKey(other)) {
		t.Error("record inside retention was swept")
	}
	if !mr.Exists("pshare:rl:10.0.0.1") {
		t.Error("sweep touched a non-share key")
	}
}

func TestStore_Ping(t *testing.T) {
	s, mr, _ := setupStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	mr.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail once redis is gone")
	}
}
