package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_AdmitsUpToPoints(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedis(client, Config{}, "")
	ctx := context.Background()

	for i := 1; i <= DefaultPoints; i++ {
		d, err := l.Admit(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Admit() error = %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d denied, want allowed", i)
		}
		if d.Remaining != DefaultPoints-i {
			t.Errorf("request %d remaining = %d, want %d", i, d.Remaining, DefaultPoints-i)
		}
	}

	d, err := l.Admit(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if d.Allowed {
		t.Fatal("request 11 allowed, want denied")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > DefaultWindow {
		t.Errorf("RetryAfter = %v, want within (0, %v]", d.RetryAfter, DefaultWindow)
	}

	if got, _ := mr.Get(DefaultKeyPrefix + "10.0.0.1"); got != "10" {
		t.Errorf("counter = %s, want 10 (denials must not consume)", got)
	}
}

func TestRedis_WindowResets(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedis(client, Config{Points: 1, Window: 30 * time.Second}, "test:")
	ctx := context.Background()

	if d, _ := l.Admit(ctx, "k"); !d.Allowed {
		t.Fatal("first request denied")
	}
	if d, _ := l.Admit(ctx, "k"); d.Allowed {
		t.Fatal("second request allowed")
	}

	mr.FastForward(31 * time.Second)

	if d, _ := l.Admit(ctx, "k"); !d.Allowed {
		t.Error("request after window elapsed denied")
	}
}

func TestRedis_BackendFailure(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedis(client, Config{}, "")
	mr.Close()

	if _, err := l.Admit(context.Background(), "k"); err == nil {
		t.Error("Admit() should surface backend errors")
	}
}
