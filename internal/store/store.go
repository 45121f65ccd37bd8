// Package store keeps share records for a fixed TTL and purges them on the
// first read that observes expiry.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
)

const (
	// DefaultTTL is how long a record stays readable.
	DefaultTTL = 300 * time.Second
	// DefaultRetention is how long an expired record is kept after expiry
	// so the first late read can still report it as expired.
	DefaultRetention = time.Hour
)

var (
	ErrDuplicate = errors.New("share id already exists")
	ErrNotFound  = errors.New("share not found")
	ErrExpired   = errors.New("share expired")
)

// Store is the contract shared by all backends. Create and Get are atomic
// per share id.
type Store interface {
	// Create stores payload under id. It fails with ErrDuplicate when id is
	// present, live or expired.
	Create(ctx context.Context, id string, payload json.RawMessage) (*domain.ShareRecord, error)
	// Get returns the live record for id. An expired record is deleted by
	// the same call and reported as ErrExpired.
	Get(ctx context.Context, id string) (*domain.ShareRecord, error)
	// Delete removes id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	// Sweep drops records whose retention has elapsed and reports how many.
	Sweep(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Options configures a backend.
type Options struct {
	TTL       time.Duration
	Retention time.Duration
	Now       func() time.Time
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Retention < 0 {
		o.Retention = 0
	} else if o.Retention == 0 {
		o.Retention = DefaultRetention
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
