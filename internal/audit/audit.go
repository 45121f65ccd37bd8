// Package audit records every webhook ingestion attempt that passed the
// rate gate. Recording is best effort: callers log and drop write errors.
package audit

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/google/uuid"
)

const (
	// DefaultRecentLimit is used when Recent is called with a non-positive limit.
	DefaultRecentLimit = 50
	// MaxRecentLimit caps a single Recent call.
	MaxRecentLimit = 500
)

// Recorder persists webhook attempts.
type Recorder interface {
	// Record stores a. ID and CreatedAt are filled when empty.
	Record(ctx context.Context, a *domain.WebhookAttempt) error
	// Recent returns up to limit attempts, newest first.
	Recent(ctx context.Context, limit int) ([]domain.WebhookAttempt, error)
	Close() error
}

func prepare(a *domain.WebhookAttempt, now func() time.Time) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now().UTC()
	}
	if a.Source == "" {
		a.Source = domain.UnknownSource
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}
