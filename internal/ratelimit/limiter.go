// Package ratelimit admits ingestion requests per client identity using a
// fixed window of Points admissions per Window.
package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/utils"
)

const (
	// DefaultPoints is the number of admissions per window.
	DefaultPoints = 10
	// DefaultWindow is the window length.
	DefaultWindow = 60 * time.Second
	// UnknownClient is the shared bucket for requests without a resolvable origin.
	UnknownClient = "unknown"
)

// Decision is the outcome of one Admit call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // zero when Allowed
}

// Limiter decides whether a client may consume one unit of quota.
// A denial never consumes quota. Implementations must be safe for
// concurrent calls on the same key.
type Limiter interface {
	Admit(ctx context.Context, key string) (Decision, error)
}

// Config holds the window parameters shared by all backends.
type Config struct {
	Points int
	Window time.Duration
}

func (c Config) withDefaults() Config {
	if c.Points < 1 {
		c.Points = DefaultPoints
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// ClientKey derives the limiter key for r. Proxy headers are only honoured
// when trustProxy is set; an unresolvable origin maps to UnknownClient.
func ClientKey(r *http.Request, trustProxy bool) string {
	if ip := utils.ClientIP(r, trustProxy); ip != "" {
		return ip
	}
	return UnknownClient
}
