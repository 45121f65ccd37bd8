// Package share implements the two protocols of the service: ingesting a
// signed patient record under a share id, and retrieving it while live.
package share

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/patientshare/internal/audit"
	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
	"github.com/MrSnakeDoc/patientshare/internal/metrics"
	"github.com/MrSnakeDoc/patientshare/internal/ratelimit"
	"github.com/MrSnakeDoc/patientshare/internal/signer"
	"github.com/MrSnakeDoc/patientshare/internal/store"
)

// Service orchestrates store, limiter, signer and audit log. It holds no
// request state and is safe for concurrent use.
type Service struct {
	store   store.Store
	limiter ratelimit.Limiter
	signer  *signer.Signer
	audit   audit.Recorder
	logger  logger.Logger
	baseURL string
}

// New wires a Service. baseURL prefixes the shareUrl returned on ingestion.
func New(
	st store.Store,
	limiter ratelimit.Limiter,
	sig *signer.Signer,
	rec audit.Recorder,
	log logger.Logger,
	baseURL string,
) *Service {
	return &Service{
		store:   st,
		limiter: limiter,
		signer:  sig,
		audit:   rec,
		logger:  log.With(logger.String("component", "share")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ShareURL is the public link for id.
func (s *Service) ShareURL(id string) string {
	return s.baseURL + "/patient/" + id
}

// record writes an audit entry. Failures are logged and never reach the caller.
func (s *Service) record(ctx context.Context, a *domain.WebhookAttempt) {
	if err := s.audit.Record(context.WithoutCancel(ctx), a); err != nil {
		metrics.AuditFailure()
		s.logger.Warn("failed to record webhook attempt",
			logger.String("source", a.Source),
			logger.Bool("success", a.Success),
			logger.Error(err))
	}
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	return string(domain.KindOf(err).Code())
}

// idPrefix is enough of a share id to correlate log lines without making
// the log a source of working links.
func idPrefix(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
